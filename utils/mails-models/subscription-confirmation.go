package mailsmodels

import (
	"fmt"

	"vitalis-backend/utils"
)

func SubscriptionConfirmation(email string, tierName string) {
	subject := "Subject: Your Vitalis subscription is active \r\n"
	mime := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n"
	body := fmt.Sprintf(`
	<div style="background-color: #0E7C66; width: 100%%; min-height: 300px; padding: 30px; box-sizing:border-box">
		<table style="background-color: #ffffff; width: 100%%;  min-height: 300px;">
			<tbody>
				<tr>
					<td><h1 style="text-align:center">Welcome to Vitalis %s</h1></td>
				</tr>
				<tr>
					<td style="text-align:center; padding-bottom: 30px;">Your subscription is now active. All features of your plan are unlocked in the app.</td>
				</tr>
			</tbody>
		</table>
	</div>
`, tierName)

	message := []byte(subject + mime + body)

	if err := utils.SendMail(email, message); err != nil {
		utils.LogError(err, "Error sending the subscription confirmation mail")
	}
}
