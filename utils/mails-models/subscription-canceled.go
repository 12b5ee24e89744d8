package mailsmodels

import (
	"vitalis-backend/utils"
)

func SubscriptionCanceled(email string) {
	subject := "Subject: Your Vitalis subscription was canceled \r\n"
	mime := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n"
	body := `
	<div style="background-color: #0E7C66; width: 100%; min-height: 300px; padding: 30px; box-sizing:border-box">
		<table style="background-color: #ffffff; width: 100%;  min-height: 300px;">
			<tbody>
				<tr>
					<td><h1 style="text-align:center">Sorry to see you go</h1></td>
				</tr>
				<tr>
					<td style="text-align:center; padding-bottom: 30px;">Your subscription has been canceled. You keep access until the end of the current billing period, and your health data stays available on the free plan.</td>
				</tr>
			</tbody>
		</table>
	</div>
`

	message := []byte(subject + mime + body)

	if err := utils.SendMail(email, message); err != nil {
		utils.LogError(err, "Error sending the subscription canceled mail")
	}
}
