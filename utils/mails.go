package utils

import (
	"fmt"
	"net/smtp"
	"os"
)

// SendMail delivers a notification email. When SMTP is not configured the
// message is logged instead, so billing notifications stay best-effort.
func SendMail(email string, message []byte) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	if from == "" {
		from = "notifications@vitalis.health"
	}
	if password == "" {
		LogInfo("SMTP not configured, notification for " + email + " logged only")
		return nil
	}

	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	if smtpHost == "" {
		smtpHost = "smtp.gmail.com"
	}
	if smtpPort == "" {
		smtpPort = "587"
	}
	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{email}, message)
	if err != nil {
		return fmt.Errorf("error sending mail: %w", err)
	}

	return nil
}
