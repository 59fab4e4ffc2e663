package lib

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

func GetSMTPClient() (*mail.Client, error) {
	host := os.Getenv("SMTP_HOST")
	portEnv := os.Getenv("SMTP_PORT")
	port, err := strconv.Atoi(portEnv)
	if err != nil {
		port = 587
	}
	user := os.Getenv("SMTP_USERNAME")
	pass := os.Getenv("SMTP_PASSWORD")
	c, err := mail.NewClient(host, mail.WithPort(port), mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(user), mail.WithPassword(pass))
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return c, nil
}

// SendEnrollmentReceipt mails the student after their first successful
// settlement for a course. Best effort: a mail failure never unwinds a
// settlement.
func SendEnrollmentReceipt(to string, courseTitle string, reference string) error {
	if os.Getenv("SMTP_HOST") == "" {
		return nil
	}
	c, err := GetSMTPClient()
	if err != nil {
		return err
	}
	from := os.Getenv("SMTP_FROM")
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return err
	}
	if err := m.To(to); err != nil {
		return err
	}
	m.Subject(fmt.Sprintf("You're enrolled: %s", courseTitle))
	m.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your payment was confirmed and you now have access to %s.\nPayment reference: %s\n",
		courseTitle, reference,
	))
	if err := c.DialAndSend(m); err != nil {
		log.Printf("Error sending receipt for [%s]: %s\n", reference, err.Error())
		return err
	}
	return nil
}
