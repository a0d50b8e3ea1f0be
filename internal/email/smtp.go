package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPSender delivers alerts through one configured relay. The go-mail client
// is built once and dialled per message.
type SMTPSender struct {
	client    *gomail.Client
	fromName  string
	fromEmail string
}

// NewSMTPSender validates the relay settings up front so a misconfiguration
// fails at startup instead of on the first alert.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: client, fromName: fromName, fromEmail: fromEmail}, nil
}

func (s *SMTPSender) message(toEmail, subject, html, text string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)
	msg.AddAlternativeString(gomail.TypeTextHTML, html)
	return msg, nil
}

func (s *SMTPSender) SendTaskAlert(ctx context.Context, toEmail string, alert TaskAlert) error {
	subject, html, err := renderTaskAlert(alert)
	if err != nil {
		return err
	}

	msg, err := s.message(toEmail, subject, html, taskAlertText(alert))
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
