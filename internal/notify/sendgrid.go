package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irrigafacil/apiserver/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers auth emails through the SendGrid API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(cfg config.MailConfig) (*SendGridMailer, error) {
	if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
	}, nil
}

// SendPasswordReset emails the redemption link to the user.
func (m *SendGridMailer) SendPasswordReset(ctx context.Context, event PasswordResetEvent) error {
	name := event.Name
	if name == "" {
		name = event.To
	}

	subject := "Redefinição de senha"
	plain := fmt.Sprintf(
		"Olá %s,\n\nRecebemos um pedido para redefinir a sua senha. Use o link abaixo (válido até %s):\n\n%s\n\nSe você não pediu a redefinição, ignore este email.",
		name,
		event.ExpiresAt.Format("02/01/2006 15:04"),
		event.Link,
	)

	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(name, event.To), plain, "")
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
