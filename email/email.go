package email

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Mail struct {
	client      *sendgrid.Client
	from        *sgmail.Email
	recoveryURL string
}

func New(apiKey string, fromName string, fromAddress string, recoveryURL string) *Mail {
	return &Mail{
		client:      sendgrid.NewSendClient(apiKey),
		from:        sgmail.NewEmail(fromName, fromAddress),
		recoveryURL: recoveryURL,
	}
}

func (m *Mail) SendRecovery(to string, token string) error {
	link := fmt.Sprintf("%s?token=%s", m.recoveryURL, token)

	plain := fmt.Sprintf("Reset your password by visiting %s. The link expires shortly.", link)
	html := fmt.Sprintf(
		`<p>A password reset was requested for this address.</p>
<p><a href="%s">Set a new password</a></p>
<p>If you did not request this, ignore this email.</p>`, link)

	msg := sgmail.NewSingleEmail(m.from, "Reset your password", sgmail.NewEmail("", to), plain, html)

	resp, err := m.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sending recovery mail: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sending recovery mail: provider returned status %d", resp.StatusCode)
	}

	return nil
}
