package mail

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/azrrael22/horse-reserved/internal/infra/config"
)

// Sender delivers messages over SMTP.
type Sender interface {
	Send(msg *gomail.Message) error
}

// SMTPSender wraps a gomail dialer.
type SMTPSender struct {
	dialer *gomail.Dialer
}

// NewSMTPSender constructs a sender from SMTP settings.
func NewSMTPSender(cfg config.SMTPSettings) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send dials the SMTP server and delivers a single message.
func (s *SMTPSender) Send(msg *gomail.Message) error {
	return s.dialer.DialAndSend(msg)
}

// ResetMessage builds the password recovery email. The link points at the
// frontend reset page with the token as a query parameter; validFor is the
// token lifetime announced in the body.
func ResetMessage(from, to, firstName, tokenValue, frontendURL string, validFor time.Duration) *gomail.Message {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", frontendURL, tokenValue)

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Recuperación de contraseña")
	msg.SetBody("text/html", resetBody(firstName, link, validFor))
	return msg
}

func resetBody(firstName, link string, validFor time.Duration) string {
	name := html.EscapeString(firstName)
	if name == "" {
		name = "usuario"
	}

	minutes := int(validFor.Minutes())
	if minutes < 1 {
		minutes = 1
	}

	return fmt.Sprintf(`<html><body>
<p>Hola %s,</p>
<p>Recibimos una solicitud para restablecer tu contraseña. Haz clic en el siguiente enlace para continuar:</p>
<p><a href="%s">Restablecer contraseña</a></p>
<p>El enlace expira en %d minutos. Si no solicitaste este cambio, ignora este mensaje.</p>
</body></html>`, name, link, minutes)
}
