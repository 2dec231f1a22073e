package report

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/v0xg/portalbot/internal/config"
)

// Email notifies by mail when units are available to register.
type Email struct {
	cfg config.Email
	// send is swapped in tests.
	send func(m *email.Email, addr string, auth smtp.Auth) error
}

func NewEmail(cfg config.Email) *Email {
	return &Email{
		cfg: cfg,
		send: func(m *email.Email, addr string, auth smtp.Auth) error {
			return m.Send(addr, auth)
		},
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Write(_ context.Context, r Result) error {
	if !r.CanRegister() {
		return nil
	}
	mail := e.message(r)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	err := e.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

func (e *Email) message(r Result) *email.Email {
	from := e.cfg.From
	if from == "" {
		from = e.cfg.Username
	}
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Portal Bot <%s>", from)
	mail.To = e.cfg.To
	mail.Subject = fmt.Sprintf("Units available for registration (%d)", len(r.Units))

	var body strings.Builder
	body.WriteString("The student portal is offering units for registration.\n\n")
	for _, u := range r.Units {
		fmt.Fprintf(&body, "  - %s\n", u)
	}
	if r.UnitTotal > len(r.Units) {
		fmt.Fprintf(&body, "  ... and %d more\n", r.UnitTotal-len(r.Units))
	}
	fmt.Fprintf(&body, "\nChecked at %s.\n", r.StartedAt.Format("2006-01-02 15:04 MST"))
	mail.Text = []byte(body.String())
	return mail
}
