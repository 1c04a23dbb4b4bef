package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
)

// Mailer is the outbound e-mail collaborator. Template bodies live with
// the transport; the booking core only picks a template key and data.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, templateKey string, data map[string]any) error
}

// SMTPMailer delivers through a plain SMTP relay. The body is the
// template key's registered text with a rendered data block; rich HTML
// rendering is owned by the mail platform, not this service.
type SMTPMailer struct {
	Host        string
	Port        string
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

func (m SMTPMailer) Send(ctx context.Context, toEmail, toName, subject, templateKey string, data map[string]any) error {
	if toEmail == "" {
		return fmt.Errorf("missing recipient address")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.FromName, m.FromAddress)
	fmt.Fprintf(&b, "To: %s <%s>\r\n", toName, toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "X-Template: %s\r\n", templateKey)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(renderBody(templateKey, data))

	addr := m.Host + ":" + m.Port
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return smtp.SendMail(addr, auth, m.FromAddress, []string{toEmail}, []byte(b.String()))
}

func renderBody(templateKey string, data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\r\n", templateKey)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\r\n", k, data[k])
	}
	return b.String()
}

// Noop discards mail; used in tests and local setups without a relay.
type Noop struct{}

func (Noop) Send(ctx context.Context, toEmail, toName, subject, templateKey string, data map[string]any) error {
	return nil
}
