package mail

import (
	"context"
	"strings"
	"testing"
)

func TestRenderBody(t *testing.T) {
	body := renderBody("emails.job-created", map[string]any{
		"user": "Anna",
		"job":  int64(42),
	})
	if !strings.HasPrefix(body, "[emails.job-created]\r\n") {
		t.Fatalf("body = %q", body)
	}
	// Keys render sorted so bodies are stable.
	jobIdx := strings.Index(body, "job: 42")
	userIdx := strings.Index(body, "user: Anna")
	if jobIdx == -1 || userIdx == -1 || jobIdx > userIdx {
		t.Fatalf("body = %q", body)
	}
}

func TestSMTPMailerRequiresRecipient(t *testing.T) {
	m := SMTPMailer{Host: "localhost", Port: "25"}
	if err := m.Send(context.Background(), "", "Anna", "Hej", "emails.job-created", nil); err == nil {
		t.Fatalf("missing recipient must fail")
	}
}
