package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestActionEventRecipientDomain(t *testing.T) {
	tests := []struct {
		recipient string
		want      string
	}{
		{"user@example.com", "example.com"},
		{"", ""},
		{"invalid", "unknown"},
		{"a@", "unknown"},
	}

	for _, tt := range tests {
		e := NewActionEvent("send_email").WithRecipient(tt.recipient)
		if got := e.RecipientDomain(); got != tt.want {
			t.Errorf("RecipientDomain(%q) = %q, want %q", tt.recipient, got, tt.want)
		}
	}
}

func TestActionEventComplete(t *testing.T) {
	e := NewActionEvent("send_email").CompleteWithError(errors.New("boom"))
	if e.Success {
		t.Error("CompleteWithError should mark failure")
	}
	if e.Error != "boom" {
		t.Errorf("Error = %q, want boom", e.Error)
	}
	if e.Status() != StatusError {
		t.Errorf("Status() = %q, want error", e.Status())
	}

	ok := NewActionEvent("send_email").CompleteSuccess()
	if !ok.Success || ok.Status() != StatusSuccess {
		t.Error("CompleteSuccess should mark success")
	}
}

func TestAuditLoggerExcludesPIIByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLogger(logger)

	e := NewActionEvent("send_email").
		WithRecipient("jane@example.com").
		CompleteSuccess()
	al.LogAction(e)

	out := buf.String()
	if strings.Contains(out, "jane@example.com") {
		t.Errorf("audit log leaked full address:\n%s", out)
	}
	if !strings.Contains(out, "example.com") {
		t.Errorf("audit log missing recipient domain:\n%s", out)
	}
	if !strings.Contains(out, "action_executed") {
		t.Errorf("audit log missing event name:\n%s", out)
	}
}

func TestAuditLoggerIncludesPIIWhenConfigured(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true, IncludePII: true})

	e := NewActionEvent("send_email").
		WithRecipient("jane@example.com").
		CompleteWithError(errors.New("send failed"))
	al.LogAction(e)

	out := buf.String()
	if !strings.Contains(out, "jane@example.com") {
		t.Errorf("audit log should include full address with IncludePII:\n%s", out)
	}
	if !strings.Contains(out, "action_failed") {
		t.Errorf("failed action should log action_failed:\n%s", out)
	}
}

func TestAuditLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})

	al.LogAction(NewActionEvent("send_email").CompleteSuccess())
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output:\n%s", buf.String())
	}
}
