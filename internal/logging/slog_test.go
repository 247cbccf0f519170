package logging

import (
	"log/slog"
	"testing"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "send_email") == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithProvider(t *testing.T) {
	logger := slog.Default()
	if WithProvider(logger, "gemini") == nil {
		t.Error("WithProvider returned nil")
	}
}

func TestOperationAttr(t *testing.T) {
	attr := Operation("refresh")
	if attr.Key != KeyOperation {
		t.Errorf("Operation key = %q, want %q", attr.Key, KeyOperation)
	}
	if attr.Value.String() != "refresh" {
		t.Errorf("Operation value = %q, want %q", attr.Value.String(), "refresh")
	}
}

func TestProviderAttr(t *testing.T) {
	attr := Provider("openai")
	if attr.Key != KeyProvider {
		t.Errorf("Provider key = %q, want %q", attr.Key, KeyProvider)
	}
	if attr.Value.String() != "openai" {
		t.Errorf("Provider value = %q, want %q", attr.Value.String(), "openai")
	}
}

func TestErrWithNil(t *testing.T) {
	attr := Err(nil)
	// nil errors become an empty group that slog omits from output
	if attr.Value.Kind() != slog.KindGroup {
		t.Errorf("Err(nil) kind = %v, want group", attr.Value.Kind())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		empty bool
	}{
		{"normal email", "user@example.com", false},
		{"empty email", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeEmail(tt.email)
			if tt.empty && got != "" {
				t.Errorf("AnonymizeEmail(%q) = %q, want empty", tt.email, got)
			}
			if !tt.empty {
				if got == "" || got == tt.email {
					t.Errorf("AnonymizeEmail(%q) = %q, want anonymized value", tt.email, got)
				}
			}
		})
	}

	// Same input must hash to the same value for correlation.
	if AnonymizeEmail("a@b.com") != AnonymizeEmail("a@b.com") {
		t.Error("AnonymizeEmail is not deterministic")
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q, want <empty>", got)
	}
	got := SanitizeToken("ya29.secret-token")
	if got == "ya29.secret-token" {
		t.Error("SanitizeToken leaked token content")
	}
	if got != "[token:17 chars]" {
		t.Errorf("SanitizeToken = %q, want [token:17 chars]", got)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"user@example.com", "example.com"},
		{"no-at-sign", ""},
		{"", ""},
		{"a@b@c", ""},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.email); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
