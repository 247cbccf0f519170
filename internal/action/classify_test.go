package action

import "testing"

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"send an email", "please send an email to Bob", "email"},
		{"send email", "send email about the meeting", "email"},
		{"write an email", "could you write an email", "email"},
		{"compose an email", "compose an email for me", "email"},
		{"email to", "email to alice about lunch", "email"},
		{"send a message", "send a message to the team", "email"},
		{"write a message", "write a message for mom", "email"},
		{"compose a message", "compose a message", "email"},
		{"case insensitive", "SEND AN EMAIL now", "email"},
		{"unrelated", "what is the weather today", "other"},
		{"empty", "", "other"},
		{"email word alone", "check my email", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCommand(tt.text)
			if got.Action != tt.want {
				t.Errorf("ClassifyCommand(%q).Action = %q, want %q", tt.text, got.Action, tt.want)
			}
			if got.Detected != (tt.want == "email") {
				t.Errorf("Detected = %v, inconsistent with action %q", got.Detected, got.Action)
			}
			if got.Message == "" {
				t.Error("Message is empty, want a next-step hint")
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "hello world", "hello world"},
		{"extra spaces", "hello   world", "hello world"},
		{"newlines and tabs", "hello\n\tworld\n", "hello world"},
		{"leading trailing", "  hello world  ", "hello world"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResultString(t *testing.T) {
	ok := Sent("42", "user@example.com", "Hi")
	if got := ok.String(); got != "Email sent successfully to user@example.com (message ID: 42)" {
		t.Errorf("String() = %q", got)
	}

	fail := Failure("invalid email address: %s", "bad")
	if got := fail.String(); got != "Error: invalid email address: bad" {
		t.Errorf("String() = %q", got)
	}
}
