package action

import "strings"

// emailCommandPhrases are the phrases that mark a voice command as an
// email request. Matching is case-insensitive substring search.
var emailCommandPhrases = []string{
	"send an email",
	"send email",
	"write an email",
	"compose an email",
	"email to",
	"send a message",
	"write a message",
	"compose a message",
}

// Classification is the outcome of classifying a voice command.
type Classification struct {
	// Action is "email" when the command asks to send mail, "other"
	// otherwise.
	Action string `json:"action"`

	// Detected reports whether an email phrase matched.
	Detected bool `json:"detected"`

	// Message tells the caller what to do next.
	Message string `json:"message"`
}

// ClassifyCommand decides whether a voice command is an email request.
func ClassifyCommand(text string) Classification {
	lower := strings.ToLower(text)
	for _, phrase := range emailCommandPhrases {
		if strings.Contains(lower, phrase) {
			return Classification{
				Action:   "email",
				Detected: true,
				Message:  "Email request detected. Please provide recipient, subject, and body.",
			}
		}
	}
	return Classification{
		Action:   "other",
		Detected: false,
		Message:  "No specific action detected. Processing as general query.",
	}
}
