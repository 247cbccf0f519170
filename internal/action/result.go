package action

import "fmt"

// Result is the uniform outcome of an action. Failures carry a
// human-readable reason; successes carry the Gmail message ID and the
// delivery details.
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
	To        string `json:"to,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

// Sent builds a success result for a delivered email.
func Sent(messageID, to, subject string) Result {
	return Result{
		Success:   true,
		Message:   fmt.Sprintf("Email sent successfully to %s", to),
		MessageID: messageID,
		To:        to,
		Subject:   subject,
	}
}

// Failure builds an error result with the given reason.
func Failure(format string, args ...any) Result {
	return Result{
		Success: false,
		Message: fmt.Sprintf(format, args...),
	}
}

// String renders the result for text boundaries like the CLI and MCP
// tool responses.
func (r Result) String() string {
	if !r.Success {
		return fmt.Sprintf("Error: %s", r.Message)
	}
	if r.MessageID != "" {
		return fmt.Sprintf("%s (message ID: %s)", r.Message, r.MessageID)
	}
	return r.Message
}
