package gmail

// EmailMessage is an outgoing email. Body may be empty; a subject-only
// notification is a valid message.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}
