package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Sender sends email messages. Client is the production implementation;
// tests substitute fakes.
type Sender interface {
	Send(ctx context.Context, msg *EmailMessage) (string, error)
}

// Client wraps the Gmail Users service.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client over an OAuth2-authenticated HTTP
// client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{svc: svc.Users}, nil
}

// Send builds an RFC 2822 message and sends it through the Gmail API.
// It returns the Gmail message ID of the sent message.
func (c *Client) Send(ctx context.Context, msg *EmailMessage) (string, error) {
	if c == nil || c.svc == nil {
		return "", fmt.Errorf("gmail client not initialized")
	}
	if msg.To == "" {
		return "", fmt.Errorf("recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	gmailMsg := &gmail.Message{
		Raw: buildRawMessage(msg),
	}

	sent, err := c.svc.Messages.Send("me", gmailMsg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}

// buildRawMessage renders the message in RFC 2822 format and encodes it
// base64url as the Gmail API requires.
func buildRawMessage(msg *EmailMessage) string {
	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(msg.To)
	b.WriteString("\r\n")

	// Encode for non-ASCII characters like umlauts
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")

	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")

	b.WriteString(msg.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// encodeRFC2047 encodes a string for use in email headers according to RFC 2047
func encodeRFC2047(s string) string {
	needsEncoding := false
	for _, r := range s {
		if r > 127 {
			needsEncoding = true
			break
		}
	}
	if !needsEncoding {
		return s
	}

	return mime.BEncoding.Encode("UTF-8", s)
}
