// Package gmail wraps the Gmail API for sending mail.
//
// The client builds RFC 2822 messages, encodes them base64url the way the
// Gmail API expects, and sends them on behalf of the authenticated user.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, httpClient)
//	if err != nil {
//		log.Fatal(err)
//	}
//	id, err := client.Send(ctx, &gmail.EmailMessage{
//		To:      "recipient@example.com",
//		Subject: "Hello",
//		Body:    "Hello from outboxd",
//	})
package gmail
