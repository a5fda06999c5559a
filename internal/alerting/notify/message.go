package notify

import "context"

// Attachment is a binary part of an alert message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a composed alert ready for delivery.
type Message struct {
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Channel delivers a composed alert. Delivery failure is reportable but
// never fatal; retries are the caller's concern.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}
