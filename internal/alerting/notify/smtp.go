package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

const mimeBoundary = "glucose-sentinel-mixed"

// SMTPChannel delivers alerts as multipart email through an SMTP relay.
type SMTPChannel struct {
	addr     string
	from     string
	to       []string
	username string
	password string
	send     func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// SMTPOption configures the SMTP channel.
type SMTPOption func(*SMTPChannel)

// WithAuth sets plain authentication credentials.
func WithAuth(username, password string) SMTPOption {
	return func(ch *SMTPChannel) {
		ch.username = username
		ch.password = password
	}
}

// WithSendFunc overrides the transport, for tests.
func WithSendFunc(send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error) SMTPOption {
	return func(ch *SMTPChannel) {
		if send != nil {
			ch.send = send
		}
	}
}

// NewSMTPChannel constructs an SMTP channel. Sender and recipients are fixed
// configuration identities, not message data.
func NewSMTPChannel(addr, from string, to []string, opts ...SMTPOption) (*SMTPChannel, error) {
	if addr == "" {
		return nil, errors.New("smtp channel: empty address")
	}
	if from == "" || len(to) == 0 {
		return nil, errors.New("smtp channel: sender and recipients required")
	}
	channel := &SMTPChannel{
		addr: addr,
		from: from,
		to:   append([]string(nil), to...),
		send: smtp.SendMail,
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send builds the MIME message and hands it to the relay.
func (c *SMTPChannel) Send(ctx context.Context, msg Message) error {
	if c == nil || c.addr == "" {
		return errors.New("smtp channel: not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if c.username != "" {
		host := c.addr
		if idx := strings.LastIndex(host, ":"); idx >= 0 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", c.username, c.password, host)
	}
	return c.send(c.addr, auth, c.from, c.to, buildMIME(c.from, c.to, msg))
}

// buildMIME assembles a multipart/mixed message with the HTML body first and
// base64 attachments after, the classic raw-email layout.
func buildMIME(from string, to []string, msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	buf.WriteString(msg.HTMLBody)
	buf.WriteString("\r\n")

	for _, attachment := range msg.Attachments {
		fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", attachment.ContentType)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", attachment.Filename)
		buf.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(attachment.Data)))
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes()
}

func wrapBase64(encoded string) string {
	const lineLength = 76
	var out strings.Builder
	for len(encoded) > lineLength {
		out.WriteString(encoded[:lineLength])
		out.WriteString("\r\n")
		encoded = encoded[lineLength:]
	}
	out.WriteString(encoded)
	return out.String()
}
