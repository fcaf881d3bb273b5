// Package mail holds the outgoing email contract shared by the auth and site
// services, plus the message templates they send.
package mail

import (
	"context"
	"errors"
)

// Message is one outgoing email. HTML may be empty.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`

	// Kind tags the message for logs and queue routing keys.
	Kind string `json:"kind"`
}

const (
	KindVerification = "verification"
	KindAdminReply   = "admin_reply"
)

// Mailer delivers a Message. Implementations: SMTP, log-only, RabbitMQ queue.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Validate reports whether m can be handed to a transport.
func (m Message) Validate() error {
	if m.To == "" {
		return errors.New("mail: empty recipient")
	}
	if m.Subject == "" {
		return errors.New("mail: empty subject")
	}
	return nil
}
