package site

import (
	"context"
	"strings"

	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/domain"
)

type ReplyInput struct {
	Email     string
	Subject   string
	Message   string
	MessageID string // optional contact message to mark handled
}

// Reply emails a visitor from the studio. When MessageID is set the message is
// marked handled before sending; a failed send leaves it handled.
func (s *Service) Reply(ctx context.Context, adminID string, in ReplyInput) error {
	to := strings.TrimSpace(in.Email)
	body := strings.TrimSpace(in.Message)
	if to == "" || body == "" {
		return domain.ErrMissingFields("Recipient email and message content are required", "email", "message")
	}

	if id := strings.TrimSpace(in.MessageID); id != "" {
		if err := s.contacts.MarkHandled(ctx, id); err != nil {
			return err
		}
	}

	m := mail.AdminReplyEmail(to, in.Subject, body)
	if err := s.mailer.Send(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("admin_id", adminID).Msg("reply email failed")
		return domain.ErrMailDelivery(err)
	}

	s.audit(ctx, "admin.reply", map[string]string{
		"admin_id":   adminID,
		"email":      to,
		"message_id": in.MessageID,
	})
	return nil
}
