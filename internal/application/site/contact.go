package site

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/devstudio/site-api/internal/domain"
)

type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// SubmitContact stores a visitor message. Name, email and message are required after trimming.
func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (domain.ContactMessage, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	body := strings.TrimSpace(in.Message)
	if name == "" || email == "" || body == "" {
		return domain.ContactMessage{}, domain.ErrMissingFields("Name, email, and message are required", "name", "email", "message")
	}

	now := s.now().UTC()
	saved, err := s.contacts.Create(ctx, domain.ContactMessage{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Message:   body,
		Handled:   false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.ContactMessage{}, err
	}

	s.audit(ctx, "contact.submitted", map[string]string{
		"message_id": saved.ID,
		"email":      saved.Email,
	})
	return saved, nil
}

func (s *Service) ListMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	return s.contacts.List(ctx)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx, AdminUserListLimit)
}
