package site

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/devstudio/site-api/internal/application/mail"
)

// AdminUserListLimit caps GET /api/admin/users.
const AdminUserListLimit = 100

// Service backs the public contact/ads endpoints and the admin dashboard.
type Service struct {
	contacts ContactRepo
	ads      AdRepo
	users    UserLister
	mailer   mail.Mailer

	now   func() time.Time
	audit func(ctx context.Context, action string, fields map[string]string)
	lg    zerolog.Logger
}

func NewService(contacts ContactRepo, ads AdRepo, users UserLister, mailer mail.Mailer) *Service {
	return &Service{
		contacts: contacts,
		ads:      ads,
		users:    users,
		mailer:   mailer,
		now:      time.Now,
		audit:    func(context.Context, string, map[string]string) {},
		lg:       zerolog.Nop(),
	}
}

func (s *Service) WithAudit(fn func(ctx context.Context, action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithLogger(lg zerolog.Logger) *Service {
	s.lg = lg.With().Str("component", "site_service").Logger()
	return s
}
