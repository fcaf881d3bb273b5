package auth

import (
	"context"
	"strings"

	"github.com/devstudio/site-api/internal/domain"
)

// VerifyEmail consumes a verification token and marks its account verified.
// The token is checked and cleared in the same write, so it is consumed once.
func (s *Service) VerifyEmail(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrVerifyTokenNotFound()
	}

	u, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.User{}, domain.ErrVerifyTokenNotFound()
		}
		return domain.User{}, err
	}

	// a concurrent request may have consumed the token since the lookup
	if err := s.users.ConsumeVerificationToken(ctx, u.ID, token); err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.User{}, domain.ErrVerifyTokenNotFound()
		}
		return domain.User{}, err
	}

	u.Verified = true
	u.VerificationToken = nil

	s.audit(ctx, "auth.verify_email", map[string]string{
		"user_id": u.ID,
	})
	return u, nil
}
