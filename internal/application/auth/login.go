package auth

import (
	"context"

	"github.com/devstudio/site-api/internal/domain"
)

// Login authenticates a user and issues a session token.
// IMPORTANT: must not leak whether the email exists (avoid user enumeration).
// Unverified accounts with the right password get ErrEmailNotVerified (403).
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, domain.ErrMissingFields("Email and password are required", "email", "password")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			return AuthResult{}, err
		}
		s.compareDummy(password)
		s.loginFailed(ctx, email, "unknown_email")
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		s.loginFailed(ctx, email, "bad_password")
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	if !u.Verified {
		s.loginFailed(ctx, email, "unverified")
		return AuthResult{}, domain.ErrEmailNotVerified()
	}

	res, err := s.issueToken(u)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit(ctx, "auth.login", map[string]string{
		"user_id": u.ID,
		"role":    u.Role,
	})
	return res, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) {
	s.audit(ctx, "auth.login_failed", map[string]string{
		"email":  email,
		"reason": reason,
	})
}
