package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/domain"
)

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Signup creates an unverified account and mails its verification link.
// A mail failure does not fail the signup.
func (s *Service) Signup(ctx context.Context, in SignupInput) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return domain.User{}, domain.ErrMissingFields("Email and password are required", "email", "password")
	}

	if v := domain.EvaluatePassword(in.Password); !v.Acceptable {
		return domain.User{}, domain.ErrWeakPassword(v.Reason)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, domain.ErrHashFailed(err)
	}

	token, err := s.randHex(verificationTokenBytes)
	if err != nil {
		return domain.User{}, domain.ErrRandomFailed(err)
	}

	now := s.now().UTC()
	u := domain.User{
		ID:                uuid.NewString(),
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Email:             email,
		PasswordHash:      hash,
		Verified:          false,
		VerificationToken: &token,
		Role:              string(s.admins.RoleFor(email)),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return domain.User{}, err
	}

	s.audit(ctx, "auth.signup", map[string]string{
		"user_id": created.ID,
		"email":   created.Email,
		"role":    created.Role,
	})

	s.dispatch(ctx, mail.VerificationEmail(
		created.Email,
		created.FirstName,
		mail.VerificationURL(s.frontendURL, token),
	))

	return created, nil
}
