package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/devstudio/site-api/internal/domain"
)

type OAuthInput struct {
	Provider    string
	Email       string
	FirstName   string
	LastName    string
	AccessToken string // only read when an IdentityVerifier is configured
}

// OAuthLogin signs a user in from a federated identity.
//
// Without an IdentityVerifier the asserted email is trusted as-is. New
// accounts are created verified with an unusable random password and no
// verification token; existing unverified accounts are flipped to verified.
func (s *Service) OAuthLogin(ctx context.Context, in OAuthInput) (AuthResult, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if !domain.IsValidProvider(provider) {
		return AuthResult{}, domain.ErrUnsupportedProvider(provider)
	}

	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return AuthResult{}, domain.ErrMissingFields("Email is required for OAuth sign-up", "email")
	}

	if s.verifier != nil {
		if err := s.confirmIdentity(ctx, provider, email, in.AccessToken); err != nil {
			return AuthResult{}, err
		}
	}

	u, err := s.users.GetByEmail(ctx, email)
	isNew := false
	switch {
	case err == nil:
		if u, err = s.ensureVerified(ctx, u); err != nil {
			return AuthResult{}, err
		}
	case domain.KindOf(err) == domain.KindNotFound:
		u, isNew, err = s.createOAuthUser(ctx, in, email)
		if err != nil {
			return AuthResult{}, err
		}
	default:
		return AuthResult{}, err
	}

	res, err := s.issueToken(u)
	if err != nil {
		return AuthResult{}, err
	}

	action := "auth.oauth_login"
	if isNew {
		action = "auth.oauth_register"
	}
	s.audit(ctx, action, map[string]string{
		"user_id":  u.ID,
		"provider": provider,
		"email":    u.Email,
	})
	return res, nil
}

func (s *Service) confirmIdentity(ctx context.Context, provider, email, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return domain.ErrMissingField("accessToken")
	}
	got, err := s.verifier.VerifiedEmail(ctx, provider, accessToken)
	if err != nil {
		return err
	}
	if domain.NormalizeEmail(got) != email {
		return domain.ErrOAuthIdentityMismatch(provider)
	}
	return nil
}

func (s *Service) ensureVerified(ctx context.Context, u domain.User) (domain.User, error) {
	if u.Verified {
		return u, nil
	}
	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return domain.User{}, err
	}
	u.Verified = true
	u.VerificationToken = nil
	return u, nil
}

// createOAuthUser creates a verified account from provider info and reports
// whether it did. A concurrent signup can win the unique email; the account
// it made is then re-read and verified like any existing one.
func (s *Service) createOAuthUser(ctx context.Context, in OAuthInput, email string) (domain.User, bool, error) {
	secret, err := s.randHex(oauthSecretBytes)
	if err != nil {
		return domain.User{}, false, domain.ErrRandomFailed(err)
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return domain.User{}, false, domain.ErrHashFailed(err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Verified:     true,
		Role:         string(s.admins.RoleFor(email)),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if domain.Is(err, "email_already_exists") {
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return domain.User{}, false, err
		}
		existing, err = s.ensureVerified(ctx, existing)
		return existing, false, err
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return created, true, nil
}
