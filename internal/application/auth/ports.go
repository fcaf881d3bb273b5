package auth

import (
	"context"
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

/*
UserRepo
--------
Persistence port for accounts (the credential store).
Only describes WHAT the auth service needs, not HOW it's stored.
Create must fail with domain.ErrEmailAlreadyExists when the canonical
email is taken; the check belongs to the storage layer.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// MarkVerified sets verified=true and clears any verification token.
	MarkVerified(ctx context.Context, userID string) error

	// ConsumeVerificationToken verifies the account only while it still holds
	// token, in one write. domain.ErrVerifyTokenNotFound when it does not.
	ConsumeVerificationToken(ctx context.Context, userID, token string) error
}

/*
PasswordHasher
--------------
Abstracts argon2id / bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenSigner
-----------
Issues and verifies session tokens (JWT).
Used by service + auth middleware.
*/
type TokenClaims struct {
	UserID    string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenSigner interface {
	SignAccessToken(c TokenClaims, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
}

/*
IdentityVerifier
----------------
Optional hardening for the OAuth bridge: resolves a provider access token
to the email the provider vouches for.
*/
type IdentityVerifier interface {
	VerifiedEmail(ctx context.Context, provider, accessToken string) (string, error)
}
