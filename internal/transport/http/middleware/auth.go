package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/devstudio/site-api/internal/application/auth"
	"github.com/devstudio/site-api/internal/domain"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (auth.TokenClaims, error)
}

// UserResolver loads the account a token was issued for.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth verifies Authorization: Bearer <token>, resolves the account it names
// and injects it into the request context.
//
// A valid token for an account that no longer resolves is rejected with 401;
// store failures surface as 503 rather than being reported as bad tokens.
func Auth(verifier TokenVerifier, users UserResolver, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			claims, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				if !domain.Is(err, "token_expired") {
					err = domain.ErrTokenInvalid()
				}
				writeErr(w, r, err)
				return
			}
			if strings.TrimSpace(claims.UserID) == "" {
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				writeErr(w, r, resolveErr(err))
				return
			}

			ctx := WithUser(r.Context(), AuthUser{
				ID:    u.ID,
				Email: u.Email,
				Role:  u.Role,
				User:  u,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(h string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func resolveErr(err error) error {
	var de *domain.Error
	switch {
	case domain.KindOf(err) == domain.KindNotFound:
		return domain.ErrTokenInvalid()
	case errors.As(err, &de):
		return err
	default:
		return domain.ErrDBUnavailable(err)
	}
}
