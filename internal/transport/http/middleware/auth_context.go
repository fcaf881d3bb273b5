package middleware

import (
	"context"

	"github.com/devstudio/site-api/internal/domain"
)

type ctxKey string

const ctxUser ctxKey = "auth_user"

// AuthUser is the identity Auth attaches to the request.
type AuthUser struct {
	ID    string
	Email string
	Role  string
	User  domain.User
}

func WithUser(ctx context.Context, u AuthUser) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

func UserFromContext(ctx context.Context) (AuthUser, bool) {
	u, ok := ctx.Value(ctxUser).(AuthUser)
	return u, ok && u.ID != ""
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	return u.ID, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	return u.Role, ok && u.Role != ""
}
