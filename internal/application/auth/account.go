package auth

import (
	"context"
	"strings"

	"github.com/devstudio/site-api/internal/domain"
)

// GetByID resolves the account a session token names. The auth middleware
// calls it on every authenticated request, so a deleted account stops
// authenticating even while its token is still within its lifetime.
func (s *Service) GetByID(ctx context.Context, userID string) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return s.users.GetByID(ctx, userID)
}
