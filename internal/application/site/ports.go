package site

import (
	"context"

	"github.com/devstudio/site-api/internal/domain"
)

type ContactRepo interface {
	Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error)
	// List returns every message, newest first.
	List(ctx context.Context) ([]domain.ContactMessage, error)
	MarkHandled(ctx context.Context, id string) error
}

type AdRepo interface {
	Create(ctx context.Context, a domain.Ad) (domain.Ad, error)
	// List returns ads newest first; activeOnly filters inactive ones out.
	List(ctx context.Context, activeOnly bool) ([]domain.Ad, error)
	GetByID(ctx context.Context, id string) (domain.Ad, error)
	Update(ctx context.Context, a domain.Ad) (domain.Ad, error)
	Count(ctx context.Context) (int, error)
}

// UserLister is the read-only slice of the account store the admin screens need.
type UserLister interface {
	List(ctx context.Context, limit int) ([]domain.User, error)
}
