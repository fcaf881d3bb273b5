package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

type ContactRepo struct {
	mu   sync.RWMutex
	byID map[string]domain.ContactMessage
	now  func() time.Time
}

func NewContactRepo() *ContactRepo {
	return &ContactRepo{byID: make(map[string]domain.ContactMessage), now: time.Now}
}

func (r *ContactRepo) Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	if m.ID == "" {
		return domain.ContactMessage{}, domain.ErrMissingField("id")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.now().UTC()
	}
	m.UpdatedAt = m.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	return m, nil
}

func (r *ContactRepo) List(ctx context.Context) ([]domain.ContactMessage, error) {
	r.mu.RLock()
	out := make([]domain.ContactMessage, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ContactRepo) MarkHandled(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return domain.ErrContactMessageNotFound()
	}
	m.Handled = true
	m.UpdatedAt = r.now().UTC()
	r.byID[id] = m
	return nil
}

type AdRepo struct {
	mu   sync.RWMutex
	byID map[string]domain.Ad
	now  func() time.Time
}

func NewAdRepo() *AdRepo {
	return &AdRepo{byID: make(map[string]domain.Ad), now: time.Now}
}

func cloneAd(a domain.Ad) domain.Ad {
	a.Metadata = maps.Clone(a.Metadata)
	return a
}

func (r *AdRepo) Create(ctx context.Context, a domain.Ad) (domain.Ad, error) {
	if a.ID == "" {
		return domain.Ad{}, domain.ErrMissingField("id")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	a.UpdatedAt = a.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID] = cloneAd(a)
	return cloneAd(a), nil
}

func (r *AdRepo) List(ctx context.Context, activeOnly bool) ([]domain.Ad, error) {
	r.mu.RLock()
	out := make([]domain.Ad, 0, len(r.byID))
	for _, a := range r.byID {
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, cloneAd(a))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *AdRepo) GetByID(ctx context.Context, id string) (domain.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Ad{}, domain.ErrAdNotFound()
	}
	return cloneAd(a), nil
}

func (r *AdRepo) Update(ctx context.Context, a domain.Ad) (domain.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[a.ID]
	if !ok {
		return domain.Ad{}, domain.ErrAdNotFound()
	}
	a.CreatedAt = prev.CreatedAt
	a.UpdatedAt = r.now().UTC()
	r.byID[a.ID] = cloneAd(a)
	return cloneAd(a), nil
}

func (r *AdRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}
