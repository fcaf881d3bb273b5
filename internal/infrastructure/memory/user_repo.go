package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

// UserRepo is the in-process credential store used with STORE=memory and in tests.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string // email -> userID
	byToken map[string]string // verification token -> userID
	now     func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
		now:     time.Now,
	}
}

// clone detaches slices so callers cannot mutate stored state.
func clone(u domain.User) domain.User {
	u.ResumeFiles = slices.Clone(u.ResumeFiles)
	u.PortfolioFiles = slices.Clone(u.PortfolioFiles)
	u.ProjectFiles = slices.Clone(u.ProjectFiles)
	u.PortfolioLinks = slices.Clone(u.PortfolioLinks)
	if u.VerificationToken != nil {
		tok := *u.VerificationToken
		u.VerificationToken = &tok
	}
	return u
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return clone(u), nil
}

func (r *UserRepo) GetByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok || token == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return clone(r.byID[id]), nil
}

// Create checks and inserts under one lock, the in-process equivalent of a UNIQUE index.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = domain.NormalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.Role == "" {
		u.Role = string(domain.RoleUser)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}
	if u.VerificationToken != nil {
		if _, exists := r.byToken[*u.VerificationToken]; exists {
			return domain.User{}, domain.ErrInternal(nil)
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	u = clone(u)
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	if u.VerificationToken != nil {
		r.byToken[*u.VerificationToken] = u.ID
	}
	return clone(u), nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	if u.VerificationToken != nil {
		delete(r.byToken, *u.VerificationToken)
	}
	u.Verified = true
	u.VerificationToken = nil
	u.UpdatedAt = r.now().UTC()
	r.byID[userID] = u
	return nil
}

func (r *UserRepo) ConsumeVerificationToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok || token == "" || u.VerificationToken == nil || *u.VerificationToken != token {
		return domain.ErrVerifyTokenNotFound()
	}
	delete(r.byToken, token)
	u.Verified = true
	u.VerificationToken = nil
	u.UpdatedAt = r.now().UTC()
	r.byID[userID] = u
	return nil
}

func (r *UserRepo) List(ctx context.Context, limit int) ([]domain.User, error) {
	r.mu.RLock()
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, clone(u))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *UserRepo) AppendAttachments(ctx context.Context, userID string, patch domain.AttachmentsPatch) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u = clone(u)
	patch.Apply(&u)
	u.UpdatedAt = r.now().UTC()
	r.byID[userID] = u
	return clone(u), nil
}
