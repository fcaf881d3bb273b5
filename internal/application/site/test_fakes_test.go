package site

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/domain"
)

type fakeContacts struct {
	mu      sync.Mutex
	items   []domain.ContactMessage
	err     error
	handled []string
}

func (f *fakeContacts) Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.ContactMessage{}, f.err
	}
	f.items = append(f.items, m)
	return m, nil
}

func (f *fakeContacts) List(ctx context.Context) ([]domain.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.ContactMessage(nil), f.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, f.err
}

func (f *fakeContacts) MarkHandled(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Handled = true
			f.handled = append(f.handled, id)
			return nil
		}
	}
	return domain.ErrContactMessageNotFound()
}

type fakeAds struct {
	mu    sync.Mutex
	items map[string]domain.Ad
	err   error
}

func newFakeAds() *fakeAds { return &fakeAds{items: map[string]domain.Ad{}} }

func (f *fakeAds) Create(ctx context.Context, a domain.Ad) (domain.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Ad{}, f.err
	}
	f.items[a.ID] = a
	return a, nil
}

func (f *fakeAds) List(ctx context.Context, activeOnly bool) ([]domain.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ad
	for _, a := range f.items {
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAds) GetByID(ctx context.Context, id string) (domain.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return domain.Ad{}, domain.ErrAdNotFound()
	}
	return a, nil
}

func (f *fakeAds) Update(ctx context.Context, a domain.Ad) (domain.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[a.ID]; !ok {
		return domain.Ad{}, domain.ErrAdNotFound()
	}
	f.items[a.ID] = a
	return a, nil
}

func (f *fakeAds) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), f.err
}

type fakeUsers struct {
	users     []domain.User
	lastLimit int
}

func (f *fakeUsers) List(ctx context.Context, limit int) ([]domain.User, error) {
	f.lastLimit = limit
	if len(f.users) > limit {
		return f.users[:limit], nil
	}
	return f.users, nil
}

type fakeMailer struct {
	err  error
	sent []mail.Message
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type siteDeps struct {
	contacts *fakeContacts
	ads      *fakeAds
	users    *fakeUsers
	mailer   *fakeMailer
	audits   []string
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSiteForTest(t *testing.T) (*Service, *siteDeps) {
	t.Helper()
	d := &siteDeps{
		contacts: &fakeContacts{},
		ads:      newFakeAds(),
		users:    &fakeUsers{},
		mailer:   &fakeMailer{},
	}
	svc := NewService(d.contacts, d.ads, d.users, d.mailer).
		WithAudit(func(_ context.Context, action string, _ map[string]string) { d.audits = append(d.audits, action) })
	svc.now = func() time.Time { return testNow }
	return svc, d
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if !domain.Is(err, code) {
		t.Fatalf("expected code %q, got %v", code, err)
	}
}
