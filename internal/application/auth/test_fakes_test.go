package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/domain"
	"github.com/devstudio/site-api/internal/infrastructure/memory"
)

type auditEntry struct {
	action string
	fields map[string]string
}

// stubRepo is the in-memory credential store with per-method failures
// injected through fail.
type stubRepo struct {
	*memory.UserRepo

	mu       sync.Mutex
	fail     map[string]error
	verified []string

	// beforeCreate runs ahead of every Create, e.g. to land a competing insert.
	beforeCreate func()
	// afterTokenLookup runs between the token lookup and the caller's next step.
	afterTokenLookup func()
}

func newStubRepo() *stubRepo {
	return &stubRepo{UserRepo: memory.NewUserRepo(), fail: map[string]error{}}
}

func (r *stubRepo) failOn(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[method] = err
}

func (r *stubRepo) injected(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fail[method]
}

func (r *stubRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := r.injected("GetByEmail"); err != nil {
		return domain.User{}, err
	}
	return r.UserRepo.GetByEmail(ctx, email)
}

func (r *stubRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	if err := r.injected("GetByID"); err != nil {
		return domain.User{}, err
	}
	return r.UserRepo.GetByID(ctx, id)
}

func (r *stubRepo) GetByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	if err := r.injected("GetByVerificationToken"); err != nil {
		return domain.User{}, err
	}
	u, err := r.UserRepo.GetByVerificationToken(ctx, token)
	if r.afterTokenLookup != nil {
		r.afterTokenLookup()
	}
	return u, err
}

func (r *stubRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if err := r.injected("Create"); err != nil {
		return domain.User{}, err
	}
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	return r.UserRepo.Create(ctx, u)
}

func (r *stubRepo) MarkVerified(ctx context.Context, userID string) error {
	if err := r.injected("MarkVerified"); err != nil {
		return err
	}
	if err := r.UserRepo.MarkVerified(ctx, userID); err != nil {
		return err
	}
	r.mu.Lock()
	r.verified = append(r.verified, userID)
	r.mu.Unlock()
	return nil
}

func (r *stubRepo) ConsumeVerificationToken(ctx context.Context, userID, token string) error {
	if err := r.injected("ConsumeVerificationToken"); err != nil {
		return err
	}
	return r.UserRepo.ConsumeVerificationToken(ctx, userID, token)
}

// put seeds a stored account.
func (r *stubRepo) put(u domain.User) {
	if _, err := r.UserRepo.Create(context.Background(), u); err != nil {
		panic(err)
	}
}

// stored reads straight from the store, bypassing injected failures.
func (r *stubRepo) stored(id string) (domain.User, bool) {
	u, err := r.UserRepo.GetByID(context.Background(), id)
	return u, err == nil
}

func (r *stubRepo) count() int {
	all, _ := r.UserRepo.List(context.Background(), 0)
	return len(all)
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error

	mu       sync.Mutex
	compares int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()

	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

type fakeSigner struct {
	signFn func(c TokenClaims, ttl time.Duration) (string, error)

	last    TokenClaims
	lastTTL time.Duration
}

func (s *fakeSigner) SignAccessToken(c TokenClaims, ttl time.Duration) (string, error) {
	s.last, s.lastTTL = c, ttl
	if s.signFn != nil {
		return s.signFn(c, ttl)
	}
	return fmt.Sprintf("jwt(%s,%s,%s)", c.UserID, c.Email, c.Role), nil
}

func (s *fakeSigner) VerifyAccessToken(token string) (TokenClaims, error) {
	return TokenClaims{}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []mail.Message
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type fakeVerifier struct {
	email string
	err   error
	calls int
}

func (v *fakeVerifier) VerifiedEmail(ctx context.Context, provider, accessToken string) (string, error) {
	v.calls++
	return v.email, v.err
}

type testDeps struct {
	users  *stubRepo
	hasher *fakeHasher
	signer *fakeSigner
	mailer *fakeMailer
	audits *[]auditEntry
}

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newSvcForTest(t *testing.T) (*Service, testDeps) {
	t.Helper()

	d := testDeps{
		users:  newStubRepo(),
		hasher: &fakeHasher{},
		signer: &fakeSigner{},
		mailer: &fakeMailer{},
		audits: &[]auditEntry{},
	}

	cfg := Config{
		AdminEmails: domain.ParseAdminAllowList("boss@studio.dev"),
		FrontendURL: "https://fe.test",
	}

	var mu sync.Mutex
	svc := NewService(d.users, d.hasher, d.signer, d.mailer, cfg).
		WithAudit(func(_ context.Context, action string, fields map[string]string) {
			mu.Lock()
			defer mu.Unlock()
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			*d.audits = append(*d.audits, auditEntry{action: action, fields: cp})
		})
	svc.now = func() time.Time { return testNow }

	n := 0
	svc.randHex = func(size int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("tok%d-%d", size, n), nil
	}

	if svc == nil {
		t.Fatalf("svc is nil")
	}
	return svc, d
}

func domainCode(err error) string {
	if err == nil {
		return ""
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "non_domain_error"
}

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func lastAudit(audits *[]auditEntry) (auditEntry, bool) {
	if audits == nil || len(*audits) == 0 {
		return auditEntry{}, false
	}
	return (*audits)[len(*audits)-1], true
}

func requireAuditAction(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	e, ok := lastAudit(audits)
	if !ok {
		t.Fatalf("expected audit entry, got none")
	}
	if e.action != wantAction {
		t.Fatalf("expected audit action %q, got %q", wantAction, e.action)
	}
	return e
}

func requireAuditField(t *testing.T, e auditEntry, k, want string) {
	t.Helper()
	got := strings.TrimSpace(e.fields[k])
	if got != want {
		t.Fatalf("expected audit field %q=%q, got %q (all=%v)", k, want, got, e.fields)
	}
}
