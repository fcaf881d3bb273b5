package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/devstudio/site-api/internal/application/mail"
	"github.com/devstudio/site-api/internal/domain"
)

const (
	verificationTokenBytes = 24
	oauthSecretBytes       = 12
	mailDispatchTimeout    = 15 * time.Second
)

type Service struct {
	users    UserRepo
	hasher   PasswordHasher
	signer   TokenSigner
	mailer   mail.Mailer
	verifier IdentityVerifier // nil => delegated trust

	admins      domain.AdminAllowList
	frontendURL string
	sessionTTL  time.Duration
	asyncMail   bool

	now      func() time.Time
	randHex  func(n int) (string, error)
	audit    func(ctx context.Context, action string, fields map[string]string)
	lg       zerolog.Logger
	mailWG   sync.WaitGroup
	dummyMu  sync.Mutex
	dummyPwd string
}

type Config struct {
	AdminEmails domain.AdminAllowList
	FrontendURL string
	SessionTTL  time.Duration
	// AsyncMail sends verification emails after the response instead of inline.
	AsyncMail bool
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	signer TokenSigner,
	mailer mail.Mailer,
	cfg Config,
) *Service {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = domain.SessionTTL
	}
	admins := cfg.AdminEmails
	if admins == nil {
		admins = domain.AdminAllowList{}
	}
	return &Service{
		users:  users,
		hasher: hasher,
		signer: signer,
		mailer: mailer,

		admins:      admins,
		frontendURL: cfg.FrontendURL,
		sessionTTL:  ttl,
		asyncMail:   cfg.AsyncMail,

		now:     time.Now,
		randHex: randomHex,
		audit:   func(context.Context, string, map[string]string) {},
		lg:      zerolog.Nop(),
	}
}

// AuthResult is returned by login and the OAuth bridge.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

func (s *Service) WithAudit(fn func(ctx context.Context, action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithLogger(lg zerolog.Logger) *Service {
	s.lg = lg.With().Str("component", "auth_service").Logger()
	return s
}

// WithIdentityVerifier turns on provider token checks for OAuth logins.
func (s *Service) WithIdentityVerifier(v IdentityVerifier) *Service {
	s.verifier = v
	return s
}

// Wait blocks until background mail dispatches finish. Used on shutdown.
func (s *Service) Wait() { s.mailWG.Wait() }

// issueToken signs a session token for u.
func (s *Service) issueToken(u domain.User) (AuthResult, error) {
	now := s.now()
	claims := TokenClaims{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	tok, err := s.signer.SignAccessToken(claims, s.sessionTTL)
	if err != nil {
		return AuthResult{}, domain.ErrTokenSignFailed(err)
	}
	return AuthResult{Token: tok, ExpiresAt: claims.ExpiresAt, User: u}, nil
}

// dispatch hands m to the mailer. Failures are logged and never returned.
func (s *Service) dispatch(ctx context.Context, m mail.Message) {
	send := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, mailDispatchTimeout)
		defer cancel()
		if err := s.mailer.Send(ctx, m); err != nil {
			s.lg.Warn().Err(err).Str("kind", m.Kind).Msg("email delivery failed")
		}
	}

	if !s.asyncMail {
		send(ctx)
		return
	}
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		send(context.WithoutCancel(ctx))
	}()
}

// compareDummy burns one hash comparison so unknown emails cost the same as wrong passwords.
func (s *Service) compareDummy(password string) {
	s.dummyMu.Lock()
	if s.dummyPwd == "" {
		h, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			s.dummyMu.Unlock()
			return
		}
		s.dummyPwd = h
	}
	h := s.dummyPwd
	s.dummyMu.Unlock()
	_ = s.hasher.Compare(h, password)
}

// randomHex returns n random bytes, hex encoded.
func randomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
