package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

const (
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultGitHubAPIURL      = "https://api.github.com"
	maxBodyBytes             = 1 << 20
)

// Verifier resolves a provider access token to the email the provider vouches for.
// It is only wired when OAUTH_VERIFY_TOKENS is on.
type Verifier struct {
	googleUserInfoURL string
	githubAPIURL      string
	httpClient        *http.Client
}

type Option func(*Verifier)

// WithEndpoints points the verifier at alternative provider hosts.
func WithEndpoints(googleUserInfo, githubAPI string) Option {
	return func(v *Verifier) {
		if googleUserInfo != "" {
			v.googleUserInfoURL = googleUserInfo
		}
		if githubAPI != "" {
			v.githubAPIURL = strings.TrimRight(githubAPI, "/")
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) {
		if c != nil {
			v.httpClient = c
		}
	}
}

func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		googleUserInfoURL: defaultGoogleUserInfoURL,
		githubAPIURL:      defaultGitHubAPIURL,
		httpClient:        &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

func (v *Verifier) VerifiedEmail(ctx context.Context, provider, accessToken string) (string, error) {
	p, _ := domain.ParseProvider(provider)
	switch p {
	case domain.OAuthProviderGoogle:
		return v.googleEmail(ctx, accessToken)
	case domain.OAuthProviderGitHub:
		return v.githubEmail(ctx, accessToken)
	default:
		return "", domain.ErrUnsupportedProvider(provider)
	}
}

// googleUserInfo is the subset of Google's userinfo response we read.
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (v *Verifier) googleEmail(ctx context.Context, accessToken string) (string, error) {
	var info googleUserInfo
	if err := v.getJSON(ctx, v.googleUserInfoURL, accessToken, "google", &info); err != nil {
		return "", err
	}
	if info.Sub == "" || info.Email == "" || !info.EmailVerified {
		return "", domain.ErrOAuthIdentityMismatch("google")
	}
	return info.Email, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// githubEmail returns the primary verified address from /user/emails.
func (v *Verifier) githubEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []githubEmail
	if err := v.getJSON(ctx, v.githubAPIURL+"/user/emails", accessToken, "github", &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified && e.Email != "" {
			return e.Email, nil
		}
	}
	return "", domain.ErrOAuthIdentityMismatch("github")
}

func (v *Verifier) getJSON(ctx context.Context, url, accessToken, provider string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ErrInternal(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return domain.ErrOAuthProviderUnavailable(fmt.Errorf("%s request failed: %w", provider, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.ErrOAuthProviderUnavailable(fmt.Errorf("failed to read %s response: %w", provider, err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrOAuthIdentityMismatch(provider)
	case resp.StatusCode != http.StatusOK:
		return domain.ErrOAuthProviderUnavailable(fmt.Errorf("%s returned %d", provider, resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.ErrOAuthProviderUnavailable(fmt.Errorf("failed to parse %s response: %w", provider, err))
	}
	return nil
}
