package domain

import "strings"

// OAuthProvider names an identity provider the frontend may delegate sign-in to.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
	OAuthProviderGitHub OAuthProvider = "github"
)

// ParseProvider matches p case-insensitively against the known providers.
func ParseProvider(p string) (OAuthProvider, bool) {
	switch v := OAuthProvider(strings.ToLower(strings.TrimSpace(p))); v {
	case OAuthProviderGoogle, OAuthProviderGitHub:
		return v, true
	}
	return "", false
}

func IsValidProvider(p string) bool {
	_, ok := ParseProvider(p)
	return ok
}
