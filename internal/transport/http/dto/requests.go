package dto

import (
	"strings"

	"github.com/devstudio/site-api/internal/application/auth"
	"github.com/devstudio/site-api/internal/application/site"
	"github.com/devstudio/site-api/internal/domain"
)

// Required fields are enforced by the services, which own the client-facing
// messages; tags here only bound sizes and formats.

// -------- Auth --------

type SignupRequest struct {
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,max=254,email"`
	// capped so a request cannot make the KDF hash megabytes
	Password string `json:"password" validate:"max=1024"`
}

// Normalize trims the email so the format check sees the identity the
// service will store.
func (r *SignupRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *SignupRequest) Input() auth.SignupInput {
	return auth.SignupInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     strings.TrimSpace(r.Email),
		Password:  r.Password,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=1024"`
}

type OAuthRequest struct {
	Email       string `json:"email" validate:"max=254"`
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	AccessToken string `json:"accessToken" validate:"max=4096"`
}

func (r *OAuthRequest) Input(provider string) auth.OAuthInput {
	return auth.OAuthInput{
		Provider:    provider,
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		AccessToken: r.AccessToken,
	}
}

// -------- Site --------

type ContactRequest struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"max=254"`
	Phone   string `json:"phone" validate:"max=50"`
	Message string `json:"message" validate:"max=10000"`
}

func (r *ContactRequest) Input() site.ContactInput {
	return site.ContactInput{Name: r.Name, Email: r.Email, Phone: r.Phone, Message: r.Message}
}

type CreateAdRequest struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	CTA         string `json:"cta" validate:"max=200"`
	ImageURL    string `json:"imageUrl" validate:"max=2048"`
	Tagline     string `json:"tagline" validate:"max=200"`
}

func (r *CreateAdRequest) Input() site.AdInput {
	return site.AdInput{
		Title:       r.Title,
		Description: r.Description,
		CTA:         r.CTA,
		ImageURL:    r.ImageURL,
		Tagline:     r.Tagline,
	}
}

// UpdateAdRequest is a partial patch: absent fields stay untouched.
type UpdateAdRequest struct {
	Title       *string `json:"title" validate:"omitnil,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	CTA         *string `json:"cta" validate:"omitnil,max=200"`
	ImageURL    *string `json:"imageUrl" validate:"omitnil,max=2048"`
	Tagline     *string `json:"tagline" validate:"omitnil,max=200"`
	Active      *bool   `json:"active"`
}

func (r *UpdateAdRequest) Patch() domain.AdPatch {
	return domain.AdPatch{
		Title:       r.Title,
		Description: r.Description,
		CTA:         r.CTA,
		ImageURL:    r.ImageURL,
		Tagline:     r.Tagline,
		Active:      r.Active,
	}
}

type ReplyRequest struct {
	Email     string `json:"email" validate:"max=254"`
	Subject   string `json:"subject" validate:"max=300"`
	Message   string `json:"message" validate:"max=20000"`
	MessageID string `json:"messageId" validate:"max=64"`
}

func (r *ReplyRequest) Input() site.ReplyInput {
	return site.ReplyInput{Email: r.Email, Subject: r.Subject, Message: r.Message, MessageID: r.MessageID}
}
