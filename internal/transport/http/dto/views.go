package dto

import (
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

// UserView is the sanitized account. Password hash and verification token never appear here.
type UserView struct {
	ID             string                `json:"id"`
	FirstName      string                `json:"firstName"`
	LastName       string                `json:"lastName"`
	Email          string                `json:"email"`
	Verified       bool                  `json:"verified"`
	Role           string                `json:"role"`
	ResumeFiles    []domain.UploadedFile `json:"resumeFiles"`
	PortfolioFiles []domain.UploadedFile `json:"portfolioFiles"`
	ProjectFiles   []domain.UploadedFile `json:"projectFiles"`
	PortfolioLinks []string              `json:"portfolioLinks"`
	ContactPhone   string                `json:"contactPhone"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Verified:       u.Verified,
		Role:           u.Role,
		ResumeFiles:    nonNil(u.ResumeFiles),
		PortfolioFiles: nonNil(u.PortfolioFiles),
		ProjectFiles:   nonNil(u.ProjectFiles),
		PortfolioLinks: nonNil(u.PortfolioLinks),
		ContactPhone:   u.ContactPhone,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func NewUserViews(us []domain.User) []UserView {
	out := make([]UserView, 0, len(us))
	for _, u := range us {
		out = append(out, NewUserView(u))
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type MessageData struct {
	Message string `json:"message"`
}

// AuthData is returned by login and the OAuth bridge.
type AuthData struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type UserData struct {
	User UserView `json:"user"`
}

// UploadData is returned by the profile upload.
type UploadData struct {
	Message string   `json:"message"`
	User    UserView `json:"user"`
}

type ContactView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Handled   bool      `json:"handled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewContactView(m domain.ContactMessage) ContactView {
	return ContactView{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Message:   m.Message,
		Handled:   m.Handled,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func NewContactViews(ms []domain.ContactMessage) []ContactView {
	out := make([]ContactView, 0, len(ms))
	for _, m := range ms {
		out = append(out, NewContactView(m))
	}
	return out
}

// ContactData is returned by POST /api/contact.
type ContactData struct {
	Message string      `json:"message"`
	Contact ContactView `json:"contact"`
}

type AdView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CTA         string         `json:"cta"`
	ImageURL    string         `json:"imageUrl"`
	Tagline     string         `json:"tagline"`
	Active      bool           `json:"active"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func NewAdView(a domain.Ad) AdView {
	return AdView{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		CTA:         a.CTA,
		ImageURL:    a.ImageURL,
		Tagline:     a.Tagline,
		Active:      a.Active,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func NewAdViews(as []domain.Ad) []AdView {
	out := make([]AdView, 0, len(as))
	for _, a := range as {
		out = append(out, NewAdView(a))
	}
	return out
}

type StatusData struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
