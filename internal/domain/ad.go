package domain

import "time"

// Ad is a landing page advertisement card.
type Ad struct {
	ID          string
	Title       string
	Description string
	CTA         string
	ImageURL    string
	Tagline     string
	Active      bool
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AdPatch carries the fields an admin update may change. Nil means untouched.
type AdPatch struct {
	Title       *string
	Description *string
	CTA         *string
	ImageURL    *string
	Tagline     *string
	Active      *bool
}

// Apply writes every non-nil field of p onto a.
func (p AdPatch) Apply(a *Ad) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.CTA != nil {
		a.CTA = *p.CTA
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}
	if p.Tagline != nil {
		a.Tagline = *p.Tagline
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
}

// DefaultAds are inserted when the ads table is empty.
func DefaultAds() []Ad {
	return []Ad{
		{
			Title:       "Build Digital Homes That Convert",
			Description: "From concept to launch, we craft immersive experiences for bold founders.",
			CTA:         "See success stories",
			Tagline:     "Growth-first approach",
			ImageURL:    "https://images.unsplash.com/photo-1521737604893-d14cc237f11d?auto=format&fit=crop&w=900&q=80",
			Active:      true,
		},
		{
			Title:       "Design Systems That Scale",
			Description: "Crafted responsive UI, thoughtful interactions, and a design language ready for teams.",
			CTA:         "Review our systems",
			Tagline:     "Design + engineering",
			ImageURL:    "https://images.unsplash.com/photo-1503387762-592deb58ef4e?auto=format&fit=crop&w=900&q=80",
			Active:      true,
		},
		{
			Title:       "Future-Proofed Tech Stack",
			Description: "Modern architecture with automated pipelines for rapid iterations.",
			CTA:         "Meet the team",
			Tagline:     "Reliable delivery",
			ImageURL:    "https://images.unsplash.com/photo-1488590528505-98d2b5aba04b?auto=format&fit=crop&w=900&q=80",
			Active:      true,
		},
	}
}
