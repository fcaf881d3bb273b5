package site

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devstudio/site-api/internal/domain"
)

type AdInput struct {
	Title       string
	Description string
	CTA         string
	ImageURL    string
	Tagline     string
}

func (s *Service) ListActiveAds(ctx context.Context) ([]domain.Ad, error) {
	return s.ads.List(ctx, true)
}

func (s *Service) ListAds(ctx context.Context) ([]domain.Ad, error) {
	return s.ads.List(ctx, false)
}

// CreateAd stores a new active ad.
func (s *Service) CreateAd(ctx context.Context, in AdInput) (domain.Ad, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.CTA) == "" || strings.TrimSpace(in.ImageURL) == "" {
		return domain.Ad{}, domain.ErrMissingFields("Title, description, CTA, and image URL are required",
			"title", "description", "cta", "imageUrl")
	}

	now := s.now().UTC()
	ad, err := s.ads.Create(ctx, domain.Ad{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		CTA:         in.CTA,
		ImageURL:    in.ImageURL,
		Tagline:     in.Tagline,
		Active:      true,
		Metadata:    map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Ad{}, err
	}

	s.audit(ctx, "admin.ad_created", map[string]string{"ad_id": ad.ID})
	return ad, nil
}

// UpdateAd applies a partial update. Missing ads are ErrAdNotFound.
func (s *Service) UpdateAd(ctx context.Context, id string, patch domain.AdPatch) (domain.Ad, error) {
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		return domain.Ad{}, err
	}

	patch.Apply(&ad)
	ad.UpdatedAt = s.now().UTC()

	updated, err := s.ads.Update(ctx, ad)
	if err != nil {
		return domain.Ad{}, err
	}

	s.audit(ctx, "admin.ad_updated", map[string]string{"ad_id": updated.ID})
	return updated, nil
}

// SeedDefaultAds inserts the stock ads when none exist. Returns how many were inserted.
func (s *Service) SeedDefaultAds(ctx context.Context) (int, error) {
	n, err := s.ads.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	inserted := 0
	base := s.now().UTC()
	defaults := domain.DefaultAds()
	for i, ad := range defaults {
		ad.ID = uuid.NewString()
		ad.Metadata = map[string]any{}
		// keep the listed order when sorted newest first
		ad.CreatedAt = base.Add(-time.Duration(i) * time.Millisecond)
		ad.UpdatedAt = ad.CreatedAt
		if _, err := s.ads.Create(ctx, ad); err != nil {
			return inserted, err
		}
		inserted++
	}

	s.lg.Info().Int("count", inserted).Msg("seeded default ads")
	return inserted, nil
}
