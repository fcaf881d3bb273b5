package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

type AdRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewAdRepo(db *sql.DB) *AdRepo {
	return &AdRepo{db: db, now: time.Now}
}

const adColumns = `id, title, description, cta, image_url, tagline, active, metadata, created_at, updated_at`

func scanAd(s rowScanner) (domain.Ad, error) {
	var (
		a    domain.Ad
		meta []byte
	)
	if err := s.Scan(&a.ID, &a.Title, &a.Description, &a.CTA, &a.ImageURL, &a.Tagline, &a.Active, &meta, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Ad{}, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.Metadata); err != nil {
			return domain.Ad{}, err
		}
	}
	return a, nil
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	return json.Marshal(m)
}

func (r *AdRepo) Create(ctx context.Context, a domain.Ad) (domain.Ad, error) {
	if a.ID == "" {
		return domain.Ad{}, domain.ErrMissingField("id")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	a.UpdatedAt = a.CreatedAt

	meta, err := encodeMetadata(a.Metadata)
	if err != nil {
		return domain.Ad{}, domain.ErrInternal(err)
	}

	q := `
INSERT INTO ads (id, title, description, cta, image_url, tagline, active, metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + adColumns + `;`

	out, err := scanAd(r.db.QueryRowContext(ctx, q,
		a.ID, a.Title, a.Description, a.CTA, a.ImageURL, a.Tagline, a.Active, meta, a.CreatedAt, a.UpdatedAt,
	))
	if err != nil {
		return domain.Ad{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *AdRepo) List(ctx context.Context, activeOnly bool) ([]domain.Ad, error) {
	q := `SELECT ` + adColumns + ` FROM ads`
	if activeOnly {
		q += ` WHERE active = TRUE`
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var out []domain.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *AdRepo) GetByID(ctx context.Context, id string) (domain.Ad, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Ad{}, domain.ErrAdNotFound()
	}
	a, err := scanAd(r.db.QueryRowContext(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1;`, id))
	if err != nil {
		if isNoRows(err) {
			return domain.Ad{}, domain.ErrAdNotFound()
		}
		return domain.Ad{}, domain.ErrDBUnavailable(err)
	}
	return a, nil
}

func (r *AdRepo) Update(ctx context.Context, a domain.Ad) (domain.Ad, error) {
	meta, err := encodeMetadata(a.Metadata)
	if err != nil {
		return domain.Ad{}, domain.ErrInternal(err)
	}
	a.UpdatedAt = r.now().UTC()

	q := `
UPDATE ads
SET title = $2, description = $3, cta = $4, image_url = $5, tagline = $6, active = $7, metadata = $8, updated_at = $9
WHERE id = $1
RETURNING ` + adColumns + `;`

	out, err := scanAd(r.db.QueryRowContext(ctx, q,
		a.ID, a.Title, a.Description, a.CTA, a.ImageURL, a.Tagline, a.Active, meta, a.UpdatedAt,
	))
	if err != nil {
		if isNoRows(err) {
			return domain.Ad{}, domain.ErrAdNotFound()
		}
		return domain.Ad{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *AdRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM ads;`).Scan(&n); err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	return n, nil
}
