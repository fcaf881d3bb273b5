package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

type ContactRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db, now: time.Now}
}

const contactColumns = `id, name, email, phone, message, handled, created_at, updated_at`

func scanContact(s rowScanner) (domain.ContactMessage, error) {
	var m domain.ContactMessage
	err := s.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Message, &m.Handled, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *ContactRepo) Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	if m.ID == "" {
		return domain.ContactMessage{}, domain.ErrMissingField("id")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.now().UTC()
	}
	m.UpdatedAt = m.CreatedAt

	q := `
INSERT INTO contact_messages (id, name, email, phone, message, handled, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + contactColumns + `;`

	out, err := scanContact(r.db.QueryRowContext(ctx, q,
		m.ID, m.Name, m.Email, m.Phone, m.Message, m.Handled, m.CreatedAt, m.UpdatedAt,
	))
	if err != nil {
		return domain.ContactMessage{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *ContactRepo) List(ctx context.Context) ([]domain.ContactMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contact_messages ORDER BY created_at DESC;`)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var out []domain.ContactMessage
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *ContactRepo) MarkHandled(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrMissingField("messageId")
	}

	const q = `UPDATE contact_messages SET handled = TRUE, updated_at = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, r.now().UTC())
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrContactMessageNotFound()
	}
	return nil
}
