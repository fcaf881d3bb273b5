package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devstudio/site-api/internal/domain"
)

const pgUniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, password_hash, verified, verification_token, role, contact_phone,
resume_files, portfolio_files, project_files, portfolio_links, created_at, updated_at`

type userRow struct {
	ID                string
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	Verified          bool
	VerificationToken sql.NullString
	Role              string
	ContactPhone      string
	ResumeFiles       []byte
	PortfolioFiles    []byte
	ProjectFiles      []byte
	PortfolioLinks    []byte
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (userRow, error) {
	var ur userRow
	err := s.Scan(
		&ur.ID,
		&ur.FirstName,
		&ur.LastName,
		&ur.Email,
		&ur.PasswordHash,
		&ur.Verified,
		&ur.VerificationToken,
		&ur.Role,
		&ur.ContactPhone,
		&ur.ResumeFiles,
		&ur.PortfolioFiles,
		&ur.ProjectFiles,
		&ur.PortfolioLinks,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func (ur userRow) toDomain() (domain.User, error) {
	u := domain.User{
		ID:           ur.ID,
		FirstName:    ur.FirstName,
		LastName:     ur.LastName,
		Email:        ur.Email,
		PasswordHash: ur.PasswordHash,
		Verified:     ur.Verified,
		Role:         ur.Role,
		ContactPhone: ur.ContactPhone,
		CreatedAt:    ur.CreatedAt,
		UpdatedAt:    ur.UpdatedAt,
	}
	if ur.VerificationToken.Valid {
		tok := ur.VerificationToken.String
		u.VerificationToken = &tok
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{ur.ResumeFiles, &u.ResumeFiles},
		{ur.PortfolioFiles, &u.PortfolioFiles},
		{ur.ProjectFiles, &u.ProjectFiles},
		{ur.PortfolioLinks, &u.PortfolioLinks},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return domain.User{}, domain.ErrInternal(err)
		}
	}
	return u, nil
}

// jsonArray encodes v as a JSONB value, writing [] rather than null for empty slices.
func jsonArray[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

func nullableToken(tok *string) sql.NullString {
	if tok == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *tok, Valid: true}
}

func uniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
