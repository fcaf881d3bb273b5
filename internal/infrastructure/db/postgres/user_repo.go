package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/devstudio/site-api/internal/domain"
)

type UserRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, now: time.Now}
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1;`
	ur, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return ur.toDomain()
}

// ---------- auth.UserRepo ----------

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	return r.getOne(ctx, "email = $1", email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	return r.getOne(ctx, "id = $1", id)
}

func (r *UserRepo) GetByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return r.getOne(ctx, "verification_token = $1", token)
}

// Create relies on the users_email_key constraint, so two racing signups for
// the same address resolve to one row and one email_already_exists.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = domain.NormalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}
	if u.Role == "" {
		u.Role = string(domain.RoleUser)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	resume, err := jsonArray(u.ResumeFiles)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}
	portfolio, err := jsonArray(u.PortfolioFiles)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}
	project, err := jsonArray(u.ProjectFiles)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}
	links, err := jsonArray(u.PortfolioLinks)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}

	q := `
INSERT INTO users (id, first_name, last_name, email, password_hash, verified, verification_token, role, contact_phone,
  resume_files, portfolio_files, project_files, portfolio_links, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING ` + userColumns + `;`

	ur, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Verified, nullableToken(u.VerificationToken),
		u.Role, u.ContactPhone, resume, portfolio, project, links, u.CreatedAt, u.UpdatedAt,
	))
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "users_verification_token_key" {
				return domain.User{}, domain.ErrInternal(err)
			}
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return ur.toDomain()
}

func (r *UserRepo) MarkVerified(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}

	const q = `
UPDATE users
SET verified = TRUE,
    verification_token = NULL,
    updated_at = $2
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, userID, r.now().UTC())
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

// ConsumeVerificationToken is conditioned on the token so two requests
// racing on one link cannot both succeed.
func (r *UserRepo) ConsumeVerificationToken(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(userID) == "" || token == "" {
		return domain.ErrVerifyTokenNotFound()
	}

	const q = `
UPDATE users
SET verified = TRUE,
    verification_token = NULL,
    updated_at = $3
WHERE id = $1 AND verification_token = $2;
`
	res, err := r.db.ExecContext(ctx, q, userID, token, r.now().UTC())
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n == 0 {
		return domain.ErrVerifyTokenNotFound()
	}
	return nil
}

// ---------- site.UserLister ----------

func (r *UserRepo) List(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1;`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, limit)
	for rows.Next() {
		ur, err := scanUser(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		u, err := ur.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

// ---------- profile.UserRepo ----------

// AppendAttachments locks the row, merges the patch in Go and writes the
// four JSONB columns back in one transaction.
func (r *UserRepo) AppendAttachments(ctx context.Context, userID string, patch domain.AttachmentsPatch) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, domain.ErrMissingField("user_id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE;`
	ur, err := scanUser(tx.QueryRowContext(ctx, q, userID))
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	u, err := ur.toDomain()
	if err != nil {
		return domain.User{}, err
	}

	patch.Apply(&u)
	u.UpdatedAt = r.now().UTC()

	resume, err := jsonArray(u.ResumeFiles)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}
	portfolio, err := jsonArray(u.PortfolioFiles)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}
	project, err := jsonArray(u.ProjectFiles)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}
	links, err := jsonArray(u.PortfolioLinks)
	if err != nil {
		return domain.User{}, domain.ErrInternal(err)
	}

	const upd = `
UPDATE users
SET resume_files = $2,
    portfolio_files = $3,
    project_files = $4,
    portfolio_links = $5,
    updated_at = $6
WHERE id = $1;
`
	if _, err := tx.ExecContext(ctx, upd, userID, resume, portfolio, project, links, u.UpdatedAt); err != nil {
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return u, nil
}
