package dbrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Account Repository ==============================
// AccountRepo looks accounts up across admins, teachers, students and workers
type AccountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountsView = `
	SELECT 'admin' AS kind, id, full_name, email, password, role, TRUE AS active,
	       COALESCE(otp, '') AS otp, otp_expires_at
	FROM admins
	UNION ALL
	SELECT 'teacher', id, full_name, email, password, 'teacher', status AND NOT deleted,
	       COALESCE(otp, ''), otp_expires_at
	FROM teachers
	UNION ALL
	SELECT 'student', id, full_name, email, password, 'student', status AND NOT deleted,
	       COALESCE(otp, ''), otp_expires_at
	FROM students
	UNION ALL
	SELECT 'worker', id, full_name, email, password, 'worker', NOT deleted,
	       COALESCE(otp, ''), otp_expires_at
	FROM workers`

func (r *AccountRepo) scanOne(ctx context.Context, where string, args ...any) (*models.Account, error) {
	query := `SELECT kind, id, full_name, email, password, role, active, otp, otp_expires_at
		FROM (` + accountsView + `) a WHERE ` + where + ` LIMIT 1`
	a := &models.Account{}
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&a.Kind, &a.ID, &a.FullName, &a.Email, &a.Password, &a.Role, &a.Active, &a.OTP, &a.OTPExpiresAt,
	)
	if err != nil {
		return nil, noRows(err)
	}
	return a, nil
}

// FindByEmail returns the account with email, of whichever kind it is
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.scanOne(ctx, `lower(email) = lower($1)`, email)
}

// FindByID returns the account of kind with id
func (r *AccountRepo) FindByID(ctx context.Context, kind string, id int64) (*models.Account, error) {
	return r.scanOne(ctx, `kind = $1 AND id = $2`, kind, id)
}

// EmailTaken reports whether email belongs to any account other than (kind, id)
func (r *AccountRepo) EmailTaken(ctx context.Context, email, exceptKind string, exceptID int64) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM (` + accountsView + `) a
		WHERE lower(email) = lower($1) AND NOT (kind = $2 AND id = $3))`
	var taken bool
	err := r.db.QueryRow(ctx, query, email, exceptKind, exceptID).Scan(&taken)
	return taken, err
}

// SuperAdminExists reports whether the single super admin has been registered
func (r *AccountRepo) SuperAdminExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE role = 'super-admin')`).Scan(&exists)
	return exists, err
}

// SetOTP stores a one time password for the account
func (r *AccountRepo) SetOTP(ctx context.Context, kind string, id int64, otp string, expiresAt time.Time) error {
	table, err := accountTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET otp = $1, otp_expires_at = $2 WHERE id = $3`, table)
	return affected(r.db.Exec(ctx, query, otp, expiresAt, id))
}

// UpdatePassword stores a new password hash and clears any pending OTP
func (r *AccountRepo) UpdatePassword(ctx context.Context, kind string, id int64, hash string) error {
	table, err := accountTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET password = $1, otp = NULL, otp_expires_at = NULL, updated_at = NOW() WHERE id = $2`, table)
	return affected(r.db.Exec(ctx, query, hash, id))
}

// SaveRefreshToken keeps one refresh token per account, replacing the previous one
func (r *AccountRepo) SaveRefreshToken(ctx context.Context, t *models.Token) error {
	query := `
		INSERT INTO tokens (id, account_kind, account_id, refresh_token)
		VALUES ($1::uuid, $2, $3, $4)
		ON CONFLICT (account_kind, account_id) DO UPDATE SET
			id            = EXCLUDED.id,
			refresh_token = EXCLUDED.refresh_token,
			created_at    = NOW()
		RETURNING created_at`
	return r.db.QueryRow(ctx, query, t.ID, t.AccountKind, t.AccountID, t.RefreshToken).Scan(&t.CreatedAt)
}

// FindRefreshToken returns the stored token for a refresh token string
func (r *AccountRepo) FindRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error) {
	query := `SELECT id::text, account_kind, account_id, refresh_token, created_at FROM tokens WHERE refresh_token = $1`
	t := &models.Token{}
	err := r.db.QueryRow(ctx, query, refreshToken).Scan(&t.ID, &t.AccountKind, &t.AccountID, &t.RefreshToken, &t.CreatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	return t, nil
}

// DeleteRefreshToken removes the token; an unknown token is not an error
func (r *AccountRepo) DeleteRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tokens WHERE refresh_token = $1`, refreshToken)
	return err
}
