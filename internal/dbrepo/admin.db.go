package dbrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Admin Repository ==============================
type AdminRepo struct {
	db *pgxpool.Pool
}

func NewAdminRepo(db *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{db: db}
}

// CreateAdmin inserts an admin; a.Password must already be hashed
func (r *AdminRepo) CreateAdmin(ctx context.Context, a *models.Admin) error {
	query := `
		INSERT INTO admins (full_name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, a.FullName, a.Email, a.Password, a.Role).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if pgErr, ok := uniqueViolation(err); ok {
		if pgErr.ConstraintName == "admins_single_super" {
			return models.ErrSuperAdminExists
		}
		return models.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("error creating admin: %w", err)
	}
	a.Password = ""
	return nil
}

func (r *AdminRepo) GetAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	query := `SELECT id, full_name, email, role, created_at, updated_at FROM admins WHERE id = $1`
	a := &models.Admin{}
	if err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.FullName, &a.Email, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, noRows(err)
	}
	return a, nil
}

// ListAdmins returns one page of admins and the total count
func (r *AdminRepo) ListAdmins(ctx context.Context, search string, limit, offset int) ([]*models.Admin, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins WHERE full_name ILIKE '%' || $1 || '%'`, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, full_name, email, role, created_at, updated_at
		FROM admins
		WHERE full_name ILIKE '%' || $1 || '%'
		ORDER BY id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	admins := []*models.Admin{}
	for rows.Next() {
		a := &models.Admin{}
		if err := rows.Scan(&a.ID, &a.FullName, &a.Email, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		admins = append(admins, a)
	}
	return admins, total, rows.Err()
}

// UpdateAdmin changes name and email, and the password when a new hash is given
func (r *AdminRepo) UpdateAdmin(ctx context.Context, a *models.Admin) error {
	query := `
		UPDATE admins SET
			full_name  = $1,
			email      = $2,
			password   = COALESCE(NULLIF($3, ''), password),
			updated_at = NOW()
		WHERE id = $4
		RETURNING role, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, a.FullName, a.Email, a.Password, a.ID).Scan(&a.Role, &a.CreatedAt, &a.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrEmailExists
	}
	a.Password = ""
	return noRows(err)
}

// DeleteAdmin removes a plain admin; the super admin cannot be deleted
func (r *AdminRepo) DeleteAdmin(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `DELETE FROM admins WHERE id = $1 AND role = 'admin'`, id))
}

// AdminIDs lists every admin, used to snapshot notification audiences
func (r *AdminRepo) AdminIDs(ctx context.Context) ([]int64, error) {
	return collectIDs(r.db.Query(ctx, `SELECT id FROM admins ORDER BY id`))
}
