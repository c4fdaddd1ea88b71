package dbrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Fine Repository ==============================
type FineRepo struct {
	db *pgxpool.Pool
}

func NewFineRepo(db *pgxpool.Pool) *FineRepo {
	return &FineRepo{db: db}
}

// CreateFine records a fine and notifies the fined teacher
func (r *FineRepo) CreateFine(ctx context.Context, f *models.Fine) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO fines (teacher_id, fine_type, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, f.TeacherID, f.FineType, f.Comment).Scan(&f.ID, &f.CreatedAt)
	if foreignKeyViolation(err) {
		return models.ErrTeacherNotFound
	}
	if err != nil {
		return fmt.Errorf("error creating fine: %w", err)
	}

	_, err = tx.Exec(ctx, `
		WITH n AS (
			INSERT INTO notifications (role, teacher_id) VALUES ('fine', $1) RETURNING id
		)
		INSERT INTO notification_views (notification_id, audience, account_id)
		SELECT n.id, 'teacher', $1 FROM n`, f.TeacherID)
	if err != nil {
		return fmt.Errorf("fine notification: %w", err)
	}
	return tx.Commit(ctx)
}

// ListFines returns a page of fines issued within r, optionally for one teacher
func (r *FineRepo) ListFines(ctx context.Context, rng daterange.Range, teacherID int64, limit, offset int) ([]*models.Fine, int, error) {
	where := ` WHERE f.created_at BETWEEN $1 AND $2 AND ($3 = 0 OR f.teacher_id = $3)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM fines f`+where, rng.Start, rng.End, teacherID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT f.id, f.teacher_id, t.full_name, f.fine_type, f.comment, f.created_at
		FROM fines f JOIN teachers t ON t.id = f.teacher_id`+where+`
		ORDER BY f.created_at DESC
		LIMIT $4 OFFSET $5`, rng.Start, rng.End, teacherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.Fine{}
	for rows.Next() {
		f := &models.Fine{}
		if err := rows.Scan(&f.ID, &f.TeacherID, &f.TeacherName, &f.FineType, &f.Comment, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, f)
	}
	return list, total, rows.Err()
}

func (r *FineRepo) UpdateFine(ctx context.Context, f *models.Fine) error {
	err := r.db.QueryRow(ctx, `
		UPDATE fines SET fine_type = $1, comment = $2 WHERE id = $3
		RETURNING teacher_id, created_at`, f.FineType, f.Comment, f.ID).Scan(&f.TeacherID, &f.CreatedAt)
	return noRows(err)
}

func (r *FineRepo) DeleteFine(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `DELETE FROM fines WHERE id = $1`, id))
}
