package dbrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Syllabus Repository ==============================
type SyllabusRepo struct {
	db *pgxpool.Pool
}

func NewSyllabusRepo(db *pgxpool.Pool) *SyllabusRepo {
	return &SyllabusRepo{db: db}
}

func (r *SyllabusRepo) CreateSyllabus(ctx context.Context, s *models.Syllabus) error {
	query := `
		INSERT INTO syllabus (name, order_number, course_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, s.Name, s.OrderNumber, s.CourseID).Scan(&s.ID, &s.CreatedAt)
	if foreignKeyViolation(err) {
		return models.ErrCourseNotFound
	}
	if err != nil {
		return fmt.Errorf("error creating syllabus: %w", err)
	}
	return nil
}

// ListSyllabus returns a course's syllabus in order; limit 0 returns all rows
func (r *SyllabusRepo) ListSyllabus(ctx context.Context, courseID int64, limit, offset int) ([]*models.Syllabus, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM syllabus WHERE ($1 = 0 OR course_id = $1)`, courseID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, name, order_number, course_id, created_at
		FROM syllabus
		WHERE ($1 = 0 OR course_id = $1)
		ORDER BY course_id, order_number, id`
	args := []any{courseID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.Syllabus{}
	for rows.Next() {
		s := &models.Syllabus{}
		if err := rows.Scan(&s.ID, &s.Name, &s.OrderNumber, &s.CourseID, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

func (r *SyllabusRepo) UpdateSyllabus(ctx context.Context, s *models.Syllabus) error {
	err := r.db.QueryRow(ctx, `
		UPDATE syllabus SET name = $1, order_number = $2, course_id = $3
		WHERE id = $4
		RETURNING created_at`, s.Name, s.OrderNumber, s.CourseID, s.ID).Scan(&s.CreatedAt)
	if foreignKeyViolation(err) {
		return models.ErrCourseNotFound
	}
	return noRows(err)
}

func (r *SyllabusRepo) DeleteSyllabus(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `DELETE FROM syllabus WHERE id = $1`, id))
}
