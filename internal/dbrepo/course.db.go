package dbrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Course Repository ==============================
type CourseRepo struct {
	db *pgxpool.Pool
}

func NewCourseRepo(db *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{db: db}
}

// CreateCourse inserts a course. Course names are unique ignoring case; a
// deleted course with the same name is revived instead.
func (r *CourseRepo) CreateCourse(ctx context.Context, c *models.Course) error {
	query := `
		INSERT INTO courses (name) VALUES ($1)
		ON CONFLICT ((lower(name))) DO UPDATE SET deleted = FALSE, name = EXCLUDED.name
		WHERE courses.deleted
		RETURNING id, deleted, created_at`
	err := r.db.QueryRow(ctx, query, c.Name).Scan(&c.ID, &c.Deleted, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrCourseExists
		}
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

func (r *CourseRepo) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	c := &models.Course{}
	err := r.db.QueryRow(ctx, `SELECT id, name, deleted, created_at FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Deleted, &c.CreatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	return c, nil
}

// AllCourses returns every course that is not deleted
func (r *CourseRepo) AllCourses(ctx context.Context) ([]*models.Course, error) {
	list, _, err := r.ListCourses(ctx, "", 0, 0)
	return list, err
}

// ListCourses returns a page of courses; limit 0 returns all of them
func (r *CourseRepo) ListCourses(ctx context.Context, search string, limit, offset int) ([]*models.Course, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses WHERE NOT deleted AND name ILIKE '%' || $1 || '%'`, search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, name, deleted, created_at
		FROM courses
		WHERE NOT deleted AND name ILIKE '%' || $1 || '%'
		ORDER BY name`
	args := []any{search}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c := &models.Course{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Deleted, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}
	return courses, total, rows.Err()
}

func (r *CourseRepo) UpdateCourse(ctx context.Context, c *models.Course) error {
	err := r.db.QueryRow(ctx, `UPDATE courses SET name = $1 WHERE id = $2 AND NOT deleted RETURNING deleted, created_at`, c.Name, c.ID).
		Scan(&c.Deleted, &c.CreatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrCourseExists
	}
	return noRows(err)
}

// DeleteCourse flags the course deleted; lessons and enrolments keep pointing at it
func (r *CourseRepo) DeleteCourse(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `UPDATE courses SET deleted = TRUE WHERE id = $1 AND NOT deleted`, id))
}
