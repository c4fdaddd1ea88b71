package dbrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Demo Lesson Repository ==============================
type DemoRepo struct {
	db *pgxpool.Pool
}

func NewDemoRepo(db *pgxpool.Pool) *DemoRepo {
	return &DemoRepo{db: db}
}

const demoColumns = `id, full_name, parent_name, age, sector, class, phone, course_id, date, status, created_at`

func scanDemo(row pgx.Row) (*models.Demo, error) {
	d := &models.Demo{}
	err := row.Scan(&d.ID, &d.FullName, &d.ParentName, &d.Age, &d.Sector, &d.Class, &d.Phone, &d.CourseID, &d.Date, &d.Status, &d.CreatedAt)
	return d, err
}

func (r *DemoRepo) CreateDemo(ctx context.Context, d *models.Demo) error {
	if d.Status == "" {
		d.Status = models.DemoHeld
	}
	query := `
		INSERT INTO demos (full_name, parent_name, age, sector, class, phone, course_id, date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, d.FullName, d.ParentName, d.Age, d.Sector, d.Class, d.Phone, d.CourseID, d.Date, d.Status).
		Scan(&d.ID, &d.CreatedAt)
	if foreignKeyViolation(err) {
		return models.ErrCourseNotFound
	}
	if err != nil {
		return fmt.Errorf("error creating demo: %w", err)
	}
	return nil
}

// ListDemos returns a page of demo lessons dated within rng
func (r *DemoRepo) ListDemos(ctx context.Context, rng daterange.Range, status string, limit, offset int) ([]*models.Demo, int, error) {
	where := ` WHERE date BETWEEN $1 AND $2 AND ($3 = '' OR status = $3)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM demos`+where, rng.Start, rng.End, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+demoColumns+` FROM demos`+where+`
		ORDER BY date DESC, id DESC LIMIT $4 OFFSET $5`, rng.Start, rng.End, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.Demo{}
	for rows.Next() {
		d, err := scanDemo(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, d)
	}
	return list, total, rows.Err()
}

func (r *DemoRepo) UpdateDemo(ctx context.Context, d *models.Demo) error {
	query := `
		UPDATE demos SET
			full_name = $1, parent_name = $2, age = $3, sector = $4, class = $5, phone = $6,
			course_id = $7, date = $8, status = COALESCE(NULLIF($9, ''), status)
		WHERE id = $10
		RETURNING status, created_at`
	err := r.db.QueryRow(ctx, query, d.FullName, d.ParentName, d.Age, d.Sector, d.Class, d.Phone, d.CourseID, d.Date, d.Status, d.ID).
		Scan(&d.Status, &d.CreatedAt)
	if foreignKeyViolation(err) {
		return models.ErrCourseNotFound
	}
	return noRows(err)
}

func (r *DemoRepo) DeleteDemo(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `DELETE FROM demos WHERE id = $1`, id))
}
