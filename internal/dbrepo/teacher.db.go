package dbrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Teacher Repository ==============================
type TeacherRepo struct {
	db *pgxpool.Pool
}

func NewTeacherRepo(db *pgxpool.Pool) *TeacherRepo {
	return &TeacherRepo{db: db}
}

const teacherColumns = `
	t.id, t.full_name, t.email, t.birthday, t.phone, t.fin, t.seria,
	t.salary_type, t.salary_value::float8, t.status, t.deleted, t.created_at, t.updated_at,
	COALESCE((SELECT array_agg(tc.course_id ORDER BY tc.course_id) FROM teacher_courses tc WHERE tc.teacher_id = t.id), '{}')`

func scanTeacher(row pgx.Row) (*models.Teacher, error) {
	t := &models.Teacher{}
	err := row.Scan(
		&t.ID, &t.FullName, &t.Email, &t.Birthday, &t.Phone, &t.Fin, &t.Seria,
		&t.Salary.Type, &t.Salary.Value, &t.Status, &t.Deleted, &t.CreatedAt, &t.UpdatedAt,
		&t.Courses,
	)
	return t, err
}

func replaceTeacherCourses(ctx context.Context, tx pgx.Tx, teacherID int64, courses []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM teacher_courses WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear courses: %w", err)
	}
	if len(courses) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO teacher_courses (teacher_id, course_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, teacherID, courses)
	if foreignKeyViolation(err) {
		return models.ErrCourseNotFound
	}
	if err != nil {
		return fmt.Errorf("insert courses: %w", err)
	}
	return nil
}

// CreateTeacher inserts a teacher with their courses; t.Password must be hashed
func (r *TeacherRepo) CreateTeacher(ctx context.Context, t *models.Teacher) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO teachers (full_name, email, password, birthday, phone, fin, seria, salary_type, salary_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, status, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		t.FullName, t.Email, t.Password, t.Birthday, t.Phone, t.Fin, t.Seria, t.Salary.Type, t.Salary.Value,
	).Scan(&t.ID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("error creating teacher: %w", err)
	}
	if err := replaceTeacherCourses(ctx, tx, t.ID, t.Courses); err != nil {
		return err
	}
	t.Password = ""
	return tx.Commit(ctx)
}

func (r *TeacherRepo) GetTeacher(ctx context.Context, id int64) (*models.Teacher, error) {
	t, err := scanTeacher(r.db.QueryRow(ctx, `SELECT `+teacherColumns+` FROM teachers t WHERE t.id = $1`, id))
	if err != nil {
		return nil, noRows(err)
	}
	return t, nil
}

// TeacherFilter narrows teacher listings
type TeacherFilter struct {
	Search string
	Status *bool
}

func (f TeacherFilter) where() (string, []any) {
	where := ` WHERE NOT t.deleted AND t.full_name ILIKE '%' || $1 || '%'`
	args := []any{f.Search}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	return where, args
}

// ListTeachers returns one page of teachers and the total count
func (r *TeacherRepo) ListTeachers(ctx context.Context, f TeacherFilter, limit, offset int) ([]*models.Teacher, int, error) {
	where, args := f.where()
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM teachers t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := `SELECT ` + teacherColumns + ` FROM teachers t` + where +
		fmt.Sprintf(" ORDER BY t.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	list, err := r.query(ctx, query, args...)
	return list, total, err
}

// AllTeachers returns every teacher that is not deleted
func (r *TeacherRepo) AllTeachers(ctx context.Context) ([]*models.Teacher, error) {
	return r.query(ctx, `SELECT `+teacherColumns+` FROM teachers t WHERE NOT t.deleted ORDER BY t.full_name`)
}

// ActiveTeachers returns teachers that may be scheduled
func (r *TeacherRepo) ActiveTeachers(ctx context.Context) ([]*models.Teacher, error) {
	return r.query(ctx, `SELECT `+teacherColumns+` FROM teachers t WHERE t.status AND NOT t.deleted ORDER BY t.full_name`)
}

func (r *TeacherRepo) query(ctx context.Context, query string, args ...any) ([]*models.Teacher, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := []*models.Teacher{}
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// saveTeacher writes profile, courses and pay scheme inside tx and returns the
// scheme the teacher had before
func saveTeacher(ctx context.Context, tx pgx.Tx, t *models.Teacher) (models.PayScheme, error) {
	var previous models.PayScheme
	err := tx.QueryRow(ctx, `SELECT salary_type, salary_value::float8 FROM teachers WHERE id = $1 AND NOT deleted FOR UPDATE`, t.ID).
		Scan(&previous.Type, &previous.Value)
	if err != nil {
		return previous, noRows(err)
	}

	query := `
		UPDATE teachers SET
			full_name    = $1,
			email        = $2,
			password     = COALESCE(NULLIF($3, ''), password),
			birthday     = $4,
			phone        = $5,
			fin          = $6,
			seria        = $7,
			salary_type  = $8,
			salary_value = $9,
			updated_at   = NOW()
		WHERE id = $10
		RETURNING status, deleted, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		t.FullName, t.Email, t.Password, t.Birthday, t.Phone, t.Fin, t.Seria, t.Salary.Type, t.Salary.Value, t.ID,
	).Scan(&t.Status, &t.Deleted, &t.CreatedAt, &t.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return previous, models.ErrEmailExists
	}
	if err != nil {
		return previous, fmt.Errorf("error updating teacher: %w", err)
	}
	if t.Courses != nil {
		if err := replaceTeacherCourses(ctx, tx, t.ID, t.Courses); err != nil {
			return previous, err
		}
	}
	t.Password = ""
	return previous, nil
}

// hasCurrentLessonsFrom reports whether the teacher owns a current lesson dated from on
func hasCurrentLessonsFrom(ctx context.Context, q querier, teacherID int64, from time.Time) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM lessons WHERE teacher_id = $1 AND role = 'current' AND date >= $2)`,
		teacherID, from).Scan(&exists)
	return exists, err
}

// setTeacherStatus activates or deactivates a teacher inside tx. Deactivation is
// refused while the teacher owns lessons of the current week and drops their
// main lessons. Setting the status a teacher already has changes nothing.
func setTeacherStatus(ctx context.Context, tx pgx.Tx, id int64, status bool, weekStart time.Time) error {
	var current bool
	if err := tx.QueryRow(ctx, `SELECT status FROM teachers WHERE id = $1 AND NOT deleted FOR UPDATE`, id).Scan(&current); err != nil {
		return noRows(err)
	}
	if current == status {
		return nil
	}
	if !status {
		busy, err := hasCurrentLessonsFrom(ctx, tx, id, weekStart)
		if err != nil {
			return err
		}
		if busy {
			return models.ErrHasCurrentLessons
		}
		if _, err := tx.Exec(ctx, `DELETE FROM lessons WHERE teacher_id = $1 AND role = 'main'`, id); err != nil {
			return fmt.Errorf("delete main lessons: %w", err)
		}
	}
	return affected(tx.Exec(ctx, `UPDATE teachers SET status = $1, updated_at = NOW() WHERE id = $2`, status, id))
}

// DeleteTeacher removes a teacher. A teacher still referenced by lessons or
// payroll rows is only flagged deleted.
func (r *TeacherRepo) DeleteTeacher(ctx context.Context, id int64, weekStart time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	busy, err := hasCurrentLessonsFrom(ctx, tx, id, weekStart)
	if err != nil {
		return err
	}
	if busy {
		return models.ErrHasCurrentLessons
	}
	if _, err := tx.Exec(ctx, `DELETE FROM lessons WHERE teacher_id = $1 AND role = 'main'`, id); err != nil {
		return fmt.Errorf("delete main lessons: %w", err)
	}

	var referenced bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM lessons WHERE teacher_id = $1)
		    OR EXISTS (SELECT 1 FROM salaries WHERE teacher_id = $1)
		    OR EXISTS (SELECT 1 FROM bonuses WHERE teacher_id = $1)
		    OR EXISTS (SELECT 1 FROM fines WHERE teacher_id = $1)`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		err = affected(tx.Exec(ctx, `UPDATE teachers SET deleted = TRUE, status = FALSE, updated_at = NOW() WHERE id = $1`, id))
	} else {
		err = affected(tx.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id))
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TeacherIDs lists teachers that are not deleted
func (r *TeacherRepo) TeacherIDs(ctx context.Context, activeOnly bool) ([]int64, error) {
	query := `SELECT id FROM teachers WHERE NOT deleted`
	if activeOnly {
		query += ` AND status`
	}
	return collectIDs(r.db.Query(ctx, query+` ORDER BY id`))
}
