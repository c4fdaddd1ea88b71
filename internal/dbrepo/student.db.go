package dbrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Student Repository ==============================
type StudentRepo struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewStudentRepo(db *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{db: db, now: time.Now}
}

const studentColumns = `
	s.id, s.full_name, s.email, s.birthday, s.phone, s.parents, s.fin, s.seria,
	s.payment::float8, s.where_coming, s.status, s.deleted, s.created_at, s.updated_at`

func scanStudent(row pgx.Row) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(
		&s.ID, &s.FullName, &s.Email, &s.Birthday, &s.Phone, &s.Parents, &s.Fin, &s.Seria,
		&s.Payment, &s.WhereComing, &s.Status, &s.Deleted, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// syncStudentCourses makes the student's enrolments equal to courses, keeping
// the given lesson amounts, and brings their count notifications in line.
func syncStudentCourses(ctx context.Context, tx pgx.Tx, studentID int64, courses []models.StudentCourse) error {
	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.CourseID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM student_courses WHERE student_id = $1 AND NOT (course_id = ANY($2::bigint[]))`, studentID, ids); err != nil {
		return fmt.Errorf("clear courses: %w", err)
	}
	_, err := tx.Exec(ctx, `
		DELETE FROM notifications
		WHERE role = 'count' AND student_id = $1 AND NOT (course_id = ANY($2::bigint[]))`, studentID, ids)
	if err != nil {
		return fmt.Errorf("clear count notifications: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range courses {
		batch.Queue(`
			INSERT INTO student_courses (student_id, course_id, lesson_amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (student_id, course_id) DO UPDATE SET lesson_amount = EXCLUDED.lesson_amount`,
			studentID, c.CourseID, c.LessonAmount)
	}
	br := tx.SendBatch(ctx, batch)
	for range courses {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if foreignKeyViolation(err) {
				return models.ErrCourseNotFound
			}
			return fmt.Errorf("save course: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	for _, c := range courses {
		if err := syncCountNotification(ctx, tx, studentID, c.CourseID, c.LessonAmount); err != nil {
			return fmt.Errorf("count notification: %w", err)
		}
	}
	return nil
}

// removeFromMainLessons takes the student out of every weekly template
func removeFromMainLessons(ctx context.Context, tx pgx.Tx, studentID int64) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM lesson_students ls USING lessons l
		WHERE ls.lesson_id = l.id AND l.role = 'main' AND ls.student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("remove from main lessons: %w", err)
	}
	return nil
}

// loadCourses fills the enrolments of students
func (r *StudentRepo) loadCourses(ctx context.Context, students ...*models.Student) error {
	if len(students) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Student, len(students))
	ids := make([]int64, 0, len(students))
	for _, s := range students {
		s.Courses = []models.StudentCourse{}
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}
	rows, err := r.db.Query(ctx, `
		SELECT sc.student_id, sc.course_id, c.name, sc.lesson_amount
		FROM student_courses sc
		JOIN courses c ON c.id = sc.course_id
		WHERE sc.student_id = ANY($1)
		ORDER BY sc.student_id, c.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var studentID int64
		var c models.StudentCourse
		if err := rows.Scan(&studentID, &c.CourseID, &c.CourseName, &c.LessonAmount); err != nil {
			return err
		}
		byID[studentID].Courses = append(byID[studentID].Courses, c)
	}
	return rows.Err()
}

// CreateStudent inserts a student with their enrolments; s.Password must be hashed
func (r *StudentRepo) CreateStudent(ctx context.Context, s *models.Student) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO students (full_name, email, password, birthday, phone, parents, fin, seria, payment, where_coming)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, status, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		s.FullName, s.Email, s.Password, s.Birthday, s.Phone, s.Parents, s.Fin, s.Seria, s.Payment, s.WhereComing,
	).Scan(&s.ID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("error creating student: %w", err)
	}
	if err := syncStudentCourses(ctx, tx, s.ID, s.Courses); err != nil {
		return err
	}
	if err := syncStudentBirthday(ctx, tx, s.ID, daterange.StartOfDay(r.now())); err != nil {
		return err
	}
	s.Password = ""
	return tx.Commit(ctx)
}

func (r *StudentRepo) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	s, err := scanStudent(r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM students s WHERE s.id = $1`, id))
	if err != nil {
		return nil, noRows(err)
	}
	if err := r.loadCourses(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// StudentFilter narrows student listings
type StudentFilter struct {
	Search   string
	Status   *bool
	CourseID int64
}

func (f StudentFilter) where() (string, []any) {
	where := ` WHERE NOT s.deleted AND s.full_name ILIKE '%' || $1 || '%'`
	args := []any{f.Search}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	if f.CourseID > 0 {
		args = append(args, f.CourseID)
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM student_courses sc WHERE sc.student_id = s.id AND sc.course_id = $%d)", len(args))
	}
	return where, args
}

// ListStudents returns one page of students and the total count
func (r *StudentRepo) ListStudents(ctx context.Context, f StudentFilter, limit, offset int) ([]*models.Student, int, error) {
	where, args := f.where()
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students s`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := `SELECT ` + studentColumns + ` FROM students s` + where +
		fmt.Sprintf(" ORDER BY s.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	list, err := r.query(ctx, query, args...)
	return list, total, err
}

// AllStudents returns every student that is not deleted
func (r *StudentRepo) AllStudents(ctx context.Context) ([]*models.Student, error) {
	return r.query(ctx, `SELECT `+studentColumns+` FROM students s WHERE NOT s.deleted ORDER BY s.full_name`)
}

// StudentsByCourse returns active students enrolled in courseID
func (r *StudentRepo) StudentsByCourse(ctx context.Context, courseID int64) ([]*models.Student, error) {
	return r.query(ctx, `
		SELECT `+studentColumns+`
		FROM students s
		JOIN student_courses sc ON sc.student_id = s.id
		WHERE sc.course_id = $1 AND s.status AND NOT s.deleted
		ORDER BY s.full_name`, courseID)
}

func (r *StudentRepo) query(ctx context.Context, query string, args ...any) ([]*models.Student, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		students = append(students, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadCourses(ctx, students...); err != nil {
		return nil, err
	}
	return students, nil
}

// UpdateStudent saves profile, status and enrolments. Enrolments are only
// touched when s.Courses is non-nil. A student who is deactivated leaves the
// weekly templates.
func (r *StudentRepo) UpdateStudent(ctx context.Context, s *models.Student) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var wasActive bool
	if err := tx.QueryRow(ctx, `SELECT status FROM students WHERE id = $1 AND NOT deleted FOR UPDATE`, s.ID).Scan(&wasActive); err != nil {
		return noRows(err)
	}

	query := `
		UPDATE students SET
			full_name    = $1,
			email        = $2,
			password     = COALESCE(NULLIF($3, ''), password),
			birthday     = $4,
			phone        = $5,
			parents      = $6,
			fin          = $7,
			seria        = $8,
			payment      = $9,
			where_coming = $10,
			status       = $11,
			updated_at   = NOW()
		WHERE id = $12 AND NOT deleted
		RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		s.FullName, s.Email, s.Password, s.Birthday, s.Phone, s.Parents, s.Fin, s.Seria,
		s.Payment, s.WhereComing, s.Status, s.ID,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrEmailExists
	}
	if err != nil {
		return noRows(err)
	}
	if wasActive && !s.Status {
		if err := removeFromMainLessons(ctx, tx, s.ID); err != nil {
			return err
		}
	}
	if s.Courses != nil {
		if err := syncStudentCourses(ctx, tx, s.ID, s.Courses); err != nil {
			return err
		}
	}
	if err := syncStudentBirthday(ctx, tx, s.ID, daterange.StartOfDay(r.now())); err != nil {
		return err
	}
	s.Password = ""
	return tx.Commit(ctx)
}

// DeleteStudent removes the student from the weekly templates, then deletes
// them, or only flags them deleted when a held lesson references them.
func (r *StudentRepo) DeleteStudent(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := removeFromMainLessons(ctx, tx, id); err != nil {
		return err
	}

	var referenced bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM lesson_students WHERE student_id = $1)`, id).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		err = affected(tx.Exec(ctx, `UPDATE students SET deleted = TRUE, status = FALSE, updated_at = NOW() WHERE id = $1`, id))
	} else {
		err = affected(tx.Exec(ctx, `DELETE FROM students WHERE id = $1`, id))
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
