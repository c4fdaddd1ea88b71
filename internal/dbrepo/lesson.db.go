package dbrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/cascade"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Lesson Repository ==============================
type LessonRepo struct {
	db *pgxpool.Pool
}

func NewLessonRepo(db *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{db: db}
}

var _ cascade.Store = (*LessonRepo)(nil)

const lessonColumns = `
	l.id, l.role, l.date, l.day, l.time, l.teacher_id, t.full_name, l.course_id, c.name,
	l.status, l.note, l.task, l.salary_type, l.salary_value::float8, l.earnings::float8,
	l.created_at, l.updated_at`

const lessonFrom = `
	FROM lessons l
	JOIN teachers t ON t.id = l.teacher_id
	JOIN courses c ON c.id = l.course_id`

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	l := &models.Lesson{}
	err := row.Scan(
		&l.ID, &l.Role, &l.Date, &l.Day, &l.Time, &l.TeacherID, &l.TeacherName, &l.CourseID, &l.CourseName,
		&l.Status, &l.Note, &l.Task, &l.Salary.Type, &l.Salary.Value, &l.Earnings,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// loadLessons runs a lesson query and attaches every lesson's students
func loadLessons(ctx context.Context, q querier, query string, args ...any) ([]*models.Lesson, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	lessons := []*models.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		lessons = append(lessons, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachStudents(ctx, q, lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func attachStudents(ctx context.Context, q querier, lessons []*models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Lesson, len(lessons))
	ids := make([]int64, 0, len(lessons))
	for _, l := range lessons {
		l.Students = []models.LessonStudent{}
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}
	rows, err := q.Query(ctx, `
		SELECT ls.lesson_id, ls.student_id, s.full_name, ls.attendance, ls.rating_by_student, ls.feedback, ls.payment::float8
		FROM lesson_students ls
		JOIN students s ON s.id = ls.student_id
		WHERE ls.lesson_id = ANY($1)
		ORDER BY ls.lesson_id, ls.position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var lessonID int64
		var s models.LessonStudent
		if err := rows.Scan(&lessonID, &s.StudentID, &s.StudentName, &s.Attendance, &s.RatingByStudent, &s.Feedback, &s.Payment); err != nil {
			return err
		}
		byID[lessonID].Students = append(byID[lessonID].Students, s)
	}
	return rows.Err()
}

// MainLessons returns the weekly template, optionally for one teacher
func (r *LessonRepo) MainLessons(ctx context.Context, teacherID int64) ([]*models.Lesson, error) {
	return loadLessons(ctx, r.db, `SELECT `+lessonColumns+lessonFrom+`
		WHERE l.role = 'main' AND ($1 = 0 OR l.teacher_id = $1)
		ORDER BY l.day, l.time, l.id`, teacherID)
}

// CurrentLessons returns the current lessons dated within week
func (r *LessonRepo) CurrentLessons(ctx context.Context, teacherID int64, week daterange.Range) ([]*models.Lesson, error) {
	return loadLessons(ctx, r.db, `SELECT `+lessonColumns+lessonFrom+`
		WHERE l.role = 'current' AND ($1 = 0 OR l.teacher_id = $1) AND l.date BETWEEN $2 AND $3
		ORDER BY l.date, l.time, l.id`, teacherID, week.Start, week.End)
}

func (f lessonFilter) where() (string, []any) {
	where := ` WHERE 1=1`
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where += fmt.Sprintf(cond, len(args))
	}
	if f.Role != "" {
		add(" AND l.role = $%d", f.Role)
	}
	if f.TeacherID > 0 {
		add(" AND l.teacher_id = $%d", f.TeacherID)
	}
	if f.Status != "" {
		add(" AND l.status = $%d", f.Status)
	}
	if f.From != nil {
		add(" AND l.date >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND l.date <= $%d", *f.To)
	}
	switch {
	case f.StudentID > 0 && f.Attendance != nil:
		args = append(args, f.StudentID, *f.Attendance)
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM lesson_students x WHERE x.lesson_id = l.id AND x.student_id = $%d AND x.attendance = $%d)", len(args)-1, len(args))
	case f.StudentID > 0:
		add(" AND EXISTS (SELECT 1 FROM lesson_students x WHERE x.lesson_id = l.id AND x.student_id = $%d)", f.StudentID)
	case f.Attendance != nil:
		add(" AND EXISTS (SELECT 1 FROM lesson_students x WHERE x.lesson_id = l.id AND x.attendance = $%d)", *f.Attendance)
	}
	return where, args
}

type lessonFilter models.LessonFilter

// PanelLessons returns one page of lessons matching f, newest first
func (r *LessonRepo) PanelLessons(ctx context.Context, f models.LessonFilter, limit, offset int) ([]*models.Lesson, int, error) {
	where, args := lessonFilter(f).where()
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM lessons l`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := `SELECT ` + lessonColumns + lessonFrom + where +
		fmt.Sprintf(" ORDER BY l.date DESC NULLS LAST, l.time, l.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	lessons, err := loadLessons(ctx, r.db, query, args...)
	return lessons, total, err
}

// GenerateCurrentWeek copies every main lesson of an active teacher into a
// current lesson of week, carrying the teacher's scheme and each student's
// payment. Update-table notifications are cleared.
func (r *LessonRepo) GenerateCurrentWeek(ctx context.Context, week daterange.Range) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// one generation at a time
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('generate-week'))`); err != nil {
		return 0, err
	}
	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM lessons WHERE role = 'current' AND date BETWEEN $1 AND $2)`,
		week.Start, week.End).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, models.ErrCurrentWeekExists
	}

	rows, err := tx.Query(ctx, `
		SELECT m.id, m.day
		FROM lessons m
		JOIN teachers t ON t.id = m.teacher_id
		WHERE m.role = 'main' AND t.status AND NOT t.deleted
		ORDER BY m.day, m.time, m.id`)
	if err != nil {
		return 0, err
	}
	type template struct {
		id  int64
		day int
	}
	templates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (template, error) {
		var t template
		err := row.Scan(&t.id, &t.day)
		return t, err
	})
	if err != nil {
		return 0, fmt.Errorf("load main lessons: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range templates {
		batch.Queue(`
			WITH l AS (
				INSERT INTO lessons (role, date, day, time, teacher_id, course_id, status, note, task, salary_type, salary_value)
				SELECT 'current', $2, m.day, m.time, m.teacher_id, m.course_id, 'unviewed', m.note, m.task, t.salary_type, t.salary_value
				FROM lessons m JOIN teachers t ON t.id = m.teacher_id
				WHERE m.id = $1
				RETURNING id
			)
			INSERT INTO lesson_students (lesson_id, student_id, position, payment)
			SELECT l.id, ms.student_id, ms.position, s.payment
			FROM l
			JOIN lesson_students ms ON ms.lesson_id = $1
			JOIN students s ON s.id = ms.student_id
			WHERE s.status AND NOT s.deleted`, t.id, week.Start.AddDate(0, 0, t.day-1))
	}
	batch.Queue(`DELETE FROM notifications WHERE role = 'update-table'`)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("generate week: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(templates), nil
}

// WithTx runs fn inside one transaction and commits when fn succeeds
func (r *LessonRepo) WithTx(ctx context.Context, fn func(tx cascade.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&lessonTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lessonTx is the cascade's view of an open pgx transaction
type lessonTx struct {
	tx pgx.Tx
}

func (t *lessonTx) LockLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	if _, err := t.tx.Exec(ctx, `SELECT 1 FROM lessons WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, err
	}
	lessons, err := loadLessons(ctx, t.tx, `SELECT `+lessonColumns+lessonFrom+` WHERE l.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, models.ErrNotFound
	}
	return lessons[0], nil
}

func (t *lessonTx) insertStudents(ctx context.Context, l *models.Lesson) error {
	if len(l.Students) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, s := range l.Students {
		batch.Queue(`
			INSERT INTO lesson_students (lesson_id, student_id, position, attendance, rating_by_student, feedback, payment)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, s.StudentID, i, s.Attendance, s.RatingByStudent, s.Feedback, s.Payment)
	}
	br := t.tx.SendBatch(ctx, batch)
	for range l.Students {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if foreignKeyViolation(err) {
				return models.ErrStudentNotFound
			}
			return fmt.Errorf("insert lesson student: %w", err)
		}
	}
	return br.Close()
}

func (t *lessonTx) InsertLesson(ctx context.Context, l *models.Lesson) error {
	query := `
		INSERT INTO lessons (role, date, day, time, teacher_id, course_id, status, note, task, salary_type, salary_value, earnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	err := t.tx.QueryRow(ctx, query,
		l.Role, l.Date, l.Day, l.Time, l.TeacherID, l.CourseID, l.Status, l.Note, l.Task,
		l.Salary.Type, l.Salary.Value, l.Earnings,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if foreignKeyViolation(err) {
		return models.ErrCourseNotFound
	}
	if err != nil {
		return err
	}
	return t.insertStudents(ctx, l)
}

func (t *lessonTx) SaveLesson(ctx context.Context, l *models.Lesson) error {
	query := `
		UPDATE lessons SET
			date = $1, day = $2, time = $3, teacher_id = $4, course_id = $5, status = $6,
			note = $7, task = $8, salary_type = $9, salary_value = $10, earnings = $11,
			updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at`
	err := t.tx.QueryRow(ctx, query,
		l.Date, l.Day, l.Time, l.TeacherID, l.CourseID, l.Status, l.Note, l.Task,
		l.Salary.Type, l.Salary.Value, l.Earnings, l.ID,
	).Scan(&l.UpdatedAt)
	if foreignKeyViolation(err) {
		return models.ErrCourseNotFound
	}
	if err != nil {
		return noRows(err)
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM lesson_students WHERE lesson_id = $1`, l.ID); err != nil {
		return err
	}
	return t.insertStudents(ctx, l)
}

func (t *lessonTx) DeleteLesson(ctx context.Context, id int64) error {
	return affected(t.tx.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id))
}

func (t *lessonTx) TeacherScheme(ctx context.Context, teacherID int64) (models.PayScheme, error) {
	var s models.PayScheme
	err := t.tx.QueryRow(ctx, `SELECT salary_type, salary_value::float8 FROM teachers WHERE id = $1 AND NOT deleted`, teacherID).
		Scan(&s.Type, &s.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, models.ErrTeacherNotFound
	}
	return s, err
}

func (t *lessonTx) StudentPayments(ctx context.Context, studentIDs []int64) (map[int64]float64, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, payment::float8 FROM students WHERE id = ANY($1)`, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]float64, len(studentIDs))
	for rows.Next() {
		var id int64
		var p float64
		if err := rows.Scan(&id, &p); err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, rows.Err()
}

func (t *lessonTx) LockKey(ctx context.Context, key string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func (t *lessonTx) TeacherLessons(ctx context.Context, teacherID int64, r daterange.Range) ([]*models.Lesson, error) {
	return loadLessons(ctx, t.tx, `SELECT `+lessonColumns+lessonFrom+`
		WHERE l.role = 'current' AND l.teacher_id = $1 AND l.date BETWEEN $2 AND $3`, teacherID, r.Start, r.End)
}

func (t *lessonTx) ConfirmedLessons(ctx context.Context, r daterange.Range) ([]*models.Lesson, error) {
	return loadLessons(ctx, t.tx, `SELECT `+lessonColumns+lessonFrom+`
		WHERE l.role = 'current' AND l.status = 'confirmed' AND l.date BETWEEN $1 AND $2`, r.Start, r.End)
}

func (t *lessonTx) Salary(ctx context.Context, teacherID int64, period time.Time) (*models.Salary, error) {
	s, err := scanSalary(t.tx.QueryRow(ctx, `SELECT `+salaryColumns+` FROM salaries WHERE teacher_id = $1 AND period = $2`, teacherID, period))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (t *lessonTx) UpsertSalary(ctx context.Context, s *models.Salary) error {
	return upsertSalary(ctx, t.tx, s)
}

func (t *lessonTx) UpsertEarning(ctx context.Context, e *models.Earning) error {
	query := `
		INSERT INTO earnings (period, earnings, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (period) DO UPDATE SET earnings = EXCLUDED.earnings, updated_at = NOW()
		RETURNING updated_at`
	return t.tx.QueryRow(ctx, query, e.Period, e.Earnings).Scan(&e.UpdatedAt)
}

func (t *lessonTx) UpsertLeaderboard(ctx context.Context, lb *models.Leaderboard) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO leaderboards (teacher_id, period, lesson_count, star_count) VALUES ($1, $2, $3, $4)
		ON CONFLICT (teacher_id, period) DO UPDATE SET
			lesson_count = EXCLUDED.lesson_count,
			star_count   = EXCLUDED.star_count`,
		lb.TeacherID, lb.Period, lb.LessonCount, lb.StarCount)
	return err
}

func (t *lessonTx) AdjustLessonAmount(ctx context.Context, k cascade.AmountKey, delta int) (int, error) {
	var amount int
	err := t.tx.QueryRow(ctx, `
		INSERT INTO student_courses (student_id, course_id, lesson_amount) VALUES ($1, $2, $3)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			lesson_amount = student_courses.lesson_amount + EXCLUDED.lesson_amount
		RETURNING lesson_amount`, k.StudentID, k.CourseID, delta).Scan(&amount)
	if foreignKeyViolation(err) {
		return 0, models.ErrNotFound
	}
	return amount, err
}

func (t *lessonTx) EnsureCountNotification(ctx context.Context, k cascade.AmountKey) error {
	return ensureCountNotification(ctx, t.tx, k.StudentID, k.CourseID)
}

func (t *lessonTx) DeleteCountNotification(ctx context.Context, k cascade.AmountKey) error {
	return deleteCountNotification(ctx, t.tx, k.StudentID, k.CourseID)
}

func (t *lessonTx) SaveTeacher(ctx context.Context, teacher *models.Teacher) (models.PayScheme, error) {
	return saveTeacher(ctx, t.tx, teacher)
}

func (t *lessonTx) SetTeacherStatus(ctx context.Context, teacherID int64, status bool, weekStart time.Time) error {
	return setTeacherStatus(ctx, t.tx, teacherID, status, weekStart)
}

func (t *lessonTx) NotifyTableUpdate(ctx context.Context, teacherIDs, studentIDs []int64) error {
	batch := &pgx.Batch{}
	for _, id := range teacherIDs {
		batch.Queue(`
			WITH n AS (
				INSERT INTO notifications (role, teacher_id) VALUES ('update-table', $1) RETURNING id
			)
			INSERT INTO notification_views (notification_id, audience, account_id)
			SELECT n.id, 'teacher', $1 FROM n`, id)
	}
	for _, id := range studentIDs {
		batch.Queue(`INSERT INTO notifications (role, student_id) VALUES ('update-table', $1)`, id)
	}
	if batch.Len() == 0 {
		return nil
	}
	return t.tx.SendBatch(ctx, batch).Close()
}
