package dbrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Notification Repository ==============================
type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) list(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*models.Notification{}
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.Role, &n.StudentID, &n.StudentName, &n.TeacherID, &n.CourseID,
			&n.StudentViewed, &n.Viewed, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// ForAudience returns the notifications addressed to one admin or teacher,
// with the viewed flag of that account.
func (r *NotificationRepo) ForAudience(ctx context.Context, audience string, accountID int64) ([]*models.Notification, error) {
	return r.list(ctx, `
		SELECT n.id, n.role, n.student_id, COALESCE(s.full_name, ''), n.teacher_id, n.course_id,
		       n.student_viewed, v.viewed, n.created_at
		FROM notifications n
		JOIN notification_views v ON v.notification_id = n.id
		LEFT JOIN students s ON s.id = n.student_id
		WHERE v.audience = $1 AND v.account_id = $2
		ORDER BY n.created_at DESC, n.id DESC`, audience, accountID)
}

// ForStudent returns the timetable notifications of a student
func (r *NotificationRepo) ForStudent(ctx context.Context, studentID int64) ([]*models.Notification, error) {
	return r.list(ctx, `
		SELECT n.id, n.role, n.student_id, s.full_name, n.teacher_id, n.course_id,
		       n.student_viewed, n.student_viewed, n.created_at
		FROM notifications n
		JOIN students s ON s.id = n.student_id
		WHERE n.role = 'update-table' AND n.student_id = $1
		ORDER BY n.created_at DESC, n.id DESC`, studentID)
}

// MarkViewed marks the caller's notifications as seen
func (r *NotificationRepo) MarkViewed(ctx context.Context, kind string, accountID int64, ids []int64) error {
	switch kind {
	case models.KindAdmin, models.KindTeacher:
		_, err := r.db.Exec(ctx, `
			UPDATE notification_views SET viewed = TRUE
			WHERE audience = $1 AND account_id = $2 AND notification_id = ANY($3)`, kind, accountID, ids)
		return err
	case models.KindStudent:
		_, err := r.db.Exec(ctx, `
			UPDATE notifications SET student_viewed = TRUE
			WHERE role = 'update-table' AND student_id = $1 AND id = ANY($2)`, accountID, ids)
		return err
	}
	return fmt.Errorf("%s accounts have no notifications", kind)
}

// SyncBirthdays creates one birthday notification per student whose birthday
// falls within days of today, addressed to every admin and active teacher, and
// removes the notifications of birthdays already past. It returns (created, removed).
func (r *NotificationRepo) SyncBirthdays(ctx context.Context, today time.Time, days int) (int64, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM notifications WHERE role = 'birthday' AND notified_on < $1::date`, today)
	if err != nil {
		return 0, 0, fmt.Errorf("remove old birthdays: %w", err)
	}
	removed := tag.RowsAffected()

	ids, err := insertBirthdays(ctx, tx, today, days, 0)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return int64(len(ids)), removed, nil
}

// insertBirthdays raises the missing birthday notifications of the window
// starting at today, for one student or for everyone when studentID is 0
func insertBirthdays(ctx context.Context, tx pgx.Tx, today time.Time, days int, studentID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, `
		WITH upcoming AS (
			SELECT s.id, $1::date + d.n AS day
			FROM students s, generate_series(0, $2::int) AS d(n)
			WHERE NOT s.deleted AND s.status AND s.birthday IS NOT NULL
			  AND ($3::bigint = 0 OR s.id = $3::bigint)
			  AND to_char(s.birthday, 'MM-DD') = to_char($1::date + d.n, 'MM-DD')
		)
		INSERT INTO notifications (role, student_id, notified_on)
		SELECT 'birthday', id, day FROM upcoming
		ON CONFLICT (student_id, notified_on) WHERE role = 'birthday' DO NOTHING
		RETURNING id`, today, days, studentID)
	ids, err := collectIDs(rows, err)
	if err != nil {
		return nil, fmt.Errorf("create birthdays: %w", err)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO notification_views (notification_id, audience, account_id)
		SELECT n, 'admin', a.id FROM unnest($1::bigint[]) n CROSS JOIN admins a`, ids)
	batch.Queue(`
		INSERT INTO notification_views (notification_id, audience, account_id)
		SELECT n, 'teacher', t.id FROM unnest($1::bigint[]) n CROSS JOIN teachers t
		WHERE t.status AND NOT t.deleted`, ids)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("birthday audience: %w", err)
	}
	return ids, nil
}

// syncStudentBirthday drops the student's birthday notifications that no longer
// match their birthday or status, then raises the ones due from today
func syncStudentBirthday(ctx context.Context, tx pgx.Tx, studentID int64, today time.Time) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM notifications n USING students s
		WHERE n.role = 'birthday' AND n.student_id = $1 AND s.id = n.student_id
		  AND (s.birthday IS NULL OR NOT s.status OR s.deleted
		       OR to_char(s.birthday, 'MM-DD') <> to_char(n.notified_on, 'MM-DD'))`, studentID)
	if err != nil {
		return fmt.Errorf("drop stale birthdays: %w", err)
	}
	_, err = insertBirthdays(ctx, tx, today, models.BirthdayWindowDays, studentID)
	return err
}

// ensureCountNotification raises the single count notification of (student,
// course) for every admin, unless it already exists
func ensureCountNotification(ctx context.Context, q querier, studentID, courseID int64) error {
	_, err := q.Exec(ctx, `
		WITH n AS (
			INSERT INTO notifications (role, student_id, course_id) VALUES ('count', $1, $2)
			ON CONFLICT (student_id, course_id) WHERE role = 'count' DO NOTHING
			RETURNING id
		)
		INSERT INTO notification_views (notification_id, audience, account_id)
		SELECT n.id, 'admin', a.id FROM n CROSS JOIN admins a`, studentID, courseID)
	return err
}

func deleteCountNotification(ctx context.Context, q querier, studentID, courseID int64) error {
	_, err := q.Exec(ctx, `DELETE FROM notifications WHERE role = 'count' AND student_id = $1 AND course_id = $2`, studentID, courseID)
	return err
}

// syncCountNotification keeps exactly one count notification while amount is
// at or below zero and none above it
func syncCountNotification(ctx context.Context, q querier, studentID, courseID int64, amount int) error {
	if amount <= 0 {
		return ensureCountNotification(ctx, q, studentID, courseID)
	}
	return deleteCountNotification(ctx, q, studentID, courseID)
}
