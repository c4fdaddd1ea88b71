// Package cascade applies lesson changes together with everything derived from
// them: student lesson counters, monthly salary, earnings and leaderboard rows,
// and the notifications those changes raise. Every change runs in a single
// store transaction, so a failure anywhere leaves no partial state behind.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/metrics"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// Tx is the store as seen from inside one transaction
type Tx interface {
	LockLesson(ctx context.Context, id int64) (*models.Lesson, error)
	InsertLesson(ctx context.Context, l *models.Lesson) error
	SaveLesson(ctx context.Context, l *models.Lesson) error
	DeleteLesson(ctx context.Context, id int64) error

	TeacherScheme(ctx context.Context, teacherID int64) (models.PayScheme, error)
	StudentPayments(ctx context.Context, studentIDs []int64) (map[int64]float64, error)

	// LockKey serializes transactions on key until commit or rollback
	LockKey(ctx context.Context, key string) error
	TeacherLessons(ctx context.Context, teacherID int64, r daterange.Range) ([]*models.Lesson, error)
	ConfirmedLessons(ctx context.Context, r daterange.Range) ([]*models.Lesson, error)
	Salary(ctx context.Context, teacherID int64, period time.Time) (*models.Salary, error)
	UpsertSalary(ctx context.Context, s *models.Salary) error
	UpsertEarning(ctx context.Context, e *models.Earning) error
	UpsertLeaderboard(ctx context.Context, lb *models.Leaderboard) error

	// AdjustLessonAmount adds delta to the counter, creating it at zero first,
	// and returns the new value. models.ErrNotFound means no such student.
	AdjustLessonAmount(ctx context.Context, k AmountKey, delta int) (int, error)
	EnsureCountNotification(ctx context.Context, k AmountKey) error
	DeleteCountNotification(ctx context.Context, k AmountKey) error
	NotifyTableUpdate(ctx context.Context, teacherIDs, studentIDs []int64) error

	// SaveTeacher writes t's profile, courses and pay scheme, fills t's stored
	// fields and returns the scheme it replaced
	SaveTeacher(ctx context.Context, t *models.Teacher) (models.PayScheme, error)
	// SetTeacherStatus activates or deactivates a teacher. Deactivation fails
	// with models.ErrHasCurrentLessons while the teacher has current lessons
	// from weekStart on, and drops their main lessons otherwise.
	SetTeacherStatus(ctx context.Context, teacherID int64, status bool, weekStart time.Time) error
}

// Store opens transactions. fn's error rolls the transaction back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// RowPatch changes one student's row of a lesson
type RowPatch struct {
	StudentID       int64   `json:"student_id" validate:"required"`
	Attendance      *int    `json:"attendance" validate:"omitempty,oneof=-1 0 1 2"`
	RatingByStudent *int    `json:"rating_by_student" validate:"omitempty,gte=0,lte=5"`
	Feedback        *string `json:"feedback"`
}

// LessonPatch is a partial lesson update. A non-nil Students replaces the
// whole student list; Rows edits single rows of the resulting list.
type LessonPatch struct {
	TeacherID *int64                 `json:"teacher_id"`
	CourseID  *int64                 `json:"course_id"`
	Date      *time.Time             `json:"date"`
	Day       *int                   `json:"day" validate:"omitempty,gte=1,lte=7"`
	Time      *string                `json:"time"`
	Status    *string                `json:"status" validate:"omitempty,oneof=unviewed confirmed cancelled"`
	Note      *string                `json:"note"`
	Task      *string                `json:"task"`
	Students  []models.LessonStudent `json:"students" validate:"dive"`
	Rows      []RowPatch             `json:"rows" validate:"dive"`
}

func badRequest(key, format string, args ...any) error {
	return &models.KeyError{Status: http.StatusBadRequest, Key: key, Message: fmt.Sprintf(format, args...)}
}

func (p *LessonPatch) apply(l *models.Lesson) error {
	if p.TeacherID != nil {
		l.TeacherID = *p.TeacherID
	}
	if p.CourseID != nil {
		l.CourseID = *p.CourseID
	}
	if p.Date != nil {
		d := *p.Date
		l.Date = &d
	}
	if p.Day != nil {
		l.Day = *p.Day
	}
	if p.Time != nil {
		l.Time = *p.Time
	}
	if p.Status != nil {
		switch *p.Status {
		case models.StatusUnviewed, models.StatusConfirmed, models.StatusCancelled:
			l.Status = *p.Status
		default:
			return badRequest("invalid-status", "unknown status %q", *p.Status)
		}
	}
	if p.Note != nil {
		l.Note = *p.Note
	}
	if p.Task != nil {
		l.Task = *p.Task
	}
	if p.Students != nil {
		previous := make(map[int64]float64, len(l.Students))
		for _, s := range l.Students {
			previous[s.StudentID] = s.Payment
		}
		seen := make(map[int64]bool, len(p.Students))
		students := make([]models.LessonStudent, 0, len(p.Students))
		for _, s := range p.Students {
			if seen[s.StudentID] {
				return badRequest("duplicate-student", "student %d listed twice", s.StudentID)
			}
			seen[s.StudentID] = true
			if s.Payment == 0 {
				s.Payment = previous[s.StudentID]
			}
			students = append(students, s)
		}
		l.Students = students
	}
	for _, row := range p.Rows {
		i := indexOf(l.Students, row.StudentID)
		if i < 0 {
			return badRequest("student-not-in-lesson", "student %d is not in lesson %d", row.StudentID, l.ID)
		}
		if row.Attendance != nil {
			l.Students[i].Attendance = *row.Attendance
		}
		if row.RatingByStudent != nil {
			l.Students[i].RatingByStudent = *row.RatingByStudent
		}
		if row.Feedback != nil {
			l.Students[i].Feedback = *row.Feedback
		}
	}
	return nil
}

func indexOf(students []models.LessonStudent, id int64) int {
	for i, s := range students {
		if s.StudentID == id {
			return i
		}
	}
	return -1
}

func (s *Service) run(ctx context.Context, op string, fn func(tx Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	metrics.CascadeRuns.WithLabelValues(op, metrics.Outcome(err)).Inc()
	return err
}

// CreateLesson stores a new lesson with the teacher's current pay scheme.
// Students without a payment get their own current payment.
func (s *Service) CreateLesson(ctx context.Context, l *models.Lesson) error {
	if l.Status == "" {
		l.Status = models.StatusUnviewed
	}
	if l.Role == models.LessonCurrent && l.Date == nil {
		return badRequest("date-required", "a current lesson needs a date")
	}
	return s.run(ctx, "create", func(tx Tx) error {
		scheme, err := tx.TeacherScheme(ctx, l.TeacherID)
		if err != nil {
			return fmt.Errorf("teacher scheme: %w", err)
		}
		l.Salary = scheme
		if err := fillPayments(ctx, tx, l); err != nil {
			return err
		}
		l.Earnings = LessonEarnings(l.Students)
		if err := lockAggregates(ctx, tx, nil, l); err != nil {
			return err
		}
		if err := tx.InsertLesson(ctx, l); err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}
		return settle(ctx, tx, nil, l)
	})
}

// UpdateLesson applies patch to lesson id and brings every derived row in line
// with the result.
func (s *Service) UpdateLesson(ctx context.Context, id int64, patch LessonPatch) (*models.Lesson, error) {
	return s.UpdateLessonGuarded(ctx, id, patch, nil)
}

// UpdateLessonGuarded is UpdateLesson with guard checked against the locked
// lesson before anything is written. A guard error aborts the update.
func (s *Service) UpdateLessonGuarded(ctx context.Context, id int64, patch LessonPatch, guard func(current *models.Lesson) error) (*models.Lesson, error) {
	var result *models.Lesson
	err := s.run(ctx, "update", func(tx Tx) error {
		old, err := tx.LockLesson(ctx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(old); err != nil {
				return err
			}
		}
		updated := old.Clone()
		if err := patch.apply(updated); err != nil {
			return err
		}
		if updated.Role == models.LessonCurrent && updated.Date == nil {
			return badRequest("date-required", "a current lesson needs a date")
		}
		if updated.TeacherID != old.TeacherID {
			scheme, err := tx.TeacherScheme(ctx, updated.TeacherID)
			if err != nil {
				return fmt.Errorf("teacher scheme: %w", err)
			}
			updated.Salary = scheme
		}
		if err := fillPayments(ctx, tx, updated); err != nil {
			return err
		}
		updated.Earnings = LessonEarnings(updated.Students)

		if err := lockAggregates(ctx, tx, old, updated); err != nil {
			return err
		}
		if err := tx.SaveLesson(ctx, updated); err != nil {
			return fmt.Errorf("save lesson: %w", err)
		}
		if err := settle(ctx, tx, old, updated); err != nil {
			return err
		}
		result = updated
		return nil
	})
	return result, err
}

// DeleteLesson removes a lesson. A confirmed lesson hands its lessons back to
// the students before the aggregates are rebuilt without it.
func (s *Service) DeleteLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	var deleted *models.Lesson
	err := s.run(ctx, "delete", func(tx Tx) error {
		old, err := tx.LockLesson(ctx, id)
		if err != nil {
			return err
		}
		if err := lockAggregates(ctx, tx, old, nil); err != nil {
			return err
		}
		if err := tx.DeleteLesson(ctx, id); err != nil {
			return fmt.Errorf("delete lesson: %w", err)
		}
		if err := settle(ctx, tx, old, nil); err != nil {
			return err
		}
		deleted = old
		return nil
	})
	return deleted, err
}

// Recompute rebuilds the salary and leaderboard rows of (teacher, month) and
// the month's earnings. A non-nil scheme replaces the scheme of that month.
func (s *Service) Recompute(ctx context.Context, teacherID int64, month time.Time, scheme *models.PayScheme) (*models.Salary, error) {
	var salary *models.Salary
	err := s.run(ctx, "recompute", func(tx Tx) error {
		period := daterange.MonthStart(month)
		if err := lockKeys(ctx, tx, []string{salaryKey(teacherID, period), earningKey(period)}); err != nil {
			return err
		}
		var err error
		salary, err = recomputeTeacher(ctx, tx, teacherID, period, scheme)
		if err != nil {
			return err
		}
		return recomputeEarning(ctx, tx, period)
	})
	return salary, err
}

// UpdateTeacher saves a teacher together with what depends on them. The status
// change runs first, so a refused deactivation writes nothing. A changed pay
// scheme replaces the scheme of now's month, whose salary is recomputed.
func (s *Service) UpdateTeacher(ctx context.Context, t *models.Teacher, status *bool, now time.Time) error {
	return s.run(ctx, "teacher", func(tx Tx) error {
		if status != nil {
			if err := tx.SetTeacherStatus(ctx, t.ID, *status, daterange.Week(now).Start); err != nil {
				return err
			}
		}
		previous, err := tx.SaveTeacher(ctx, t)
		if err != nil {
			return err
		}
		if previous == t.Salary {
			return nil
		}
		period := daterange.MonthStart(now)
		if err := lockKeys(ctx, tx, []string{salaryKey(t.ID, period)}); err != nil {
			return err
		}
		_, err = recomputeTeacher(ctx, tx, t.ID, period, &t.Salary)
		return err
	})
}

func fillPayments(ctx context.Context, tx Tx, l *models.Lesson) error {
	var missing []int64
	for _, st := range l.Students {
		if st.Payment == 0 {
			missing = append(missing, st.StudentID)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	payments, err := tx.StudentPayments(ctx, missing)
	if err != nil {
		return fmt.Errorf("student payments: %w", err)
	}
	for i := range l.Students {
		if l.Students[i].Payment == 0 {
			l.Students[i].Payment = payments[l.Students[i].StudentID]
		}
	}
	return nil
}

type period struct {
	teacherID int64
	month     time.Time
}

func affected(lessons ...*models.Lesson) (periods []period, months []time.Time) {
	seenPeriod := map[period]bool{}
	seenMonth := map[time.Time]bool{}
	for _, l := range lessons {
		if l == nil || l.Role != models.LessonCurrent || l.Date == nil {
			continue
		}
		m := daterange.MonthStart(*l.Date)
		p := period{teacherID: l.TeacherID, month: m}
		if !seenPeriod[p] {
			seenPeriod[p] = true
			periods = append(periods, p)
		}
		if !seenMonth[m] {
			seenMonth[m] = true
			months = append(months, m)
		}
	}
	return periods, months
}

func salaryKey(teacherID int64, month time.Time) string {
	return fmt.Sprintf("salary:%d:%s", teacherID, month.Format("2006-01"))
}

func earningKey(month time.Time) string {
	return "earning:" + month.Format("2006-01")
}

func lockAggregates(ctx context.Context, tx Tx, old, updated *models.Lesson) error {
	periods, months := affected(old, updated)
	keys := make([]string, 0, len(periods)+len(months))
	for _, p := range periods {
		keys = append(keys, salaryKey(p.teacherID, p.month))
	}
	for _, m := range months {
		keys = append(keys, earningKey(m))
	}
	return lockKeys(ctx, tx, keys)
}

// lockKeys takes the locks in sorted order so two transactions never wait on
// each other in a cycle.
func lockKeys(ctx context.Context, tx Tx, keys []string) error {
	sort.Strings(keys)
	for _, k := range keys {
		if err := tx.LockKey(ctx, k); err != nil {
			return fmt.Errorf("lock %s: %w", k, err)
		}
	}
	return nil
}

func settle(ctx context.Context, tx Tx, old, updated *models.Lesson) error {
	if err := adjustLessonAmounts(ctx, tx, LessonAmountDeltas(old, updated)); err != nil {
		return err
	}
	if tableChanged(old, updated) {
		teachers, students := audience(old, updated)
		if err := tx.NotifyTableUpdate(ctx, teachers, students); err != nil {
			return fmt.Errorf("table notification: %w", err)
		}
	}
	periods, months := affected(old, updated)
	for _, p := range periods {
		if _, err := recomputeTeacher(ctx, tx, p.teacherID, p.month, nil); err != nil {
			return err
		}
	}
	for _, m := range months {
		if err := recomputeEarning(ctx, tx, m); err != nil {
			return err
		}
	}
	return nil
}

func adjustLessonAmounts(ctx context.Context, tx Tx, deltas map[AmountKey]int) error {
	for _, k := range SortedKeys(deltas) {
		amount, err := tx.AdjustLessonAmount(ctx, k, deltas[k])
		if errors.Is(err, models.ErrNotFound) {
			return &models.KeyError{
				Status:  models.ErrLessonAmountConflict.Status,
				Key:     models.ErrLessonAmountConflict.Key,
				Message: fmt.Sprintf("no lesson counter for student %d", k.StudentID),
			}
		}
		if err != nil {
			return fmt.Errorf("adjust lesson amount: %w", err)
		}
		if amount <= 0 {
			err = tx.EnsureCountNotification(ctx, k)
		} else {
			err = tx.DeleteCountNotification(ctx, k)
		}
		if err != nil {
			return fmt.Errorf("count notification: %w", err)
		}
	}
	return nil
}

func isCurrent(l *models.Lesson) bool {
	return l != nil && l.Role == models.LessonCurrent
}

func sameStudents(a, b []models.LessonStudent) bool {
	if len(a) != len(b) {
		return false
	}
	for _, s := range a {
		if indexOf(b, s.StudentID) < 0 {
			return false
		}
	}
	return true
}

func tableChanged(old, updated *models.Lesson) bool {
	if !isCurrent(old) && !isCurrent(updated) {
		return false
	}
	if !isCurrent(old) || !isCurrent(updated) {
		return true
	}
	if old.TeacherID != updated.TeacherID || old.Time != updated.Time || old.Day != updated.Day {
		return true
	}
	if !old.Date.Equal(*updated.Date) {
		return true
	}
	return !sameStudents(old.Students, updated.Students)
}

func audience(lessons ...*models.Lesson) (teachers, students []int64) {
	seenT := map[int64]bool{}
	seenS := map[int64]bool{}
	for _, l := range lessons {
		if !isCurrent(l) {
			continue
		}
		if !seenT[l.TeacherID] {
			seenT[l.TeacherID] = true
			teachers = append(teachers, l.TeacherID)
		}
		for _, s := range l.Students {
			if !seenS[s.StudentID] {
				seenS[s.StudentID] = true
				students = append(students, s.StudentID)
			}
		}
	}
	return teachers, students
}

func recomputeTeacher(ctx context.Context, tx Tx, teacherID int64, month time.Time, override *models.PayScheme) (*models.Salary, error) {
	r := daterange.MonthOf(month)
	lessons, err := tx.TeacherLessons(ctx, teacherID, r)
	if err != nil {
		return nil, fmt.Errorf("teacher lessons: %w", err)
	}
	existing, err := tx.Salary(ctx, teacherID, r.Start)
	if err != nil {
		return nil, fmt.Errorf("load salary: %w", err)
	}
	var scheme models.PayScheme
	switch {
	case override != nil:
		scheme = *override
	case existing != nil:
		scheme = existing.Scheme
	default:
		if scheme, err = tx.TeacherScheme(ctx, teacherID); err != nil {
			return nil, fmt.Errorf("teacher scheme: %w", err)
		}
	}

	salary := DeriveSalary(teacherID, r.Start, scheme, lessons)
	if existing != nil {
		salary.ID = existing.ID
		salary.BonusID = existing.BonusID
	}
	if err := tx.UpsertSalary(ctx, &salary); err != nil {
		return nil, fmt.Errorf("upsert salary: %w", err)
	}
	lb := DeriveLeaderboard(teacherID, r.Start, lessons)
	if err := tx.UpsertLeaderboard(ctx, &lb); err != nil {
		return nil, fmt.Errorf("upsert leaderboard: %w", err)
	}
	return &salary, nil
}

func recomputeEarning(ctx context.Context, tx Tx, month time.Time) error {
	r := daterange.MonthOf(month)
	lessons, err := tx.ConfirmedLessons(ctx, r)
	if err != nil {
		return fmt.Errorf("confirmed lessons: %w", err)
	}
	e := DeriveEarning(r.Start, lessons)
	if err := tx.UpsertEarning(ctx, &e); err != nil {
		return fmt.Errorf("upsert earning: %w", err)
	}
	return nil
}
