package cascade

import (
	"context"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

type periodKey struct {
	teacherID int64
	month     string
}

func keyOf(teacherID int64, t time.Time) periodKey {
	return periodKey{teacherID: teacherID, month: t.Format("2006-01")}
}

type tableNote struct {
	teachers []int64
	students []int64
}

// memState is an in-memory copy of everything the cascade touches
type memState struct {
	lessons      map[int64]*models.Lesson
	nextLesson   int64
	schemes      map[int64]models.PayScheme
	teachers     map[int64]models.Teacher
	payments     map[int64]float64
	amounts      map[AmountKey]int
	countNotes   map[AmountKey]int
	tableNotes   []tableNote
	salaries     map[periodKey]models.Salary
	nextSalary   int64
	earnings     map[string]models.Earning
	leaderboards map[periodKey]models.Leaderboard
}

func newMemState() *memState {
	return &memState{
		lessons:      map[int64]*models.Lesson{},
		schemes:      map[int64]models.PayScheme{},
		teachers:     map[int64]models.Teacher{},
		payments:     map[int64]float64{},
		amounts:      map[AmountKey]int{},
		countNotes:   map[AmountKey]int{},
		salaries:     map[periodKey]models.Salary{},
		earnings:     map[string]models.Earning{},
		leaderboards: map[periodKey]models.Leaderboard{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for id, l := range s.lessons {
		c.lessons[id] = l.Clone()
	}
	c.nextLesson = s.nextLesson
	for k, v := range s.schemes {
		c.schemes[k] = v
	}
	for k, v := range s.teachers {
		c.teachers[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.amounts {
		c.amounts[k] = v
	}
	for k, v := range s.countNotes {
		c.countNotes[k] = v
	}
	c.tableNotes = append([]tableNote(nil), s.tableNotes...)
	for k, v := range s.salaries {
		c.salaries[k] = v
	}
	c.nextSalary = s.nextSalary
	for k, v := range s.earnings {
		c.earnings[k] = v
	}
	for k, v := range s.leaderboards {
		c.leaderboards[k] = v
	}
	return c
}

// memStore commits a transaction's copy only when fn succeeds. fail makes the
// named write ("adjust", "salary") return its error.
type memStore struct {
	state *memState
	locks [][]string
	fail  map[string]error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memTx{st: m.state.clone(), fail: m.fail}
	err := fn(tx)
	m.locks = append(m.locks, tx.locks)
	if err != nil {
		return err
	}
	m.state = tx.st
	return nil
}

type memTx struct {
	st    *memState
	locks []string
	fail  map[string]error
}

// knownStudents fails like the lesson_students foreign key on an unknown student
func (t *memTx) knownStudents(l *models.Lesson) error {
	for _, s := range l.Students {
		if _, ok := t.st.payments[s.StudentID]; !ok {
			return models.ErrStudentNotFound
		}
	}
	return nil
}

func (t *memTx) LockLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	l, ok := t.st.lessons[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return l.Clone(), nil
}

func (t *memTx) InsertLesson(ctx context.Context, l *models.Lesson) error {
	if err := t.knownStudents(l); err != nil {
		return err
	}
	t.st.nextLesson++
	l.ID = t.st.nextLesson
	t.st.lessons[l.ID] = l.Clone()
	return nil
}

func (t *memTx) SaveLesson(ctx context.Context, l *models.Lesson) error {
	if _, ok := t.st.lessons[l.ID]; !ok {
		return models.ErrNotFound
	}
	if err := t.knownStudents(l); err != nil {
		return err
	}
	t.st.lessons[l.ID] = l.Clone()
	return nil
}

func (t *memTx) DeleteLesson(ctx context.Context, id int64) error {
	delete(t.st.lessons, id)
	return nil
}

func (t *memTx) TeacherScheme(ctx context.Context, teacherID int64) (models.PayScheme, error) {
	s, ok := t.st.schemes[teacherID]
	if !ok {
		return models.PayScheme{}, models.ErrNotFound
	}
	return s, nil
}

func (t *memTx) StudentPayments(ctx context.Context, ids []int64) (map[int64]float64, error) {
	out := map[int64]float64{}
	for _, id := range ids {
		if p, ok := t.st.payments[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memTx) LockKey(ctx context.Context, key string) error {
	t.locks = append(t.locks, key)
	return nil
}

func (t *memTx) TeacherLessons(ctx context.Context, teacherID int64, r daterange.Range) ([]*models.Lesson, error) {
	var out []*models.Lesson
	for _, l := range t.st.lessons {
		if l.Role == models.LessonCurrent && l.TeacherID == teacherID && l.Date != nil && r.Contains(*l.Date) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (t *memTx) ConfirmedLessons(ctx context.Context, r daterange.Range) ([]*models.Lesson, error) {
	var out []*models.Lesson
	for _, l := range t.st.lessons {
		if l.Role == models.LessonCurrent && l.Status == models.StatusConfirmed && l.Date != nil && r.Contains(*l.Date) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (t *memTx) Salary(ctx context.Context, teacherID int64, period time.Time) (*models.Salary, error) {
	s, ok := t.st.salaries[keyOf(teacherID, period)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *memTx) UpsertSalary(ctx context.Context, s *models.Salary) error {
	if err := t.fail["salary"]; err != nil {
		return err
	}
	if s.ID == 0 {
		t.st.nextSalary++
		s.ID = t.st.nextSalary
	}
	t.st.salaries[keyOf(s.TeacherID, s.Period)] = *s
	return nil
}

func (t *memTx) UpsertEarning(ctx context.Context, e *models.Earning) error {
	t.st.earnings[e.Period.Format("2006-01")] = *e
	return nil
}

func (t *memTx) UpsertLeaderboard(ctx context.Context, lb *models.Leaderboard) error {
	t.st.leaderboards[keyOf(lb.TeacherID, lb.Period)] = *lb
	return nil
}

func (t *memTx) AdjustLessonAmount(ctx context.Context, k AmountKey, delta int) (int, error) {
	if err := t.fail["adjust"]; err != nil {
		return 0, err
	}
	if _, ok := t.st.payments[k.StudentID]; !ok {
		return 0, models.ErrNotFound
	}
	t.st.amounts[k] += delta
	return t.st.amounts[k], nil
}

func (t *memTx) EnsureCountNotification(ctx context.Context, k AmountKey) error {
	t.st.countNotes[k] = 1
	return nil
}

func (t *memTx) DeleteCountNotification(ctx context.Context, k AmountKey) error {
	delete(t.st.countNotes, k)
	return nil
}

func (t *memTx) NotifyTableUpdate(ctx context.Context, teacherIDs, studentIDs []int64) error {
	t.st.tableNotes = append(t.st.tableNotes, tableNote{teachers: teacherIDs, students: studentIDs})
	return nil
}

func (t *memTx) SaveTeacher(ctx context.Context, teacher *models.Teacher) (models.PayScheme, error) {
	stored, ok := t.st.teachers[teacher.ID]
	if !ok {
		return models.PayScheme{}, models.ErrNotFound
	}
	previous := t.st.schemes[teacher.ID]
	teacher.Status = stored.Status
	t.st.teachers[teacher.ID] = *teacher
	t.st.schemes[teacher.ID] = teacher.Salary
	return previous, nil
}

func (t *memTx) SetTeacherStatus(ctx context.Context, teacherID int64, status bool, weekStart time.Time) error {
	stored, ok := t.st.teachers[teacherID]
	if !ok {
		return models.ErrNotFound
	}
	if stored.Status == status {
		return nil
	}
	if !status {
		for _, l := range t.st.lessons {
			if l.TeacherID == teacherID && l.Role == models.LessonCurrent && l.Date != nil && !l.Date.Before(weekStart) {
				return models.ErrHasCurrentLessons
			}
		}
		for id, l := range t.st.lessons {
			if l.TeacherID == teacherID && l.Role == models.LessonMain {
				delete(t.st.lessons, id)
			}
		}
	}
	stored.Status = status
	t.st.teachers[teacherID] = stored
	return nil
}
