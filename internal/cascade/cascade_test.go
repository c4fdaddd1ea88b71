package cascade

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	teacherA int64 = 1
	teacherB int64 = 2
	alice    int64 = 10
	bob      int64 = 11
	carol    int64 = 12
	math     int64 = 7
)

var lessonDay = time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func seededStore() *memStore {
	m := newMemStore()
	m.state.schemes[teacherA] = models.PayScheme{Type: models.PayHourly, Value: 10}
	m.state.schemes[teacherB] = models.PayScheme{Type: models.PayMonthly, Value: 500}
	m.state.teachers[teacherA] = models.Teacher{ID: teacherA, FullName: "Ann", Salary: m.state.schemes[teacherA], Status: true}
	m.state.teachers[teacherB] = models.Teacher{ID: teacherB, FullName: "Ben", Salary: m.state.schemes[teacherB], Status: true}
	m.state.payments[alice] = 30
	m.state.payments[bob] = 25
	m.state.payments[carol] = 40
	m.state.amounts[AmountKey{alice, math}] = 5
	m.state.amounts[AmountKey{bob, math}] = 5
	m.state.amounts[AmountKey{carol, math}] = 1
	return m
}

func currentLesson(teacher int64, students ...int64) *models.Lesson {
	l := &models.Lesson{
		Role:      models.LessonCurrent,
		Date:      ptr(lessonDay),
		Day:       3,
		Time:      "10:00",
		TeacherID: teacher,
		CourseID:  math,
	}
	for _, s := range students {
		l.Students = append(l.Students, models.LessonStudent{StudentID: s})
	}
	return l
}

func salaryOf(m *memStore, teacher int64) models.Salary {
	return m.state.salaries[keyOf(teacher, lessonDay)]
}

func TestConfirmWithOnePresentOneAbsent(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice, bob)
	require.NoError(t, svc.CreateLesson(ctx, l))
	before := salaryOf(store, teacherA)
	assert.Equal(t, 0, before.ParticipantCount)

	updated, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{
		Status: ptr(models.StatusConfirmed),
		Rows: []RowPatch{
			{StudentID: alice, Attendance: ptr(models.AttendancePresent)},
			{StudentID: bob, Attendance: ptr(models.AttendanceAbsent)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 30.0, updated.Earnings)
	after := salaryOf(store, teacherA)
	assert.Equal(t, before.ParticipantCount+1, after.ParticipantCount)
	assert.Equal(t, 1, after.ConfirmedCount)
	assert.Equal(t, 10.0, after.Amount)
	assert.Equal(t, 30.0, store.state.earnings["2024-03"].Earnings)
	assert.Equal(t, 1, store.state.leaderboards[keyOf(teacherA, lessonDay)].LessonCount)

	// an unexcused absence still uses up a paid lesson
	assert.Equal(t, 4, store.state.amounts[AmountKey{alice, math}])
	assert.Equal(t, 4, store.state.amounts[AmountKey{bob, math}])
}

func TestConfirmThenUnconfirmIsNetNoop(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice, bob)
	require.NoError(t, svc.CreateLesson(ctx, l))
	startAmounts := map[AmountKey]int{}
	for k, v := range store.state.amounts {
		startAmounts[k] = v
	}
	startSalary := salaryOf(store, teacherA)

	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{Status: ptr(models.StatusConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, 4, store.state.amounts[AmountKey{alice, math}])

	_, err = svc.UpdateLesson(ctx, l.ID, LessonPatch{Status: ptr(models.StatusUnviewed)})
	require.NoError(t, err)

	assert.Equal(t, startAmounts, store.state.amounts)
	assert.Equal(t, startSalary, salaryOf(store, teacherA))
}

func TestConfirmedToConfirmedMovesCounterBetweenStudents(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice, bob)
	l.Status = models.StatusConfirmed
	require.NoError(t, svc.CreateLesson(ctx, l))

	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{
		Students: []models.LessonStudent{{StudentID: alice}, {StudentID: carol, Attendance: models.AttendancePresent}},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, store.state.amounts[AmountKey{alice, math}])
	assert.Equal(t, 5, store.state.amounts[AmountKey{bob, math}])
	assert.Equal(t, 0, store.state.amounts[AmountKey{carol, math}])
	assert.Equal(t, 1, store.state.countNotes[AmountKey{carol, math}])
	assert.Equal(t, 40.0, store.state.lessons[l.ID].Earnings, "new student payment is taken from the student")
}

func TestZeroCrossingNotification(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)
	k := AmountKey{carol, math}

	first := currentLesson(teacherA, carol)
	require.NoError(t, svc.CreateLesson(ctx, first))
	second := currentLesson(teacherA, carol)
	require.NoError(t, svc.CreateLesson(ctx, second))

	_, err := svc.UpdateLesson(ctx, first.ID, LessonPatch{Status: ptr(models.StatusConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, 0, store.state.amounts[k])
	assert.Equal(t, 1, store.state.countNotes[k])

	// going below zero keeps a single notification
	_, err = svc.UpdateLesson(ctx, second.ID, LessonPatch{Status: ptr(models.StatusConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, -1, store.state.amounts[k])
	assert.Len(t, store.state.countNotes, 1)

	_, err = svc.UpdateLesson(ctx, second.ID, LessonPatch{Status: ptr(models.StatusCancelled)})
	require.NoError(t, err)
	_, err = svc.UpdateLesson(ctx, first.ID, LessonPatch{Status: ptr(models.StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 1, store.state.amounts[k])
	assert.NotContains(t, store.state.countNotes, k)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice, bob)
	require.NoError(t, svc.CreateLesson(ctx, l))
	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{
		Status: ptr(models.StatusConfirmed),
		Rows:   []RowPatch{{StudentID: alice, Attendance: ptr(1), RatingByStudent: ptr(5)}},
	})
	require.NoError(t, err)
	afterUpdate := salaryOf(store, teacherA)

	first, err := svc.Recompute(ctx, teacherA, lessonDay, nil)
	require.NoError(t, err)
	second, err := svc.Recompute(ctx, teacherA, lessonDay, nil)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.Equal(t, afterUpdate, *second)
	assert.Equal(t, 5, store.state.leaderboards[keyOf(teacherA, lessonDay)].StarCount)
}

func TestRecomputeWithNewScheme(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice, bob)
	l.Status = models.StatusConfirmed
	l.Students[0].Attendance = models.AttendancePresent
	l.Students[1].Attendance = models.AttendancePresent
	require.NoError(t, svc.CreateLesson(ctx, l))
	assert.Equal(t, 20.0, salaryOf(store, teacherA).Amount)

	s, err := svc.Recompute(ctx, teacherA, lessonDay, &models.PayScheme{Type: models.PayHourly, Value: 15})
	require.NoError(t, err)
	assert.Equal(t, 30.0, s.Amount)

	// the month keeps its scheme on later rescans
	s, err = svc.Recompute(ctx, teacherA, lessonDay, nil)
	require.NoError(t, err)
	assert.Equal(t, 30.0, s.Amount)
}

func TestMonthlySchemePaysFlatValue(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	for i := 0; i < 3; i++ {
		l := currentLesson(teacherB, alice)
		l.Status = models.StatusConfirmed
		l.Students[0].Attendance = models.AttendancePresent
		require.NoError(t, svc.CreateLesson(ctx, l))
	}
	s := salaryOf(store, teacherB)
	assert.Equal(t, 3, s.ConfirmedCount)
	assert.Equal(t, 3, s.ParticipantCount)
	assert.Equal(t, 500.0, s.Amount)
}

func TestFailedCounterAdjustmentRollsBackLesson(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice, bob)
	require.NoError(t, svc.CreateLesson(ctx, l))
	boom := errors.New("counter write failed")
	store.fail = map[string]error{"adjust": boom}

	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{Status: ptr(models.StatusConfirmed)})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, models.StatusUnviewed, store.state.lessons[l.ID].Status)
	assert.Equal(t, 5, store.state.amounts[AmountKey{alice, math}])
	assert.Equal(t, 0, salaryOf(store, teacherA).ConfirmedCount)
}

func TestVanishedStudentIsAmountConflict(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice)
	require.NoError(t, svc.CreateLesson(ctx, l))
	store.fail = map[string]error{"adjust": models.ErrNotFound}

	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{Status: ptr(models.StatusConfirmed)})

	var keyErr *models.KeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, models.ErrLessonAmountConflict.Key, keyErr.Key)
	assert.Equal(t, models.StatusUnviewed, store.state.lessons[l.ID].Status)
}

func TestMissingCounterStartsAtZero(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)
	const dave int64 = 13
	store.state.payments[dave] = 20 // enrolled in no course

	l := currentLesson(teacherA, dave)
	l.Status = models.StatusConfirmed
	require.NoError(t, svc.CreateLesson(ctx, l))

	k := AmountKey{dave, math}
	assert.Equal(t, -1, store.state.amounts[k])
	assert.Equal(t, 1, store.state.countNotes[k])
}

func TestUnknownStudentIsRejected(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	err := New(store).CreateLesson(ctx, currentLesson(teacherA, alice, 99))

	require.ErrorIs(t, err, models.ErrStudentNotFound)
	assert.Empty(t, store.state.lessons)
	assert.Empty(t, store.state.salaries)
}

func TestTeacherChangeRebuildsBothTeachers(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice)
	l.Status = models.StatusConfirmed
	l.Students[0].Attendance = models.AttendancePresent
	require.NoError(t, svc.CreateLesson(ctx, l))
	require.Equal(t, 1, salaryOf(store, teacherA).ConfirmedCount)

	updated, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{TeacherID: ptr(teacherB)})
	require.NoError(t, err)

	assert.Equal(t, models.PayMonthly, updated.Salary.Type)
	assert.Equal(t, 0, salaryOf(store, teacherA).ConfirmedCount)
	assert.Equal(t, 1, salaryOf(store, teacherB).ConfirmedCount)
	last := store.state.tableNotes[len(store.state.tableNotes)-1]
	assert.ElementsMatch(t, []int64{teacherA, teacherB}, last.teachers)
}

func TestDeleteConfirmedLessonReturnsLessons(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, carol)
	l.Status = models.StatusConfirmed
	l.Students[0].Attendance = models.AttendancePresent
	require.NoError(t, svc.CreateLesson(ctx, l))
	require.Equal(t, 1, store.state.countNotes[AmountKey{carol, math}])

	deleted, err := svc.DeleteLesson(ctx, l.ID)
	require.NoError(t, err)

	assert.Equal(t, l.ID, deleted.ID)
	assert.NotContains(t, store.state.lessons, l.ID)
	assert.Equal(t, 1, store.state.amounts[AmountKey{carol, math}])
	assert.Empty(t, store.state.countNotes)
	assert.Equal(t, 0, salaryOf(store, teacherA).ConfirmedCount)
	assert.Equal(t, 0.0, store.state.earnings["2024-03"].Earnings)
}

func TestMainLessonsDoNotCascade(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice)
	l.Role = models.LessonMain
	l.Date = nil
	l.Status = models.StatusConfirmed
	require.NoError(t, svc.CreateLesson(ctx, l))

	assert.Empty(t, store.state.tableNotes)
	assert.Empty(t, store.state.salaries)
	assert.Equal(t, 5, store.state.amounts[AmountKey{alice, math}])
}

func TestCurrentLessonNeedsDate(t *testing.T) {
	svc := New(seededStore())
	l := currentLesson(teacherA, alice)
	l.Date = nil

	err := svc.CreateLesson(context.Background(), l)

	var keyErr *models.KeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, "date-required", keyErr.Key)
}

func TestUnknownRowIsRejected(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)
	l := currentLesson(teacherA, alice)
	require.NoError(t, svc.CreateLesson(ctx, l))

	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{Rows: []RowPatch{{StudentID: bob, Attendance: ptr(1)}}})

	var keyErr *models.KeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, "student-not-in-lesson", keyErr.Key)
}

func TestLocksAreTakenInOrder(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherB, alice)
	require.NoError(t, svc.CreateLesson(ctx, l))
	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{TeacherID: ptr(teacherA)})
	require.NoError(t, err)

	locks := store.locks[len(store.locks)-1]
	assert.Equal(t, []string{"earning:2024-03", "salary:1:2024-03", "salary:2:2024-03"}, locks)
	assert.True(t, sort.StringsAreSorted(locks))
}

func TestUpdateMissingLesson(t *testing.T) {
	_, err := New(seededStore()).UpdateLesson(context.Background(), 99, LessonPatch{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRefusedDeactivationWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)
	require.NoError(t, svc.CreateLesson(ctx, currentLesson(teacherA, alice)))

	teacher := models.Teacher{ID: teacherA, FullName: "Renamed", Salary: models.PayScheme{Type: models.PayHourly, Value: 99}}
	err := svc.UpdateTeacher(ctx, &teacher, ptr(false), lessonDay)

	require.ErrorIs(t, err, models.ErrHasCurrentLessons)
	assert.Equal(t, "Ann", store.state.teachers[teacherA].FullName)
	assert.True(t, store.state.teachers[teacherA].Status)
	assert.Equal(t, 10.0, store.state.schemes[teacherA].Value)
}

func TestDeactivationDropsMainLessons(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)
	main := &models.Lesson{Role: models.LessonMain, Day: 1, Time: "09:00", TeacherID: teacherB, CourseID: math}
	require.NoError(t, svc.CreateLesson(ctx, main))

	teacher := store.state.teachers[teacherB]
	require.NoError(t, svc.UpdateTeacher(ctx, &teacher, ptr(false), lessonDay))

	assert.False(t, store.state.teachers[teacherB].Status)
	assert.NotContains(t, store.state.lessons, main.ID)
	assert.False(t, teacher.Status)
}

func TestSchemeChangeRecomputesSalary(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice, bob)
	l.Status = models.StatusConfirmed
	l.Students[0].Attendance = models.AttendancePresent
	l.Students[1].Attendance = models.AttendancePresent
	require.NoError(t, svc.CreateLesson(ctx, l))
	require.Equal(t, 20.0, salaryOf(store, teacherA).Amount)

	teacher := store.state.teachers[teacherA]
	teacher.Salary = models.PayScheme{Type: models.PayHourly, Value: 15}
	require.NoError(t, svc.UpdateTeacher(ctx, &teacher, nil, lessonDay))

	assert.Equal(t, 30.0, salaryOf(store, teacherA).Amount)
	assert.Equal(t, teacher.Salary, salaryOf(store, teacherA).Scheme)
	assert.Equal(t, teacher.Salary, store.state.schemes[teacherA])
}

func TestFailedRecomputeKeepsOldScheme(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)
	boom := errors.New("salary write failed")
	store.fail = map[string]error{"salary": boom}

	teacher := store.state.teachers[teacherA]
	teacher.FullName = "Renamed"
	teacher.Salary = models.PayScheme{Type: models.PayMonthly, Value: 800}
	err := svc.UpdateTeacher(ctx, &teacher, nil, lessonDay)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "Ann", store.state.teachers[teacherA].FullName)
	assert.Equal(t, models.PayScheme{Type: models.PayHourly, Value: 10}, store.state.schemes[teacherA])
}

func TestGuardSeesLockedLesson(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := New(store)

	l := currentLesson(teacherA, alice)
	require.NoError(t, svc.CreateLesson(ctx, l))
	_, err := svc.UpdateLesson(ctx, l.ID, LessonPatch{TeacherID: ptr(teacherB)})
	require.NoError(t, err)

	ownedByA := func(current *models.Lesson) error {
		if current.TeacherID != teacherA {
			return models.ErrAccessDenied
		}
		return nil
	}
	_, err = svc.UpdateLessonGuarded(ctx, l.ID, LessonPatch{Status: ptr(models.StatusConfirmed)}, ownedByA)

	require.ErrorIs(t, err, models.ErrAccessDenied)
	assert.Equal(t, models.StatusUnviewed, store.state.lessons[l.ID].Status)
	assert.Equal(t, 5, store.state.amounts[AmountKey{alice, math}])
}
