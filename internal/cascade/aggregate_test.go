package cascade

import (
	"testing"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLessonEarningsCountsPresentOnly(t *testing.T) {
	students := []models.LessonStudent{
		{StudentID: 1, Attendance: models.AttendancePresent, Payment: 12.1},
		{StudentID: 2, Attendance: models.AttendanceAbsent, Payment: 50},
		{StudentID: 3, Attendance: models.AttendanceExcused, Payment: 50},
		{StudentID: 4, Attendance: models.AttendanceUnset, Payment: 50},
		{StudentID: 5, Attendance: models.AttendancePresent, Payment: 0.2},
	}
	assert.Equal(t, 12.3, LessonEarnings(students))
	assert.Equal(t, 2, PresentCount(students))
}

func TestSalaryAmount(t *testing.T) {
	tests := []struct {
		name         string
		scheme       models.PayScheme
		participants int
		want         float64
	}{
		{"hourly", models.PayScheme{Type: models.PayHourly, Value: 12.5}, 4, 50},
		{"hourly without participants", models.PayScheme{Type: models.PayHourly, Value: 12.5}, 0, 0},
		{"monthly ignores participants", models.PayScheme{Type: models.PayMonthly, Value: 800}, 40, 800},
		{"unknown scheme", models.PayScheme{}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SalaryAmount(tt.scheme, tt.participants))
		})
	}
}

func TestDeriveSalaryAndLeaderboard(t *testing.T) {
	period := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	lessons := []*models.Lesson{
		{Role: models.LessonCurrent, TeacherID: 1, Status: models.StatusConfirmed, Students: []models.LessonStudent{
			{Attendance: 1, RatingByStudent: 4}, {Attendance: 1, RatingByStudent: 5}, {Attendance: -1, RatingByStudent: 1},
		}},
		{Role: models.LessonCurrent, TeacherID: 1, Status: models.StatusCancelled, Students: []models.LessonStudent{{Attendance: 1, RatingByStudent: 5}}},
		{Role: models.LessonCurrent, TeacherID: 1, Status: models.StatusUnviewed, Students: []models.LessonStudent{{Attendance: 1}}},
		{Role: models.LessonCurrent, TeacherID: 2, Status: models.StatusConfirmed, Students: []models.LessonStudent{{Attendance: 1}}},
		{Role: models.LessonMain, TeacherID: 1, Status: models.StatusConfirmed, Students: []models.LessonStudent{{Attendance: 1}}},
	}

	s := DeriveSalary(1, period, models.PayScheme{Type: models.PayHourly, Value: 10}, lessons)
	assert.Equal(t, 1, s.ConfirmedCount)
	assert.Equal(t, 1, s.CancelledCount)
	assert.Equal(t, 2, s.ParticipantCount)
	assert.Equal(t, 20.0, s.Amount)
	assert.Equal(t, period, s.Period)

	lb := DeriveLeaderboard(1, period, lessons)
	assert.Equal(t, 2, lb.LessonCount)
	assert.Equal(t, 9, lb.StarCount)
}

func TestDeriveEarning(t *testing.T) {
	lessons := []*models.Lesson{
		{Role: models.LessonCurrent, Status: models.StatusConfirmed, Earnings: 10.1},
		{Role: models.LessonCurrent, Status: models.StatusConfirmed, Earnings: 20.2},
		{Role: models.LessonCurrent, Status: models.StatusCancelled, Earnings: 99},
	}
	assert.Equal(t, 30.3, DeriveEarning(time.Time{}, lessons).Earnings)
}

func entries(scores ...int) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, 0, len(scores))
	for i, s := range scores {
		out = append(out, models.LeaderboardEntry{TeacherID: int64(i + 1), LessonCount: s, StarCount: 10 - s})
	}
	return out
}

func ids(es []models.LeaderboardEntry) []int64 {
	out := []int64{}
	for _, e := range es {
		out = append(out, e.TeacherID)
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name        string
		entries     []models.LeaderboardEntry
		by          string
		wantLeaders []int64
		wantOthers  []int64
	}{
		{"top three", entries(1, 5, 3, 2), models.ByLessonCount, []int64{2, 3, 4}, []int64{1}},
		{"zero scores are not leaders", entries(0, 4, 0), models.ByLessonCount, []int64{2}, []int64{1, 3}},
		{"nobody scored", entries(0, 0), models.ByLessonCount, []int64{}, []int64{1, 2}},
		{"by stars", entries(1, 5, 3, 2), models.ByStarCount, []int64{1, 4, 3}, []int64{2}},
		{"empty", nil, models.ByLessonCount, []int64{}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaders, others := Rank(tt.entries, tt.by)
			assert.Equal(t, tt.wantLeaders, ids(leaders))
			assert.Equal(t, tt.wantOthers, ids(others))
		})
	}
}

func TestTeacherOrder(t *testing.T) {
	es := entries(1, 5, 0, 2)

	order, count := TeacherOrder(es, 4, models.ByLessonCount)
	assert.Equal(t, 2, order)
	assert.Equal(t, 4, count)

	order, _ = TeacherOrder(es, 3, models.ByLessonCount)
	assert.Equal(t, 4, order, "a zero score is placed last")
}

func TestLessonAmountDeltas(t *testing.T) {
	confirmed := func(course int64, students ...models.LessonStudent) *models.Lesson {
		return &models.Lesson{Role: models.LessonCurrent, Status: models.StatusConfirmed, CourseID: course, Students: students}
	}
	present := func(id int64) models.LessonStudent { return models.LessonStudent{StudentID: id, Attendance: 1} }
	excused := func(id int64) models.LessonStudent { return models.LessonStudent{StudentID: id, Attendance: 2} }

	t.Run("into confirmed", func(t *testing.T) {
		old := confirmed(1, present(1), excused(2))
		old.Status = models.StatusUnviewed
		assert.Equal(t, map[AmountKey]int{{1, 1}: -1}, LessonAmountDeltas(old, confirmed(1, present(1), excused(2))))
	})
	t.Run("out of confirmed", func(t *testing.T) {
		updated := confirmed(1, present(1))
		updated.Status = models.StatusCancelled
		assert.Equal(t, map[AmountKey]int{{1, 1}: 1}, LessonAmountDeltas(confirmed(1, present(1)), updated))
	})
	t.Run("confirmed to confirmed with same students", func(t *testing.T) {
		assert.Empty(t, LessonAmountDeltas(confirmed(1, present(1)), confirmed(1, present(1))))
	})
	t.Run("course change moves the counter", func(t *testing.T) {
		assert.Equal(t, map[AmountKey]int{{1, 1}: 1, {1, 2}: -1}, LessonAmountDeltas(confirmed(1, present(1)), confirmed(2, present(1))))
	})
	t.Run("student becomes excused", func(t *testing.T) {
		assert.Equal(t, map[AmountKey]int{{1, 1}: 1}, LessonAmountDeltas(confirmed(1, present(1)), confirmed(1, excused(1))))
	})
	t.Run("deleted lesson", func(t *testing.T) {
		assert.Equal(t, map[AmountKey]int{{1, 1}: 1}, LessonAmountDeltas(confirmed(1, present(1)), nil))
	})
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[AmountKey]int{{2, 1}: 1, {1, 3}: 1, {1, 2}: -1})
	assert.Equal(t, []AmountKey{{1, 2}, {1, 3}, {2, 1}}, keys)
}
