package cascade

import (
	"sort"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/shopspring/decimal"
)

// LessonEarnings sums the payment of present students
func LessonEarnings(students []models.LessonStudent) float64 {
	total := decimal.Zero
	for _, s := range students {
		if s.Present() {
			total = total.Add(decimal.NewFromFloat(s.Payment))
		}
	}
	f, _ := total.Float64()
	return f
}

// PresentCount counts present students
func PresentCount(students []models.LessonStudent) int {
	n := 0
	for _, s := range students {
		if s.Present() {
			n++
		}
	}
	return n
}

// SalaryAmount applies a pay scheme to a month's participant count.
// A monthly scheme pays its value once.
func SalaryAmount(scheme models.PayScheme, participants int) float64 {
	switch {
	case scheme.Monthly():
		return scheme.Value
	case scheme.Hourly():
		f, _ := decimal.NewFromFloat(scheme.Value).Mul(decimal.NewFromInt(int64(participants))).Float64()
		return f
	}
	return 0
}

// DeriveSalary rebuilds the salary aggregate of one teacher and month from the
// full set of that month's current lessons.
func DeriveSalary(teacherID int64, period time.Time, scheme models.PayScheme, lessons []*models.Lesson) models.Salary {
	s := models.Salary{TeacherID: teacherID, Period: period, Scheme: scheme}
	for _, l := range lessons {
		if l.Role != models.LessonCurrent || l.TeacherID != teacherID {
			continue
		}
		switch l.Status {
		case models.StatusConfirmed:
			s.ConfirmedCount++
			s.ParticipantCount += PresentCount(l.Students)
		case models.StatusCancelled:
			s.CancelledCount++
		}
	}
	s.Amount = SalaryAmount(scheme, s.ParticipantCount)
	return s
}

// DeriveLeaderboard rebuilds one teacher's monthly ranking row
func DeriveLeaderboard(teacherID int64, period time.Time, lessons []*models.Lesson) models.Leaderboard {
	lb := models.Leaderboard{TeacherID: teacherID, Period: period}
	for _, l := range lessons {
		if l.Role != models.LessonCurrent || l.TeacherID != teacherID || l.Status != models.StatusConfirmed {
			continue
		}
		for _, s := range l.Students {
			if s.Present() {
				lb.LessonCount++
				lb.StarCount += s.RatingByStudent
			}
		}
	}
	return lb
}

// DeriveEarning sums the earnings of a month's confirmed current lessons
func DeriveEarning(period time.Time, lessons []*models.Lesson) models.Earning {
	total := decimal.Zero
	for _, l := range lessons {
		if l.Role == models.LessonCurrent && l.Status == models.StatusConfirmed {
			total = total.Add(decimal.NewFromFloat(l.Earnings))
		}
	}
	f, _ := total.Float64()
	return models.Earning{Period: period, Earnings: f}
}

func score(e models.LeaderboardEntry, by string) int {
	if by == models.ByStarCount {
		return e.StarCount
	}
	return e.LessonCount
}

// Rank sorts entries by the chosen metric, highest first, and splits off up to
// three leaders with a nonzero score.
func Rank(entries []models.LeaderboardEntry, by string) (leaders, others []models.LeaderboardEntry) {
	sorted := append([]models.LeaderboardEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i], by) > score(sorted[j], by)
	})
	n := 0
	for n < len(sorted) && n < 3 && score(sorted[n], by) > 0 {
		n++
	}
	leaders = append([]models.LeaderboardEntry{}, sorted[:n]...)
	others = append([]models.LeaderboardEntry{}, sorted[n:]...)
	return leaders, others
}

// TeacherOrder is teacherID's 1-based place in the ranking. A teacher with a
// zero score is placed last.
func TeacherOrder(entries []models.LeaderboardEntry, teacherID int64, by string) (order, count int) {
	leaders, others := Rank(entries, by)
	sorted := append(leaders, others...)
	count = len(sorted)
	for i, e := range sorted {
		if e.TeacherID == teacherID {
			if score(e, by) > 0 {
				return i + 1, count
			}
			return count, count
		}
	}
	return count, count
}

// AmountKey identifies one student's counter for one course
type AmountKey struct {
	StudentID int64
	CourseID  int64
}

// LessonAmountDeltas returns the counter changes implied by moving a lesson
// from old to updated. Either side may be nil for a created or deleted lesson.
// A confirmed lesson holds one paid lesson of each consuming student.
func LessonAmountDeltas(old, updated *models.Lesson) map[AmountKey]int {
	deltas := map[AmountKey]int{}
	hold := func(l *models.Lesson, sign int) {
		if l == nil || l.Role != models.LessonCurrent || l.Status != models.StatusConfirmed {
			return
		}
		for _, s := range l.Students {
			if s.Consumes() {
				deltas[AmountKey{StudentID: s.StudentID, CourseID: l.CourseID}] += sign
			}
		}
	}
	hold(old, 1)
	hold(updated, -1)
	for k, d := range deltas {
		if d == 0 {
			delete(deltas, k)
		}
	}
	return deltas
}

// SortedKeys orders the keys by student then course
func SortedKeys(deltas map[AmountKey]int) []AmountKey {
	keys := make([]AmountKey, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StudentID != keys[j].StudentID {
			return keys[i].StudentID < keys[j].StudentID
		}
		return keys[i].CourseID < keys[j].CourseID
	})
	return keys
}
