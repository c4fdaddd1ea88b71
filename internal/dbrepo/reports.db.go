package dbrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/shopspring/decimal"
)

// ============================== Report Repository ==============================
// ReportRepo serves the dashboard and the teacher statistics
type ReportRepo struct {
	db *pgxpool.Pool
}

func NewReportRepo(db *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{db: db}
}

// LessonCounts counts current lessons by status within rng. teacherID 0 counts every teacher.
func (r *ReportRepo) LessonCounts(ctx context.Context, rng daterange.Range, teacherID int64) (*models.LessonCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'unviewed')
		FROM lessons
		WHERE role = 'current' AND date BETWEEN $1 AND $2 AND ($3 = 0 OR teacher_id = $3)`
	var c models.LessonCounts
	if err := r.db.QueryRow(ctx, query, rng.Start, rng.End, teacherID).Scan(&c.Confirmed, &c.Cancelled, &c.Unviewed); err != nil {
		return nil, err
	}
	return &c, nil
}

// UnviewedLessons returns unviewed current lessons dated before now within
// rng, grouped by teacher
func (r *ReportRepo) UnviewedLessons(ctx context.Context, rng daterange.Range, now time.Time) ([]*models.TeacherLessons, error) {
	end := rng.End
	if now.Before(end) {
		end = now
	}
	lessons, err := loadLessons(ctx, r.db, `SELECT `+lessonColumns+lessonFrom+`
		WHERE l.role = 'current' AND l.status = 'unviewed' AND l.date BETWEEN $1 AND $2
		ORDER BY t.full_name, l.teacher_id, l.date, l.time`, rng.Start, end)
	if err != nil {
		return nil, err
	}
	groups := []*models.TeacherLessons{}
	for _, l := range lessons {
		if n := len(groups); n == 0 || groups[n-1].TeacherID != l.TeacherID {
			groups = append(groups, &models.TeacherLessons{TeacherID: l.TeacherID, TeacherName: l.TeacherName})
		}
		g := groups[len(groups)-1]
		g.Lessons = append(g.Lessons, l)
	}
	return groups, nil
}

// Finance sums incomes, expenses and confirmed lesson earnings within rng.
// Profit is turnover minus expense.
func (r *ReportRepo) Finance(ctx context.Context, rng daterange.Range) (*models.FinanceSummary, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(amount), 0)::text FROM incomes WHERE date BETWEEN $1 AND $2),
			(SELECT COALESCE(SUM(amount), 0)::text FROM expenses WHERE date BETWEEN $1 AND $2),
			(SELECT COALESCE(SUM(earnings), 0)::text FROM lessons
				WHERE role = 'current' AND status = 'confirmed' AND date BETWEEN $1 AND $2)`
	var income, expense, turnover string
	if err := r.db.QueryRow(ctx, query, rng.Start, rng.End).Scan(&income, &expense, &turnover); err != nil {
		return nil, err
	}
	in, err := decimal.NewFromString(income)
	if err != nil {
		return nil, fmt.Errorf("income sum: %w", err)
	}
	ex, err := decimal.NewFromString(expense)
	if err != nil {
		return nil, fmt.Errorf("expense sum: %w", err)
	}
	turn, err := decimal.NewFromString(turnover)
	if err != nil {
		return nil, fmt.Errorf("turnover sum: %w", err)
	}
	return &models.FinanceSummary{
		Income:   in.StringFixed(2),
		Expense:  ex.StringFixed(2),
		Turnover: turn.StringFixed(2),
		Profit:   turn.Sub(ex).StringFixed(2),
	}, nil
}

// CourseStatistics counts students created within rng per enrolled course
func (r *ReportRepo) CourseStatistics(ctx context.Context, rng daterange.Range) ([]models.CourseStatistic, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.name, COUNT(s.id)
		FROM courses c
		LEFT JOIN student_courses sc ON sc.course_id = c.id
		LEFT JOIN students s ON s.id = sc.student_id AND NOT s.deleted AND s.created_at BETWEEN $1 AND $2
		WHERE NOT c.deleted
		GROUP BY c.id, c.name
		ORDER BY c.name`, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := []models.CourseStatistic{}
	for rows.Next() {
		var s models.CourseStatistic
		if err := rows.Scan(&s.CourseName, &s.Value); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Advertising returns the share of students created within rng per
// advertising channel, as percentages with two decimals
func (r *ReportRepo) Advertising(ctx context.Context, rng daterange.Range) ([]models.NameValue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT where_coming, COUNT(*)
		FROM students
		WHERE NOT deleted AND where_coming <> '' AND created_at BETWEEN $1 AND $2
		GROUP BY where_coming`, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int64{}
	var total int64
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
		total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return advertisingShares(counts, total), nil
}

func advertisingShares(counts map[string]int64, total int64) []models.NameValue {
	out := make([]models.NameValue, 0, len(models.AdvertisingChannels))
	for _, ch := range models.AdvertisingChannels {
		share := decimal.Zero
		if total > 0 {
			share = decimal.NewFromInt(counts[ch]).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total))
		}
		out = append(out, models.NameValue{Name: ch, Value: share.StringFixed(2)})
	}
	return out
}

// StudentsChart counts students created per month within rng, with empty
// months reported as zero
func (r *ReportRepo) StudentsChart(ctx context.Context, rng daterange.Range) ([]models.MonthCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('month', created_at)::date, COUNT(*)
		FROM students
		WHERE NOT deleted AND created_at BETWEEN $1 AND $2
		GROUP BY 1`, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byMonth := map[string]int{}
	for rows.Next() {
		var m time.Time
		var n int
		if err := rows.Scan(&m, &n); err != nil {
			return nil, err
		}
		byMonth[m.Format("2006-01")] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	chart := []models.MonthCount{}
	for _, m := range rng.Months() {
		chart = append(chart, models.MonthCount{MonthLabel: monthLabel(m), Value: byMonth[m.Format("2006-01")]})
	}
	return chart, nil
}

func monthLabel(m time.Time) models.MonthLabel {
	return models.MonthLabel{Month: m.Month().String(), Year: m.Year()}
}

// ActiveStudents counts students that are active and not deleted
func (r *ReportRepo) ActiveStudents(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE status AND NOT deleted`).Scan(&n)
	return n, err
}

// DemoCount counts demo lessons with status dated within rng
func (r *ReportRepo) DemoCount(ctx context.Context, rng daterange.Range, status string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM demos WHERE status = $1 AND date BETWEEN $2 AND $3`,
		status, rng.Start, rng.End).Scan(&n)
	return n, err
}

// LeaderboardEntries sums the monthly leaderboard rows of every teacher over
// the months of rng. Teachers without rows score zero.
func (r *ReportRepo) LeaderboardEntries(ctx context.Context, rng daterange.Range) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.full_name, COALESCE(SUM(lb.lesson_count), 0), COALESCE(SUM(lb.star_count), 0)
		FROM teachers t
		LEFT JOIN leaderboards lb ON lb.teacher_id = t.id AND lb.period BETWEEN $1::date AND $2::date
		WHERE NOT t.deleted
		GROUP BY t.id, t.full_name
		ORDER BY t.id`, daterange.MonthStart(rng.Start), rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.TeacherID, &e.FullName, &e.LessonCount, &e.StarCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TeacherChart counts a teacher's confirmed lessons and distinct non excused
// students per month of rng
func (r *ReportRepo) TeacherChart(ctx context.Context, teacherID int64, rng daterange.Range) ([]models.TeacherChartPoint, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('month', l.date)::date,
			COUNT(DISTINCT l.id),
			COUNT(DISTINCT ls.student_id) FILTER (WHERE ls.attendance <> 2)
		FROM lessons l
		LEFT JOIN lesson_students ls ON ls.lesson_id = l.id
		WHERE l.role = 'current' AND l.status = 'confirmed' AND l.teacher_id = $1 AND l.date BETWEEN $2 AND $3
		GROUP BY 1`, teacherID, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byMonth := map[string]models.TeacherChartPoint{}
	for rows.Next() {
		var m time.Time
		var p models.TeacherChartPoint
		if err := rows.Scan(&m, &p.LessonCount, &p.StudentCount); err != nil {
			return nil, err
		}
		byMonth[m.Format("2006-01")] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	chart := []models.TeacherChartPoint{}
	for _, m := range rng.Months() {
		p := byMonth[m.Format("2006-01")]
		p.MonthLabel = monthLabel(m)
		chart = append(chart, p)
	}
	return chart, nil
}
