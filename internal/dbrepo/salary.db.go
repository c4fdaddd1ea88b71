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

// ============================== Salary Repository ==============================
type SalaryRepo struct {
	db *pgxpool.Pool
}

func NewSalaryRepo(db *pgxpool.Pool) *SalaryRepo {
	return &SalaryRepo{db: db}
}

const salaryColumns = `
	id, teacher_id, period, salary_type, salary_value::float8,
	confirmed_count, cancelled_count, participant_count, amount::float8, bonus_id, updated_at`

func scanSalary(row pgx.Row) (*models.Salary, error) {
	s := &models.Salary{}
	err := row.Scan(
		&s.ID, &s.TeacherID, &s.Period, &s.Scheme.Type, &s.Scheme.Value,
		&s.ConfirmedCount, &s.CancelledCount, &s.ParticipantCount, &s.Amount, &s.BonusID, &s.UpdatedAt,
	)
	return s, err
}

// upsertSalary overwrites the (teacher, period) row with s. The row is linked
// to the teacher's bonus of that month whenever one exists.
func upsertSalary(ctx context.Context, q querier, s *models.Salary) error {
	query := `
		INSERT INTO salaries (teacher_id, period, salary_type, salary_value,
			confirmed_count, cancelled_count, participant_count, amount, bonus_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			COALESCE($9::bigint, (SELECT id FROM bonuses WHERE teacher_id = $1 AND period = $2::date)), NOW())
		ON CONFLICT (teacher_id, period) DO UPDATE SET
			salary_type       = EXCLUDED.salary_type,
			salary_value      = EXCLUDED.salary_value,
			confirmed_count   = EXCLUDED.confirmed_count,
			cancelled_count   = EXCLUDED.cancelled_count,
			participant_count = EXCLUDED.participant_count,
			amount            = EXCLUDED.amount,
			bonus_id          = COALESCE(EXCLUDED.bonus_id, salaries.bonus_id),
			updated_at        = NOW()
		RETURNING id, bonus_id, updated_at`
	return q.QueryRow(ctx, query,
		s.TeacherID, s.Period, s.Scheme.Type, s.Scheme.Value,
		s.ConfirmedCount, s.CancelledCount, s.ParticipantCount, s.Amount, s.BonusID,
	).Scan(&s.ID, &s.BonusID, &s.UpdatedAt)
}

const summarySelect = `
	SELECT t.id, t.full_name, t.salary_type, t.salary_value::float8,
	       COALESCE(SUM(s.confirmed_count), 0)::int,
	       COALESCE(SUM(s.cancelled_count), 0)::int,
	       COALESCE(SUM(s.participant_count), 0)::int,
	       COALESCE(SUM(s.amount), 0)::float8,
	       COALESCE((SELECT SUM(b.amount) FROM bonuses b
	                 WHERE b.teacher_id = t.id AND b.period BETWEEN $1::date AND $2::date), 0)::float8
	FROM teachers t
	LEFT JOIN salaries s ON s.teacher_id = t.id AND s.period BETWEEN $1::date AND $2::date`

func scanSummary(row pgx.Row) (*models.SalarySummary, error) {
	s := &models.SalarySummary{}
	err := row.Scan(
		&s.TeacherID, &s.TeacherName, &s.Scheme.Type, &s.Scheme.Value,
		&s.ConfirmedCount, &s.CancelledCount, &s.ParticipantCount, &s.TotalSalary, &s.Bonus,
	)
	return s, err
}

// ListSalaries totals every teacher's salary rows over r, one page of teachers at a time
func (r *SalaryRepo) ListSalaries(ctx context.Context, rng daterange.Range, search string, limit, offset int) ([]*models.SalarySummary, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM teachers WHERE NOT deleted AND full_name ILIKE '%' || $1 || '%'`, search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	query := summarySelect + `
		WHERE NOT t.deleted AND t.full_name ILIKE '%' || $3 || '%'
		GROUP BY t.id
		ORDER BY t.full_name
		LIMIT $4 OFFSET $5`
	rows, err := r.db.Query(ctx, query, rng.Start, rng.End, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.SalarySummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// TeacherSalary totals one teacher's salary rows over r
func (r *SalaryRepo) TeacherSalary(ctx context.Context, teacherID int64, rng daterange.Range) (*models.SalarySummary, error) {
	s, err := scanSummary(r.db.QueryRow(ctx, summarySelect+` WHERE t.id = $3 GROUP BY t.id`, rng.Start, rng.End, teacherID))
	if err != nil {
		return nil, noRows(err)
	}
	return s, nil
}

// TeacherMonths returns the teacher's salary rows within r, oldest first
func (r *SalaryRepo) TeacherMonths(ctx context.Context, teacherID int64, rng daterange.Range) ([]*models.Salary, error) {
	rows, err := r.db.Query(ctx, `SELECT `+salaryColumns+` FROM salaries
		WHERE teacher_id = $1 AND period BETWEEN $2::date AND $3::date ORDER BY period`, teacherID, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.Salary{}
	for rows.Next() {
		s, err := scanSalary(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreateMonthlySalaries opens an empty salary row for month for every active
// teacher. A monthly scheme already owes its full value.
func (r *SalaryRepo) CreateMonthlySalaries(ctx context.Context, month time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO salaries (teacher_id, period, salary_type, salary_value, amount, bonus_id)
		SELECT t.id, $1::date, t.salary_type, t.salary_value,
		       CASE WHEN t.salary_type = 'monthly' THEN t.salary_value ELSE 0 END,
		       (SELECT b.id FROM bonuses b WHERE b.teacher_id = t.id AND b.period = $1::date)
		FROM teachers t
		WHERE t.status AND NOT t.deleted
		ON CONFLICT (teacher_id, period) DO NOTHING`, daterange.MonthStart(month))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ============================== Bonus Repository ==============================
type BonusRepo struct {
	db *pgxpool.Pool
}

func NewBonusRepo(db *pgxpool.Pool) *BonusRepo {
	return &BonusRepo{db: db}
}

// CreateBonus gives a teacher their one bonus of b.Period's month and links it
// to that month's salary row.
func (r *BonusRepo) CreateBonus(ctx context.Context, b *models.Bonus) error {
	b.Period = daterange.MonthStart(b.Period)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO bonuses (teacher_id, amount, comment, period)
		VALUES ($1, $2, $3, $4::date)
		RETURNING id, created_at`, b.TeacherID, b.Amount, b.Comment, b.Period).Scan(&b.ID, &b.CreatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrBonusExists
	}
	if foreignKeyViolation(err) {
		return models.ErrTeacherNotFound
	}
	if err != nil {
		return fmt.Errorf("error creating bonus: %w", err)
	}
	_, err = tx.Exec(ctx, `UPDATE salaries SET bonus_id = $1 WHERE teacher_id = $2 AND period = $3::date`, b.ID, b.TeacherID, b.Period)
	if err != nil {
		return fmt.Errorf("link bonus: %w", err)
	}
	return tx.Commit(ctx)
}

// ListBonuses returns a page of bonuses whose month falls in r
func (r *BonusRepo) ListBonuses(ctx context.Context, rng daterange.Range, teacherID int64, limit, offset int) ([]*models.Bonus, int, error) {
	where := ` WHERE b.period BETWEEN $1::date AND $2::date AND ($3 = 0 OR b.teacher_id = $3)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bonuses b`+where, rng.Start, rng.End, teacherID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT b.id, b.teacher_id, t.full_name, b.amount::float8, b.comment, b.period, b.created_at
		FROM bonuses b JOIN teachers t ON t.id = b.teacher_id`+where+`
		ORDER BY b.period DESC, b.id DESC
		LIMIT $4 OFFSET $5`, rng.Start, rng.End, teacherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.Bonus{}
	for rows.Next() {
		b := &models.Bonus{}
		if err := rows.Scan(&b.ID, &b.TeacherID, &b.TeacherName, &b.Amount, &b.Comment, &b.Period, &b.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, b)
	}
	return list, total, rows.Err()
}

// UpdateBonus changes amount and comment; teacher and month are fixed
func (r *BonusRepo) UpdateBonus(ctx context.Context, b *models.Bonus) error {
	err := r.db.QueryRow(ctx, `
		UPDATE bonuses SET amount = $1, comment = $2 WHERE id = $3
		RETURNING teacher_id, period, created_at`, b.Amount, b.Comment, b.ID).Scan(&b.TeacherID, &b.Period, &b.CreatedAt)
	return noRows(err)
}

// DeleteBonus removes the bonus; the salary row's link is cleared by the foreign key
func (r *BonusRepo) DeleteBonus(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `DELETE FROM bonuses WHERE id = $1`, id))
}
