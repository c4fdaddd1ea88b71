package dbrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Income / Expense Repository ==============================
// EntryRepo stores income or expense entries, depending on its table
type EntryRepo struct {
	db    *pgxpool.Pool
	table string
}

func NewIncomeRepo(db *pgxpool.Pool) *EntryRepo {
	return &EntryRepo{db: db, table: "incomes"}
}

func NewExpenseRepo(db *pgxpool.Pool) *EntryRepo {
	return &EntryRepo{db: db, table: "expenses"}
}

func (r *EntryRepo) CreateEntry(ctx context.Context, e *models.Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (category, appointment, amount, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, r.table)
	if err := r.db.QueryRow(ctx, query, e.Category, e.Appointment, e.Amount, e.Date).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("error creating %s entry: %w", r.table, err)
	}
	return nil
}

// ListEntries returns a page of entries dated within rng, newest first
func (r *EntryRepo) ListEntries(ctx context.Context, rng daterange.Range, category string, limit, offset int) ([]*models.Entry, int, error) {
	where := fmt.Sprintf(` FROM %s WHERE date BETWEEN $1 AND $2 AND ($3 = '' OR category = $3)`, r.table)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+where, rng.Start, rng.End, category).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, category, appointment, amount::float8, date, created_at`+where+`
		ORDER BY date DESC, id DESC LIMIT $4 OFFSET $5`, rng.Start, rng.End, category, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.Entry{}
	for rows.Next() {
		e := &models.Entry{}
		if err := rows.Scan(&e.ID, &e.Category, &e.Appointment, &e.Amount, &e.Date, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

func (r *EntryRepo) UpdateEntry(ctx context.Context, e *models.Entry) error {
	query := fmt.Sprintf(`
		UPDATE %s SET category = $1, appointment = $2, amount = $3, date = $4
		WHERE id = $5
		RETURNING created_at`, r.table)
	return noRows(r.db.QueryRow(ctx, query, e.Category, e.Appointment, e.Amount, e.Date, e.ID).Scan(&e.CreatedAt))
}

func (r *EntryRepo) DeleteEntry(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id))
}
