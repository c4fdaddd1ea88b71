package dbrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Worker Repository ==============================
type WorkerRepo struct {
	db *pgxpool.Pool
}

func NewWorkerRepo(db *pgxpool.Pool) *WorkerRepo {
	return &WorkerRepo{db: db}
}

const workerColumns = `id, full_name, email, department, positions, deleted, created_at, updated_at`

func scanWorker(row pgx.Row) (*models.Worker, error) {
	w := &models.Worker{}
	err := row.Scan(&w.ID, &w.FullName, &w.Email, &w.Department, &w.Positions, &w.Deleted, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// CreateWorker inserts a worker; w.Password must be hashed
func (r *WorkerRepo) CreateWorker(ctx context.Context, w *models.Worker) error {
	if w.Positions == nil {
		w.Positions = []string{}
	}
	query := `
		INSERT INTO workers (full_name, email, password, department, positions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, w.FullName, w.Email, w.Password, w.Department, w.Positions).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("error creating worker: %w", err)
	}
	w.Password = ""
	return nil
}

func (r *WorkerRepo) GetWorker(ctx context.Context, id int64) (*models.Worker, error) {
	w, err := scanWorker(r.db.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id))
	if err != nil {
		return nil, noRows(err)
	}
	return w, nil
}

// ListWorkers returns one page of workers and the total count
func (r *WorkerRepo) ListWorkers(ctx context.Context, search string, limit, offset int) ([]*models.Worker, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workers WHERE NOT deleted AND full_name ILIKE '%' || $1 || '%'`, search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+workerColumns+`
		FROM workers
		WHERE NOT deleted AND full_name ILIKE '%' || $1 || '%'
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	workers := []*models.Worker{}
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, 0, err
		}
		workers = append(workers, w)
	}
	return workers, total, rows.Err()
}

func (r *WorkerRepo) UpdateWorker(ctx context.Context, w *models.Worker) error {
	if w.Positions == nil {
		w.Positions = []string{}
	}
	query := `
		UPDATE workers SET
			full_name  = $1,
			email      = $2,
			password   = COALESCE(NULLIF($3, ''), password),
			department = $4,
			positions  = $5,
			updated_at = NOW()
		WHERE id = $6 AND NOT deleted
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, w.FullName, w.Email, w.Password, w.Department, w.Positions, w.ID).
		Scan(&w.CreatedAt, &w.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return models.ErrEmailExists
	}
	w.Password = ""
	return noRows(err)
}

// DeleteWorker flags the worker deleted; their receipts stay attributed to them
func (r *WorkerRepo) DeleteWorker(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `UPDATE workers SET deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT deleted`, id))
}
