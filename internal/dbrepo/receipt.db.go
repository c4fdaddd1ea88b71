package dbrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

// ============================== Receipt Repository ==============================
type ReceiptRepo struct {
	db *pgxpool.Pool
}

func NewReceiptRepo(db *pgxpool.Pool) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

const receiptColumns = `
	id, creator_id, creator_role, branch_name, product_name, product_count,
	initial_amount::float8, principal_amount::float8, confirmed_product_count,
	appointment, note, status, created_at, updated_at`

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	p := &models.Receipt{}
	err := row.Scan(
		&p.ID, &p.CreatorID, &p.CreatorRole, &p.BranchName, &p.ProductName, &p.ProductCount,
		&p.InitialAmount, &p.PrincipalAmount, &p.ConfirmedProductCount,
		&p.Appointment, &p.Note, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *ReceiptRepo) CreateReceipt(ctx context.Context, p *models.Receipt) error {
	if p.Status == "" {
		p.Status = "unviewed"
	}
	query := `
		INSERT INTO receipts (creator_id, creator_role, branch_name, product_name, product_count,
			initial_amount, principal_amount, confirmed_product_count, appointment, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		p.CreatorID, p.CreatorRole, p.BranchName, p.ProductName, p.ProductCount,
		p.InitialAmount, p.PrincipalAmount, p.ConfirmedProductCount, p.Appointment, p.Note, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating receipt: %w", err)
	}
	return nil
}

func (r *ReceiptRepo) GetReceipt(ctx context.Context, id int64) (*models.Receipt, error) {
	p, err := scanReceipt(r.db.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id))
	if err != nil {
		return nil, noRows(err)
	}
	return p, nil
}

// ReceiptFilter narrows receipt listings. CreatorID 0 lists every creator.
type ReceiptFilter struct {
	CreatorID   int64
	CreatorRole string
	Status      string
	Range       daterange.Range
}

// ListReceipts returns a page of receipts created within f.Range
func (r *ReceiptRepo) ListReceipts(ctx context.Context, f ReceiptFilter, limit, offset int) ([]*models.Receipt, int, error) {
	where := ` WHERE created_at BETWEEN $1 AND $2 AND ($3 = '' OR status = $3)`
	args := []any{f.Range.Start, f.Range.End, f.Status}
	if f.CreatorID > 0 {
		args = append(args, f.CreatorID, f.CreatorRole)
		where += ` AND creator_id = $4 AND creator_role = $5`
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM receipts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := `SELECT ` + receiptColumns + ` FROM receipts` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.Receipt{}
	for rows.Next() {
		p, err := scanReceipt(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func (r *ReceiptRepo) UpdateReceipt(ctx context.Context, p *models.Receipt) error {
	query := `
		UPDATE receipts SET
			branch_name = $1, product_name = $2, product_count = $3,
			initial_amount = $4, principal_amount = $5, confirmed_product_count = $6,
			appointment = $7, note = $8, status = COALESCE(NULLIF($9, ''), status),
			updated_at = NOW()
		WHERE id = $10
		RETURNING creator_id, creator_role, status, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		p.BranchName, p.ProductName, p.ProductCount,
		p.InitialAmount, p.PrincipalAmount, p.ConfirmedProductCount,
		p.Appointment, p.Note, p.Status, p.ID,
	).Scan(&p.CreatorID, &p.CreatorRole, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return noRows(err)
}

func (r *ReceiptRepo) DeleteReceipt(ctx context.Context, id int64) error {
	return affected(r.db.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id))
}
