package invoices

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/surveydesk/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns invoices matching the store-level filter.
func (r *Repository) List(ctx context.Context, filter shared.ListFilter) ([]Invoice, error) {
	where, args := filter.Where("status", "issued_at")
	return r.query(ctx, where, args, filter.Limit)
}

// ForAccount returns the invoices of one account.
func (r *Repository) ForAccount(ctx context.Context, accountID int64) ([]Invoice, error) {
	return r.query(ctx, ` WHERE account_id = $1`, []any{accountID}, 0)
}

func (r *Repository) query(ctx context.Context, where string, args []any, limit int) ([]Invoice, error) {
	query := `SELECT id, number, account_id, status, total::text, currency, issued_at, due_at, paid_at FROM invoices` +
		where + ` ORDER BY issued_at, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		var (
			inv   Invoice
			total string
		)
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.AccountID, &inv.Status, &total, &inv.Currency, &inv.IssuedAt, &inv.DueAt, &inv.PaidAt); err != nil {
			return nil, err
		}
		if inv.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invoice %d total: %w", inv.ID, err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
