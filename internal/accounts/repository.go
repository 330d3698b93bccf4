package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

const selectAccounts = `SELECT id, name, owner_email, plan, status, country, seats, created_at FROM accounts`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.OwnerEmail, &a.Plan, &a.Status, &a.Country, &a.Seats, &a.CreatedAt)
	return a, err
}

// List returns accounts matching the store-level filter.
func (r *Repository) List(ctx context.Context, filter shared.ListFilter) ([]Account, error) {
	where, args := filter.Where("status", "created_at")
	query := selectAccounts + where + ` ORDER BY id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one account.
func (r *Repository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, selectAccounts+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, fmt.Errorf("account %d: %w", id, shared.ErrNotFound)
	}
	return a, err
}
