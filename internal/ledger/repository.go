package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/surveydesk/backoffice/internal/platform/db"
)

// Repository reads and writes postings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Postings returns the account's postings in booking order.
func (r *Repository) Postings(ctx context.Context, accountID string) ([]Posting, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, account_id, type, posted_at, description, debit::text, credit::text
FROM ledger_postings WHERE account_id = $1 ORDER BY seq`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var postings []Posting
	for rows.Next() {
		var (
			p             Posting
			typ           string
			debit, credit string
		)
		if err := rows.Scan(&p.ID, &p.AccountID, &typ, &p.Date, &p.Description, &debit, &credit); err != nil {
			return nil, err
		}
		p.Type = PostingType(typ)
		if p.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("ledger: posting %s debit: %w", p.ID, err)
		}
		if p.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("ledger: posting %s credit: %w", p.ID, err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return postings, nil
}

// Insert stores postings in the given order within one transaction,
// rejecting invalid ones. Postings whose id already exists are skipped.
func (r *Repository) Insert(ctx context.Context, postings []Posting) error {
	batch := &pgx.Batch{}
	for _, p := range postings {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("ledger: posting %s: %w", p.ID, err)
		}
		batch.Queue(`INSERT INTO ledger_postings (id, account_id, type, posted_at, description, debit, credit)
VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric)
ON CONFLICT (id) DO NOTHING`,
			p.ID, p.AccountID, string(p.Type), p.Date, p.Description, p.Debit.String(), p.Credit.String())
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}
