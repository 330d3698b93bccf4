package surveys

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

// List returns surveys matching the store-level filter.
func (r *Repository) List(ctx context.Context, filter shared.ListFilter) ([]Survey, error) {
	where, args := filter.Where("status", "created_at")
	query := `SELECT id, account_id, title, owner, status, responses, created_at, closes_at FROM surveys` + where + ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Survey
	for rows.Next() {
		var s Survey
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Title, &s.Owner, &s.Status, &s.Responses, &s.CreatedAt, &s.ClosesAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Collectors returns the collectors of one survey.
func (r *Repository) Collectors(ctx context.Context, surveyID uuid.UUID) ([]Collector, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, survey_id, name, channel, status, responses, created_at
FROM collectors WHERE survey_id = $1 ORDER BY created_at, id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Collector
	for rows.Next() {
		var c Collector
		if err := rows.Scan(&c.ID, &c.SurveyID, &c.Name, &c.Channel, &c.Status, &c.Responses, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Collector returns one collector.
func (r *Repository) Collector(ctx context.Context, id uuid.UUID) (Collector, error) {
	var c Collector
	err := r.pool.QueryRow(ctx, `SELECT id, survey_id, name, channel, status, responses, created_at
FROM collectors WHERE id = $1`, id).Scan(&c.ID, &c.SurveyID, &c.Name, &c.Channel, &c.Status, &c.Responses, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Collector{}, fmt.Errorf("collector %s: %w", id, shared.ErrNotFound)
	}
	return c, err
}
