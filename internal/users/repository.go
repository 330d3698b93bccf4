package users

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

const selectUsers = `SELECT id, email, name, role, account_id, is_active, created_at, last_login_at FROM users`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.AccountID, &u.IsActive, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// List returns users matching the store-level filter. Status is "active" or "inactive".
func (r *Repository) List(ctx context.Context, filter shared.ListFilter) ([]User, error) {
	status := filter.Status
	filter.Status = ""
	where, args := filter.Where("", "created_at")
	switch status {
	case "":
	case "active", "inactive":
		args = append(args, status == "active")
		if where == "" {
			where = " WHERE"
		} else {
			where += " AND"
		}
		where += fmt.Sprintf(" is_active = $%d", len(args))
	default:
		return nil, fmt.Errorf("%w: unknown user status %q", shared.ErrInvalidQuery, status)
	}
	query := selectUsers + where + ` ORDER BY id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Get returns one user.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUsers+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return user, err
}
