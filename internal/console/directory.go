package console

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/navigation"
	"github.com/surveydesk/backoffice/internal/shared"
	"github.com/surveydesk/backoffice/internal/surveys"
	"github.com/surveydesk/backoffice/internal/users"
)

// UserSource loads a single user.
type UserSource interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// AccountSource loads a single account.
type AccountSource interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
}

// CollectorSource loads a single collector.
type CollectorSource interface {
	Collector(ctx context.Context, id uuid.UUID) (surveys.Collector, error)
}

// Directory maps entity-detail identifiers to display names.
type Directory struct {
	users      UserSource
	accounts   AccountSource
	collectors CollectorSource
}

// NewDirectory constructs a Directory.
func NewDirectory(users UserSource, accounts AccountSource, collectors CollectorSource) *Directory {
	return &Directory{users: users, accounts: accounts, collectors: collectors}
}

// EntityName returns the display name of the identified entity. Identifiers
// that cannot name a record report shared.ErrNotFound.
func (d *Directory) EntityName(ctx context.Context, kind navigation.EntityKind, id string) (string, error) {
	switch kind {
	case navigation.KindUser:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return "", fmt.Errorf("user %q: %w", id, shared.ErrNotFound)
		}
		u, err := d.users.Get(ctx, n)
		if err != nil {
			return "", err
		}
		return u.DisplayName(), nil
	case navigation.KindAccount:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return "", fmt.Errorf("account %q: %w", id, shared.ErrNotFound)
		}
		a, err := d.accounts.Get(ctx, n)
		if err != nil {
			return "", err
		}
		return a.DisplayName(), nil
	case navigation.KindCollector:
		u, err := uuid.Parse(id)
		if err != nil {
			return "", fmt.Errorf("collector %q: %w", id, shared.ErrNotFound)
		}
		c, err := d.collectors.Collector(ctx, u)
		if err != nil {
			return "", err
		}
		return c.DisplayName(), nil
	}
	return "", fmt.Errorf("%w: entity kind %q", shared.ErrInvalidQuery, kind)
}
