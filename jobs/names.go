package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/navigation"
	"github.com/surveydesk/backoffice/internal/shared"
)

// NameSource loads entity display names from the record store.
type NameSource interface {
	EntityName(ctx context.Context, kind navigation.EntityKind, id string) (string, error)
}

// NameStore persists resolved names. *navigation.NameCache satisfies it.
type NameStore interface {
	Store(ctx context.Context, kind navigation.EntityKind, id, name string) error
}

// NameResolveJob fills the entity name cache on behalf of breadcrumb renders
// that missed it.
type NameResolveJob struct {
	Names  NameSource
	Cache  NameStore
	Logger *slog.Logger
}

// NewNameResolveJob wires dependencies for the resolve handler.
func NewNameResolveJob(names NameSource, cache NameStore, logger *slog.Logger) *NameResolveJob {
	return &NameResolveJob{Names: names, Cache: cache, Logger: logger}
}

// Handle processes TaskResolveName tasks. Malformed payloads and entities
// that no longer exist are not retried.
func (j *NameResolveJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Names == nil || j.Cache == nil {
		return errors.New("names resolve: handler not configured")
	}
	var payload navigation.ResolveNamePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Kind == "" || payload.ID == "" {
		return fmt.Errorf("names resolve: bad payload: %w", asynq.SkipRetry)
	}
	logger := j.logger().With(slog.String("kind", string(payload.Kind)), slog.String("id", payload.ID))

	name, err := j.Names.EntityName(ctx, payload.Kind, payload.ID)
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidQuery) {
		logger.Info("entity name unavailable", slog.Any("error", err))
		return fmt.Errorf("names resolve: %v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("names resolve: %w", err)
	}
	if err := j.Cache.Store(ctx, payload.Kind, payload.ID, name); err != nil {
		return fmt.Errorf("names resolve: store: %w", err)
	}
	logger.Debug("entity name cached")
	return nil
}

func (j *NameResolveJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// AccountNamesJob refreshes cached account names ahead of demand.
type AccountNamesJob struct {
	Accounts shared.Lister[accounts.Account]
	Cache    NameStore
	Logger   *slog.Logger
}

// NewAccountNamesJob wires dependencies for the warmup handler.
func NewAccountNamesJob(accts shared.Lister[accounts.Account], cache NameStore, logger *slog.Logger) *AccountNamesJob {
	return &AccountNamesJob{Accounts: accts, Cache: cache, Logger: logger}
}

// Handle processes TaskWarmAccountNames tasks. Closed accounts are skipped.
func (j *AccountNamesJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Accounts == nil || j.Cache == nil {
		return errors.New("account names: handler not configured")
	}
	var payload WarmAccountNamesPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("account names: bad payload: %w", asynq.SkipRetry)
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = 500
	}

	list, err := j.Accounts.List(ctx, shared.ListFilter{Limit: payload.Limit})
	if err != nil {
		return fmt.Errorf("account names: list: %w", err)
	}
	warmed := 0
	for _, a := range list {
		if a.Status == accounts.StatusClosed {
			continue
		}
		if err := j.Cache.Store(ctx, navigation.KindAccount, strconv.FormatInt(a.ID, 10), a.DisplayName()); err != nil {
			return fmt.Errorf("account names: store %d: %w", a.ID, err)
		}
		warmed++
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("account names warmed", slog.Int("count", warmed))
	return nil
}
