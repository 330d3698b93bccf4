package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// EntityKind identifies the entity behind a detail page.
type EntityKind string

const (
	KindUser      EntityKind = "user"
	KindAccount   EntityKind = "account"
	KindCollector EntityKind = "collector"
)

const (
	// TaskResolveName resolves one entity name into the cache.
	TaskResolveName = "names:resolve"

	nameKeyPrefix = "backoffice:entity-name"
)

// ResolveNamePayload identifies the entity whose name should be cached.
type ResolveNamePayload struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// NewResolveNameTask builds the Asynq task for payload.
func NewResolveNameTask(payload ResolveNamePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskResolveName, data), nil
}

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NameCache holds entity display names learned asynchronously. A miss asks
// the worker to resolve the name; the next render picks it up.
type NameCache struct {
	client  *redis.Client
	ttl     time.Duration
	enqueue Enqueuer
	logger  *slog.Logger
	group   singleflight.Group
}

// NewNameCache constructs a NameCache. enqueue may be nil to disable
// deferred resolution.
func NewNameCache(client *redis.Client, ttl time.Duration, enqueue Enqueuer, logger *slog.Logger) *NameCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &NameCache{client: client, ttl: ttl, enqueue: enqueue, logger: logger}
}

func nameKey(kind EntityKind, id string) string {
	return fmt.Sprintf("%s:%s:%s", nameKeyPrefix, kind, id)
}

// Lookup returns the cached name. On a miss it schedules resolution and
// reports false; lookup failures are logged and treated as misses.
func (c *NameCache) Lookup(ctx context.Context, kind EntityKind, id string) (string, bool) {
	if c == nil || c.client == nil || id == "" {
		return "", false
	}
	name, err := c.client.Get(ctx, nameKey(kind, id)).Result()
	if err == nil {
		return name, true
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("entity name lookup", slog.String("kind", string(kind)), slog.String("id", id), slog.Any("error", err))
		return "", false
	}
	c.requestResolution(ctx, kind, id)
	return "", false
}

// Store caches name for the configured TTL.
func (c *NameCache) Store(ctx context.Context, kind EntityKind, id, name string) error {
	if c == nil || c.client == nil {
		return errors.New("name cache not initialised")
	}
	return c.client.Set(ctx, nameKey(kind, id), name, c.ttl).Err()
}

// Forget drops a cached name, e.g. after the entity was renamed.
func (c *NameCache) Forget(ctx context.Context, kind EntityKind, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, nameKey(kind, id)).Err()
}

func (c *NameCache) requestResolution(ctx context.Context, kind EntityKind, id string) {
	if c.enqueue == nil {
		return
	}
	key := nameKey(kind, id)
	_, err, _ := c.group.Do(key, func() (interface{}, error) {
		task, err := NewResolveNameTask(ResolveNamePayload{Kind: kind, ID: id})
		if err != nil {
			return nil, err
		}
		_, err = c.enqueue.EnqueueContext(ctx, task, asynq.TaskID(key), asynq.MaxRetry(3))
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		c.logger.Warn("enqueue entity name resolution", slog.String("kind", string(kind)), slog.String("id", id), slog.Any("error", err))
	}
}
