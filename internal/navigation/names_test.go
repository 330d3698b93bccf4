package navigation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (e *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func newTestNameCache(t *testing.T, enq Enqueuer) (*NameCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewNameCache(client, time.Hour, enq, nil), mr
}

func TestNameCacheMissEnqueuesResolution(t *testing.T) {
	enq := &recordingEnqueuer{}
	cache, _ := newTestNameCache(t, enq)

	name, ok := cache.Lookup(context.Background(), KindUser, "7")
	assert.False(t, ok)
	assert.Empty(t, name)

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskResolveName, enq.tasks[0].Type())
	var payload ResolveNamePayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, ResolveNamePayload{Kind: KindUser, ID: "7"}, payload)
}

func TestNameCacheHitAfterStore(t *testing.T) {
	enq := &recordingEnqueuer{}
	cache, mr := newTestNameCache(t, enq)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, KindAccount, "42", "Acme Research"))
	name, ok := cache.Lookup(ctx, KindAccount, "42")
	assert.True(t, ok)
	assert.Equal(t, "Acme Research", name)
	assert.Empty(t, enq.tasks)

	mr.FastForward(2 * time.Hour)
	_, ok = cache.Lookup(ctx, KindAccount, "42")
	assert.False(t, ok)
}

func TestNameCacheForget(t *testing.T) {
	cache, _ := newTestNameCache(t, nil)
	ctx := context.Background()
	require.NoError(t, cache.Store(ctx, KindCollector, "c1", "Web link"))
	require.NoError(t, cache.Forget(ctx, KindCollector, "c1"))
	_, ok := cache.Lookup(ctx, KindCollector, "c1")
	assert.False(t, ok)
}

func TestNameCacheToleratesDuplicateTask(t *testing.T) {
	enq := &recordingEnqueuer{err: asynq.ErrTaskIDConflict}
	cache, _ := newTestNameCache(t, enq)
	_, ok := cache.Lookup(context.Background(), KindUser, "7")
	assert.False(t, ok)
}

func TestNilNameCacheMisses(t *testing.T) {
	var cache *NameCache
	_, ok := cache.Lookup(context.Background(), KindUser, "1")
	assert.False(t, ok)
	assert.Error(t, cache.Store(context.Background(), KindUser, "1", "x"))
}
