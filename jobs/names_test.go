package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/navigation"
	"github.com/surveydesk/backoffice/internal/shared"

	_ "github.com/surveydesk/backoffice/testing"
)

type stubSource struct {
	names map[string]string
	err   error
}

func (s stubSource) EntityName(_ context.Context, kind navigation.EntityKind, id string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	name, ok := s.names[string(kind)+"/"+id]
	if !ok {
		return "", fmt.Errorf("%s %s: %w", kind, id, shared.ErrNotFound)
	}
	return name, nil
}

func newCache(t *testing.T) *navigation.NameCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return navigation.NewNameCache(client, time.Hour, nil, nil)
}

func resolveTask(t *testing.T, kind navigation.EntityKind, id string) *asynq.Task {
	t.Helper()
	task, err := navigation.NewResolveNameTask(navigation.ResolveNamePayload{Kind: kind, ID: id})
	require.NoError(t, err)
	return task
}

func TestNameResolveJobCachesName(t *testing.T) {
	cache := newCache(t)
	job := NewNameResolveJob(stubSource{names: map[string]string{"account/7": "Acme Research"}}, cache, nil)

	require.NoError(t, job.Handle(context.Background(), resolveTask(t, navigation.KindAccount, "7")))

	name, ok := cache.Lookup(context.Background(), navigation.KindAccount, "7")
	require.True(t, ok)
	assert.Equal(t, "Acme Research", name)
}

func TestNameResolveJobSkipsRetryForMissingEntity(t *testing.T) {
	job := NewNameResolveJob(stubSource{}, newCache(t), nil)
	err := job.Handle(context.Background(), resolveTask(t, navigation.KindUser, "404"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNameResolveJobSkipsRetryForBadPayload(t *testing.T) {
	job := NewNameResolveJob(stubSource{}, newCache(t), nil)
	for _, payload := range [][]byte{[]byte("{"), []byte(`{"kind":"user"}`)} {
		err := job.Handle(context.Background(), asynq.NewTask(TaskResolveName, payload))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	}
}

func TestNameResolveJobRetriesStoreOutage(t *testing.T) {
	outage := fmt.Errorf("%w: breaker open", shared.ErrUnavailable)
	job := NewNameResolveJob(stubSource{err: outage}, newCache(t), nil)
	err := job.Handle(context.Background(), resolveTask(t, navigation.KindUser, "1"))
	require.ErrorIs(t, err, shared.ErrUnavailable)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestAccountNamesJobWarmsOpenAccounts(t *testing.T) {
	cache := newCache(t)
	var seen shared.ListFilter
	lister := shared.ListerFunc[accounts.Account](func(_ context.Context, f shared.ListFilter) ([]accounts.Account, error) {
		seen = f
		return []accounts.Account{
			{ID: 1, Name: "Acme", Status: accounts.StatusActive},
			{ID: 2, Name: "Gone", Status: accounts.StatusClosed},
		}, nil
	})
	job := NewAccountNamesJob(lister, cache, nil)

	task, err := NewWarmAccountNamesTask(50)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 50, seen.Limit)

	name, ok := cache.Lookup(context.Background(), navigation.KindAccount, "1")
	require.True(t, ok)
	assert.Equal(t, "Acme", name)
	_, ok = cache.Lookup(context.Background(), navigation.KindAccount, "2")
	assert.False(t, ok)
}

func TestAccountNamesJobDefaultsLimit(t *testing.T) {
	var seen shared.ListFilter
	lister := shared.ListerFunc[accounts.Account](func(_ context.Context, f shared.ListFilter) ([]accounts.Account, error) {
		seen = f
		return nil, nil
	})
	job := NewAccountNamesJob(lister, newCache(t), nil)
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskWarmAccountNames, nil)))
	assert.Equal(t, 500, seen.Limit)
}

func TestWarmAccountNamesPayload(t *testing.T) {
	task, err := NewWarmAccountNamesTask(25)
	require.NoError(t, err)
	var payload WarmAccountNamesPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 25, payload.Limit)
	assert.Equal(t, TaskWarmAccountNames, task.Type())
}
