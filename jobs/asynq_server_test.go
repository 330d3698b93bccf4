package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveydesk/backoffice/internal/observability"
)

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}

func TestObserveMiddlewareCountsTasks(t *testing.T) {
	metrics := observability.NewMetrics()
	failing := asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return errors.New("boom") })
	h := observe(metrics, nil)(failing)

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskResolveName, nil))
	require.Error(t, err)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rr.Body.String(), `backoffice_jobs_total{status="error",task="names:resolve"} 1`))
}
