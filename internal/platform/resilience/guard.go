// Package resilience guards record store calls with a circuit breaker and a
// per-call timeout so a failing database degrades to 503s instead of piling
// up requests.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/surveydesk/backoffice/internal/shared"
)

// Settings configures a Guard.
type Settings struct {
	Name string
	// Timeout bounds each guarded call. Zero disables the bound.
	Timeout time.Duration
	// MaxFailures trips the breaker after that many consecutive failures.
	MaxFailures uint32
	// OpenFor is how long the breaker stays open before probing.
	OpenFor time.Duration
	// OnStateChange receives "closed", "half-open" or "open".
	OnStateChange func(name, state string)
}

// Guard wraps calls to one backing store.
type Guard struct {
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *slog.Logger
}

// NewGuard builds a guard. A nil logger discards breaker transitions.
func NewGuard(settings Settings, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openFor := settings.OpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	logger = logger.With(slog.String("breaker", settings.Name))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if settings.OnStateChange != nil {
				settings.OnStateChange(name, to.String())
			}
		},
	})
	return &Guard{cb: cb, timeout: settings.Timeout, logger: logger}
}

// State reports the breaker state as "closed", "half-open" or "open".
func (g *Guard) State() string {
	return g.cb.State().String()
}

// Fetch runs fn through the guard. An open breaker surfaces as
// shared.ErrUnavailable, as does a call that outlives the guard timeout.
func Fetch[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if g == nil {
		return fn(ctx)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	out, err := g.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return zero, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			g.logger.Warn("guarded call timed out", slog.Duration("timeout", g.timeout))
			return zero, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
		}
		return zero, err
	}
	return out.(T), nil
}

// WrapLister guards every List call of l.
func WrapLister[R any](g *Guard, l shared.Lister[R]) shared.Lister[R] {
	return shared.ListerFunc[R](func(ctx context.Context, filter shared.ListFilter) ([]R, error) {
		return Fetch(ctx, g, func(ctx context.Context) ([]R, error) {
			return l.List(ctx, filter)
		})
	})
}

// Caller-side faults say nothing about the store's health.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrInvalidQuery) ||
		errors.Is(err, context.Canceled)
}
