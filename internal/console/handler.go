// Package console serves the JSON API behind the back-office console: entity
// listings run through the table pipeline, breadcrumb trails and account
// ledgers.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/invoices"
	"github.com/surveydesk/backoffice/internal/ledger"
	"github.com/surveydesk/backoffice/internal/navigation"
	"github.com/surveydesk/backoffice/internal/observability"
	"github.com/surveydesk/backoffice/internal/platform/httpx"
	"github.com/surveydesk/backoffice/internal/platform/resilience"
	"github.com/surveydesk/backoffice/internal/shared"
	"github.com/surveydesk/backoffice/internal/surveys"
	"github.com/surveydesk/backoffice/internal/table"
	"github.com/surveydesk/backoffice/internal/users"
)

// UserStore lists and loads users.
type UserStore interface {
	shared.Lister[users.User]
	UserSource
}

// AccountStore lists and loads accounts.
type AccountStore interface {
	shared.Lister[accounts.Account]
	AccountSource
}

// SurveyStore lists surveys and their collectors.
type SurveyStore interface {
	shared.Lister[surveys.Survey]
	Collectors(ctx context.Context, surveyID uuid.UUID) ([]surveys.Collector, error)
}

// NameLookup returns cached entity display names. *navigation.NameCache
// satisfies it.
type NameLookup interface {
	Lookup(ctx context.Context, kind navigation.EntityKind, id string) (string, bool)
}

// HandlerParams groups the handler dependencies.
type HandlerParams struct {
	Logger   *slog.Logger
	Users    UserStore
	Accounts AccountStore
	Surveys  SurveyStore
	Invoices shared.Lister[invoices.Invoice]
	Ledger   ledger.Source
	Resolver *navigation.Resolver
	Names    NameLookup
	// Guard wraps every record store call. Nil disables it.
	Guard       *resilience.Guard
	Metrics     *observability.Metrics
	MaxPageSize int
}

// Handler serves the console API.
type Handler struct {
	logger      *slog.Logger
	users       UserStore
	accounts    AccountStore
	surveys     SurveyStore
	invoices    shared.Lister[invoices.Invoice]
	ledger      ledger.Source
	resolver    *navigation.Resolver
	names       NameLookup
	guard       *resilience.Guard
	metrics     *observability.Metrics
	maxPageSize int
}

// NewHandler constructs the console handler.
func NewHandler(p HandlerParams) *Handler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxSize := p.MaxPageSize
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Handler{
		logger:      logger,
		users:       p.Users,
		accounts:    p.Accounts,
		surveys:     p.Surveys,
		invoices:    p.Invoices,
		ledger:      p.Ledger,
		resolver:    p.Resolver,
		names:       p.Names,
		guard:       p.Guard,
		metrics:     p.Metrics,
		maxPageSize: maxSize,
	}
}

// listHandler serves one record type through the table pipeline.
func listHandler[R table.Record](h *Handler, schema table.Schema, store shared.Lister[R]) http.HandlerFunc {
	guarded := resilience.WrapLister(h.guard, store)
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		state, err := table.ParseQueryState(values, schema, h.maxPageSize)
		if err != nil {
			h.metrics.ObserveQuery(schema.Entity, err)
			h.fail(w, "parse query", err)
			return
		}
		filter, err := parseListFilter(values)
		if err != nil {
			h.metrics.ObserveQuery(schema.Entity, err)
			h.fail(w, "parse filter", err)
			return
		}
		records, err := guarded.List(r.Context(), filter)
		if err != nil {
			h.metrics.ObserveQuery(schema.Entity, err)
			h.fail(w, "list "+schema.Entity, err)
			return
		}
		result, err := table.Query(records, schema, state)
		h.metrics.ObserveQuery(schema.Entity, err)
		if err != nil {
			h.fail(w, "query "+schema.Entity, err)
			return
		}
		httpx.JSON(w, http.StatusOK, result)
	}
}

func (h *Handler) handleCollectors(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuid.Parse(chi.URLParam(r, "surveyID"))
	if err != nil {
		h.fail(w, "parse survey id", fmt.Errorf("%w: survey id", shared.ErrInvalidQuery))
		return
	}
	store := shared.ListerFunc[surveys.Collector](func(ctx context.Context, _ shared.ListFilter) ([]surveys.Collector, error) {
		return h.surveys.Collectors(ctx, surveyID)
	})
	listHandler[surveys.Collector](h, surveys.CollectorSchema, store)(w, r)
}

type breadcrumbResponse struct {
	Items []navigation.Item `json:"items"`
}

func (h *Handler) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	path := strings.TrimSpace(values.Get("path"))
	if path == "" {
		h.fail(w, "breadcrumbs", fmt.Errorf("%w: path is required", shared.ErrInvalidQuery))
		return
	}

	bctx := &navigation.Context{Tab: values.Get("tab")}
	if kind, id, ok := h.resolver.Entity(path); ok && h.names != nil {
		name, hit := h.names.Lookup(r.Context(), kind, id)
		h.metrics.ObserveNameLookup(string(kind), hit)
		bctx.EntityName = name
	}

	items := h.resolver.Resolve(path, bctx)
	h.metrics.ObserveTrail(len(items) > 0)
	if len(items) == 0 {
		items = navigation.HomeTrail()
	}
	httpx.JSON(w, http.StatusOK, breadcrumbResponse{Items: items})
}

type ledgerResponse struct {
	AccountID   int64  `json:"accountId"`
	AccountName string `json:"accountName"`
	ledger.Ledger
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	id, err := accountParam(r)
	if err != nil {
		h.fail(w, "parse account id", err)
		return
	}
	account, led, err := h.loadLedger(r.Context(), id)
	if err != nil {
		h.fail(w, "load ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledgerResponse{
		AccountID:   id,
		AccountName: account.DisplayName(),
		Ledger:      led,
	})
}

// handleTransactions pages through an account's postings with running
// balances already filled in.
func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := accountParam(r)
	if err != nil {
		h.fail(w, "parse account id", err)
		return
	}
	state, err := table.ParseQueryState(r.URL.Query(), ledger.Schema, h.maxPageSize)
	if err != nil {
		h.metrics.ObserveQuery(ledger.Schema.Entity, err)
		h.fail(w, "parse query", err)
		return
	}
	_, led, err := h.loadLedger(r.Context(), id)
	if err != nil {
		h.metrics.ObserveQuery(ledger.Schema.Entity, err)
		h.fail(w, "load ledger", err)
		return
	}
	result, err := table.Query(led.Ordered, ledger.Schema, state)
	h.metrics.ObserveQuery(ledger.Schema.Entity, err)
	if err != nil {
		h.fail(w, "query transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// loadLedger fetches the account and its postings concurrently. A missing
// account fails the request even when the ledger source has postings for it.
func (h *Handler) loadLedger(ctx context.Context, id int64) (accounts.Account, ledger.Ledger, error) {
	var (
		account  accounts.Account
		postings []ledger.Posting
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = resilience.Fetch(gctx, h.guard, func(ctx context.Context) (accounts.Account, error) {
			return h.accounts.Get(ctx, id)
		})
		return err
	})
	g.Go(func() error {
		var err error
		postings, err = resilience.Fetch(gctx, h.guard, func(ctx context.Context) ([]ledger.Posting, error) {
			return h.ledger.Postings(ctx, strconv.FormatInt(id, 10))
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return accounts.Account{}, ledger.Ledger{}, err
	}
	return account, ledger.Accumulate(postings), nil
}

func accountParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "accountID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: account id %q", shared.ErrInvalidQuery, raw)
	}
	return id, nil
}

func parseListFilter(values url.Values) (shared.ListFilter, error) {
	from, err := shared.DateParam(values.Get("from"))
	if err != nil {
		return shared.ListFilter{}, err
	}
	to, err := shared.DateParam(values.Get("to"))
	if err != nil {
		return shared.ListFilter{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return shared.ListFilter{}, fmt.Errorf("%w: to precedes from", shared.ErrInvalidQuery)
	}
	return shared.ListFilter{
		Status: strings.TrimSpace(values.Get("status")),
		From:   from,
		To:     to,
	}, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidQuery), errors.Is(err, shared.ErrNotFound):
		h.logger.Debug(op, slog.Any("error", err))
	case errors.Is(err, shared.ErrUnavailable):
		h.logger.Warn(op, slog.Any("error", err))
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
