package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/invoices"
	"github.com/surveydesk/backoffice/internal/ledger"
	"github.com/surveydesk/backoffice/internal/navigation"
	"github.com/surveydesk/backoffice/internal/observability"
	"github.com/surveydesk/backoffice/internal/shared"
	"github.com/surveydesk/backoffice/internal/surveys"
	"github.com/surveydesk/backoffice/internal/users"

	_ "github.com/surveydesk/backoffice/testing"
)

type memoryUsers struct {
	rows []users.User
	err  error
	seen shared.ListFilter
}

func (m *memoryUsers) List(_ context.Context, f shared.ListFilter) ([]users.User, error) {
	m.seen = f
	return m.rows, m.err
}

func (m *memoryUsers) Get(_ context.Context, id int64) (users.User, error) {
	for _, u := range m.rows {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
}

type memoryAccounts struct {
	rows []accounts.Account
}

func (m *memoryAccounts) List(context.Context, shared.ListFilter) ([]accounts.Account, error) {
	return m.rows, nil
}

func (m *memoryAccounts) Get(_ context.Context, id int64) (accounts.Account, error) {
	for _, a := range m.rows {
		if a.ID == id {
			return a, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("account %d: %w", id, shared.ErrNotFound)
}

type memorySurveys struct {
	rows       []surveys.Survey
	collectors map[uuid.UUID][]surveys.Collector
}

func (m *memorySurveys) List(context.Context, shared.ListFilter) ([]surveys.Survey, error) {
	return m.rows, nil
}

func (m *memorySurveys) Collectors(_ context.Context, id uuid.UUID) ([]surveys.Collector, error) {
	return m.collectors[id], nil
}

type stubNames map[string]string

func (s stubNames) Lookup(_ context.Context, kind navigation.EntityKind, id string) (string, bool) {
	name, ok := s[string(kind)+"/"+id]
	return name, ok
}

var surveyID = uuid.MustParse("0b6f8a7e-5a2c-4a1e-9a55-2f7d0c6e9b11")

func newTestHandler(t *testing.T) (*Handler, *memoryUsers) {
	t.Helper()
	resolver, err := navigation.DefaultResolver()
	require.NoError(t, err)

	created := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	us := &memoryUsers{rows: []users.User{
		{ID: 1, Name: "bob", Email: "bob@example.com", Role: "admin", CreatedAt: created},
		{ID: 2, Name: "Alice", Email: "alice@example.com", Role: "viewer", CreatedAt: created.AddDate(0, 0, 1)},
		{ID: 3, Name: "carol", Email: "carol@example.com", Role: "viewer", CreatedAt: created.AddDate(0, 0, 2)},
	}}
	accs := &memoryAccounts{rows: []accounts.Account{
		{ID: 7, Name: "Acme Research", Status: accounts.StatusActive, CreatedAt: created},
		{ID: 8, Name: "Globex", Status: accounts.StatusPastDue, CreatedAt: created},
		{ID: 9, Name: "Initech", Status: accounts.StatusTrialing, CreatedAt: created},
	}}
	svs := &memorySurveys{
		rows: []surveys.Survey{{ID: surveyID, AccountID: 7, Title: "NPS Q1", Status: "open", CreatedAt: created}},
		collectors: map[uuid.UUID][]surveys.Collector{surveyID: {
			{ID: uuid.New(), SurveyID: surveyID, Name: "Web link", Channel: "web", Status: "open", CreatedAt: created},
			{ID: uuid.New(), SurveyID: surveyID, Name: "Email blast", Channel: "email", Status: "closed", CreatedAt: created.Add(time.Hour)},
		}},
	}
	invs := shared.ListerFunc[invoices.Invoice](func(context.Context, shared.ListFilter) ([]invoices.Invoice, error) {
		return []invoices.Invoice{
			{ID: 1, Number: "INV-001", AccountID: 7, Status: "paid", Total: decimal.RequireFromString("49.00"), IssuedAt: created},
			{ID: 2, Number: "INV-002", AccountID: 7, Status: "open", Total: decimal.RequireFromString("120.50"), IssuedAt: created.AddDate(0, 1, 0)},
		}, nil
	})

	h := NewHandler(HandlerParams{
		Users:    us,
		Accounts: accs,
		Surveys:  svs,
		Invoices: invs,
		Ledger: ledger.NewSimulatedStore(ledger.Simulator{
			Seed:   3,
			Start:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			Months: 4,
		}),
		Resolver:    resolver,
		Names:       stubNames{"account/7": "Acme Research"},
		Metrics:     observability.NewMetrics(),
		MaxPageSize: 50,
	})
	return h, us
}

func serve(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

type page[R any] struct {
	Items        []R               `json:"items"`
	TotalMatched int               `json:"totalMatched"`
	Pagination   shared.Pagination `json:"pagination"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestListUsersSortsByNameIgnoringCase(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(t, h, "/api/users?sort=name&dir=asc")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[page[users.User]](t, rr)
	require.Len(t, got.Items, 3)
	assert.Equal(t, []string{"Alice", "bob", "carol"}, []string{got.Items[0].Name, got.Items[1].Name, got.Items[2].Name})
	assert.Equal(t, 3, got.TotalMatched)
}

func TestListUsersDefaultSortIsNewestFirst(t *testing.T) {
	h, _ := newTestHandler(t)
	got := decode[page[users.User]](t, serve(t, h, "/api/users"))
	require.Len(t, got.Items, 3)
	assert.Equal(t, int64(3), got.Items[0].ID)
}

func TestListUsersSearchAndPaginate(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(t, h, "/api/users?search=VIEWER&sort=name&size=1&page=1")
	require.Equal(t, http.StatusOK, rr.Code)

	got := decode[page[users.User]](t, rr)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "carol", got.Items[0].Name)
	assert.Equal(t, 2, got.TotalMatched)
	assert.True(t, got.Pagination.HasPrev)
	assert.False(t, got.Pagination.HasNext)
}

func TestListUsersPassesStoreFilter(t *testing.T) {
	h, us := newTestHandler(t)
	rr := serve(t, h, "/api/users?status=active&from=2024-03-01&to=2024-04-01")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "active", us.seen.Status)
	require.NotNil(t, us.seen.From)
	require.NotNil(t, us.seen.To)
}

func TestListRejectsBadQueries(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, target := range []string{
		"/api/users?sort=password",
		"/api/users?size=0",
		"/api/users?size=500",
		"/api/users?page=-1",
		"/api/users?dir=sideways&sort=name",
		"/api/users?from=2024-04-01&to=2024-03-01",
		"/api/users?from=yesterday",
	} {
		rr := serve(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestListOutOfRangePageIsEmpty(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(t, h, "/api/users?page=9")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[page[users.User]](t, rr)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	assert.Equal(t, 3, got.TotalMatched)
}

func TestListStoreFailures(t *testing.T) {
	h, us := newTestHandler(t)

	us.err = errors.New("connection reset")
	assert.Equal(t, http.StatusInternalServerError, serve(t, h, "/api/users").Code)

	us.err = fmt.Errorf("%w: breaker open", shared.ErrUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, "/api/users").Code)
}

func TestListAccountsByRankedStatus(t *testing.T) {
	h, _ := newTestHandler(t)
	got := decode[page[accounts.Account]](t, serve(t, h, "/api/accounts?sort=status"))
	require.Len(t, got.Items, 3)
	assert.Equal(t, []string{"Initech", "Acme Research", "Globex"},
		[]string{got.Items[0].Name, got.Items[1].Name, got.Items[2].Name})
}

func TestListInvoicesByTotalDescending(t *testing.T) {
	h, _ := newTestHandler(t)
	got := decode[page[invoices.Invoice]](t, serve(t, h, "/api/invoices?sort=total&dir=desc"))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "INV-002", got.Items[0].Number)
}

func TestListCollectors(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(t, h, "/api/surveys/"+surveyID.String()+"/collectors?search=email")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[page[surveys.Collector]](t, rr)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Email blast", got.Items[0].Name)

	assert.Equal(t, http.StatusBadRequest, serve(t, h, "/api/surveys/not-a-uuid/collectors").Code)
}

func TestBreadcrumbsWithCachedEntityName(t *testing.T) {
	h, _ := newTestHandler(t)
	got := decode[breadcrumbResponse](t, serve(t, h, "/api/breadcrumbs?path=/accounts/7"))
	assert.Equal(t, []navigation.Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Acme Research"},
		{Label: "Account Details"},
	}, got.Items)
}

func TestBreadcrumbsOmitPendingEntityName(t *testing.T) {
	h, _ := newTestHandler(t)
	got := decode[breadcrumbResponse](t, serve(t, h, "/api/breadcrumbs?path=/accounts/8/transactions"))
	assert.Equal(t, []navigation.Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Account Details", Path: "/accounts/8"},
		{Label: "Transactions"},
	}, got.Items)
}

func TestBreadcrumbsTabLabel(t *testing.T) {
	h, _ := newTestHandler(t)
	got := decode[breadcrumbResponse](t, serve(t, h, "/api/breadcrumbs?path=/users/2&tab=activity"))
	require.NotEmpty(t, got.Items)
	assert.Equal(t, "Activity", got.Items[len(got.Items)-1].Label)
}

func TestBreadcrumbsUnknownPathFallsBackHome(t *testing.T) {
	h, _ := newTestHandler(t)
	got := decode[breadcrumbResponse](t, serve(t, h, "/api/breadcrumbs?path=/nowhere/at/all"))
	assert.Equal(t, navigation.HomeTrail(), got.Items)

	assert.Equal(t, http.StatusBadRequest, serve(t, h, "/api/breadcrumbs").Code)
}

func TestLedgerBalanceMatchesLastRunningBalance(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(t, h, "/api/accounts/7/ledger")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[ledgerResponse](t, rr)
	assert.Equal(t, int64(7), got.AccountID)
	assert.Equal(t, "Acme Research", got.AccountName)
	require.NotEmpty(t, got.Ordered)
	last := got.Ordered[len(got.Ordered)-1]
	assert.True(t, got.Balance.Equal(last.RunningBalance), "balance %s, last %s", got.Balance, last.RunningBalance)
	require.Len(t, got.Buckets, 4)
	assert.Equal(t, time.April, got.Buckets[0].Month)
}

func TestLedgerUnknownAccount(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Equal(t, http.StatusNotFound, serve(t, h, "/api/accounts/404/ledger").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, "/api/accounts/abc/ledger").Code)
}

func TestTransactionsArePagedWithRunningBalances(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(t, h, "/api/accounts/7/transactions?size=3&sort=date&dir=asc")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[page[ledger.Posting]](t, rr)
	require.Len(t, got.Items, 3)
	assert.Equal(t, ledger.TypeOpeningBalance, got.Items[0].Type)
	assert.True(t, got.Items[0].RunningBalance.Equal(got.Items[0].Credit))
	assert.Greater(t, got.TotalMatched, 3)
}
