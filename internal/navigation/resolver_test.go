package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountsResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(Manifest{
		Routes: []RouteNode{
			{Path: "/accounts", Label: "Accounts"},
			{Path: "/accounts/:id", Label: "Account Details", Parent: "/accounts"},
			{Path: "/accounts/:id/invoices", Label: "Invoices", Parent: "/accounts/:id"},
		},
		Tabs:     map[string]string{"transactions": "Transactions"},
		Entities: []EntityRoute{{Kind: KindAccount, Prefix: "/accounts/"}},
	})
	require.NoError(t, err)
	return r
}

func TestResolveDynamicPath(t *testing.T) {
	r := accountsResolver(t)
	assert.Equal(t, []Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Account Details"},
	}, r.Resolve("/accounts/42", nil))
}

func TestResolveExpandsParentParameters(t *testing.T) {
	r := accountsResolver(t)
	assert.Equal(t, []Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Account Details", Path: "/accounts/42"},
		{Label: "Invoices"},
	}, r.Resolve("/accounts/42/invoices", nil))
}

func TestResolveUnknownPathIsEmpty(t *testing.T) {
	r := accountsResolver(t)
	trail := r.Resolve("/nowhere", nil)
	assert.NotNil(t, trail)
	assert.Empty(t, trail)
}

func TestResolveCustomItemsWin(t *testing.T) {
	r := accountsResolver(t)
	custom := []Item{{Label: "Reports", Path: "/reports"}, {Label: "Q3"}}
	assert.Equal(t, custom, r.Resolve("/accounts/42", &Context{CustomItems: custom, Tab: "transactions"}))
}

func TestResolveTabOverridesTerminalLabel(t *testing.T) {
	r := accountsResolver(t)
	trail := r.Resolve("/accounts/42", &Context{Tab: "transactions"})
	assert.Equal(t, Item{Label: "Transactions"}, trail[len(trail)-1])

	trail = r.Resolve("/accounts/42", &Context{Tab: "mystery"})
	assert.Equal(t, Item{Label: DefaultTabLabel}, trail[len(trail)-1])
}

func TestResolveInsertsEntityName(t *testing.T) {
	r := accountsResolver(t)
	assert.Equal(t, []Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Acme Research"},
		{Label: "Transactions"},
	}, r.Resolve("/accounts/42", &Context{EntityName: "Acme Research", Tab: "transactions"}))
}

func TestResolvePlacesEntityNameAfterItsOwnPage(t *testing.T) {
	r, err := NewResolver(Manifest{
		Routes: []RouteNode{
			{Path: "/accounts", Label: "Accounts"},
			{Path: "/accounts/:id", Label: "Account Details", Parent: "/accounts"},
			{Path: "/accounts/:id/invoices", Label: "Invoices", Parent: "/accounts/:id"},
			{Path: "/accounts/:id/invoices/:invoiceId", Label: "Invoice Details", Parent: "/accounts/:id/invoices"},
		},
		Tabs:     map[string]string{"overview": "Overview"},
		Entities: []EntityRoute{{Kind: KindAccount, Prefix: "/accounts/"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Account Details", Path: "/accounts/42"},
		{Label: "Acme"},
		{Label: "Invoices", Path: "/accounts/42/invoices"},
		{Label: "Overview"},
	}, r.Resolve("/accounts/42/invoices/7", &Context{EntityName: "Acme", Tab: "overview"}))

	assert.Equal(t, []Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Account Details", Path: "/accounts/42"},
		{Label: "Acme"},
		{Label: "Invoices"},
	}, r.Resolve("/accounts/42/invoices", &Context{EntityName: "Acme"}))
}

func TestResolveOmitsPendingEntityName(t *testing.T) {
	r := accountsResolver(t)
	trail := r.Resolve("/accounts/42", &Context{Tab: "transactions"})
	assert.Equal(t, []Item{
		{Label: "Accounts", Path: "/accounts"},
		{Label: "Transactions"},
	}, trail)
}

func TestResolveIgnoresEntityNameOnStaticPages(t *testing.T) {
	r := accountsResolver(t)
	assert.Equal(t, []Item{{Label: "Accounts"}}, r.Resolve("/accounts", &Context{EntityName: "Acme"}))
}

func TestResolveIsIdempotent(t *testing.T) {
	r := accountsResolver(t)
	ctx := &Context{EntityName: "Acme", Tab: "transactions"}
	assert.Equal(t, r.Resolve("/accounts/42/invoices", ctx), r.Resolve("/accounts/42/invoices", ctx))
}

func TestResolveFirstDeclaredDynamicRouteWins(t *testing.T) {
	r, err := NewResolver(Manifest{Routes: []RouteNode{
		{Path: "/surveys/:surveyId/collectors", Label: "Collectors"},
		{Path: "/surveys/templates/:kind", Label: "Template"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []Item{{Label: "Collectors"}}, r.Resolve("/surveys/templates/collectors", nil))
	assert.Equal(t, []Ambiguity{{
		Winner: "/surveys/:surveyId/collectors",
		Shadow: "/surveys/templates/:kind",
	}}, r.Table().Ambiguities())
}

func TestResolveStaticRouteBeatsDynamic(t *testing.T) {
	r, err := NewResolver(Manifest{Routes: []RouteNode{
		{Path: "/users", Label: "Users"},
		{Path: "/users/:userId", Label: "User Details", Parent: "/users"},
		{Path: "/users/invitations", Label: "Invitations", Parent: "/users"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []Item{{Label: "Users", Path: "/users"}, {Label: "Invitations"}}, r.Resolve("/users/invitations", nil))
}

func TestNewTableRejectsBadParents(t *testing.T) {
	_, err := NewTable([]RouteNode{{Path: "/a", Label: "A", Parent: "/missing"}})
	assert.ErrorIs(t, err, ErrInvalidRoute)

	_, err = NewTable([]RouteNode{
		{Path: "/a", Label: "A", Parent: "/b"},
		{Path: "/b", Label: "B", Parent: "/a"},
	})
	assert.ErrorIs(t, err, ErrRouteCycle)

	_, err = NewTable([]RouteNode{{Path: "/a", Label: "A"}, {Path: "/a/", Label: "Again"}})
	assert.ErrorIs(t, err, ErrInvalidRoute)
}

func TestResolveCycleYieldsEmptyTrail(t *testing.T) {
	table, err := compile([]RouteNode{
		{Path: "/a", Label: "A", Parent: "/b"},
		{Path: "/b", Label: "B", Parent: "/a"},
	})
	require.NoError(t, err)
	r := newResolver(table, nil, nil)
	assert.Empty(t, r.Resolve("/a", nil))
}

func TestDefaultResolverCoversEveryRoute(t *testing.T) {
	r, err := DefaultResolver()
	require.NoError(t, err)
	assert.Empty(t, r.Table().Ambiguities())

	for _, node := range r.Table().Nodes() {
		p, err := CompilePattern(node.Path)
		require.NoError(t, err)
		params := map[string]string{}
		for _, seg := range p.segments {
			if seg.dynamic() {
				params[seg.param] = "x1"
			}
		}
		path, ok := p.Expand(params)
		require.True(t, ok)

		trail := r.Resolve(path, nil)
		require.NotEmpty(t, trail, node.Path)
		assert.False(t, trail[len(trail)-1].Navigable(), node.Path)
		assert.Equal(t, node.Label, trail[len(trail)-1].Label, node.Path)
	}
}

func TestDefaultResolverEntities(t *testing.T) {
	r, err := DefaultResolver()
	require.NoError(t, err)

	kind, id, ok := r.Entity("/accounts/42/transactions")
	require.True(t, ok)
	assert.Equal(t, KindAccount, kind)
	assert.Equal(t, "42", id)

	kind, id, ok = r.Entity("/collectors/c-9")
	require.True(t, ok)
	assert.Equal(t, KindCollector, kind)
	assert.Equal(t, "c-9", id)

	_, _, ok = r.Entity("/users/invitations")
	assert.False(t, ok)
	_, _, ok = r.Entity("/surveys/s1")
	assert.False(t, ok)
}

func TestParseManifestValidates(t *testing.T) {
	_, err := ParseManifest([]byte("routes:\n  - path: accounts\n    label: Accounts\n"))
	assert.ErrorIs(t, err, ErrInvalidRoute)

	_, err = ParseManifest([]byte("routes: []\n"))
	assert.ErrorIs(t, err, ErrInvalidRoute)
}
