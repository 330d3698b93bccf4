package console

import (
	"github.com/go-chi/chi/v5"

	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/invoices"
	"github.com/surveydesk/backoffice/internal/surveys"
	"github.com/surveydesk/backoffice/internal/users"
)

// MountRoutes registers the console API onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Route("/api", func(api chi.Router) {
		api.Get("/users", listHandler[users.User](h, users.Schema, h.users))
		api.Get("/accounts", listHandler[accounts.Account](h, accounts.Schema, h.accounts))
		api.Get("/accounts/{accountID}/ledger", h.handleLedger)
		api.Get("/accounts/{accountID}/transactions", h.handleTransactions)
		api.Get("/surveys", listHandler[surveys.Survey](h, surveys.Schema, h.surveys))
		api.Get("/surveys/{surveyID}/collectors", h.handleCollectors)
		api.Get("/invoices", listHandler[invoices.Invoice](h, invoices.Schema, h.invoices))
		api.Get("/breadcrumbs", h.handleBreadcrumbs)
	})
}
