// Package invoices holds account invoices.
package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/surveydesk/backoffice/internal/table"
)

// Invoice is a bill issued to an account.
type Invoice struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	AccountID int64           `json:"accountId"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	IssuedAt  time.Time       `json:"issuedAt"`
	DueAt     time.Time       `json:"dueAt"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
}

// Attr implements table.Record.
func (i Invoice) Attr(field string) (any, bool) {
	switch field {
	case "id":
		return i.ID, true
	case "number":
		return i.Number, true
	case "accountId":
		return i.AccountID, true
	case "status":
		return i.Status, true
	case "total":
		return i.Total, true
	case "currency":
		return i.Currency, true
	case "issuedAt":
		return i.IssuedAt, true
	case "dueAt":
		return i.DueAt, true
	case "paidAt":
		return i.PaidAt, true
	}
	return nil, false
}

// Overdue reports whether the invoice is unpaid past its due date.
func (i Invoice) Overdue(now time.Time) bool {
	return i.PaidAt == nil && i.Status == "open" && now.After(i.DueAt)
}

// Schema describes invoices to the table pipeline.
var Schema = table.Schema{
	Entity:      "invoice",
	Searchable:  []string{"number", "status", "currency"},
	Sortable:    []string{"number", "accountId", "status", "total", "issuedAt", "dueAt", "paidAt"},
	DefaultSort: table.SortSpec{Field: "issuedAt", Direction: table.Desc},
	Comparators: map[string]table.Comparator{
		"status": table.Ranked("draft", "open", "paid", "void", "uncollectible"),
	},
}
