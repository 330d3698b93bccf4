// Package accounts holds customer billing accounts.
package accounts

import (
	"strconv"
	"time"

	"github.com/surveydesk/backoffice/internal/table"
)

// Account statuses in lifecycle order.
const (
	StatusTrialing  = "trialing"
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusSuspended = "suspended"
	StatusClosed    = "closed"
)

// Account is a customer organisation billed for survey usage.
type Account struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	OwnerEmail string    `json:"ownerEmail"`
	Plan       string    `json:"plan"`
	Status     string    `json:"status"`
	Country    string    `json:"country"`
	Seats      int       `json:"seats"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Attr implements table.Record.
func (a Account) Attr(field string) (any, bool) {
	switch field {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	case "ownerEmail":
		return a.OwnerEmail, true
	case "plan":
		return a.Plan, true
	case "status":
		return a.Status, true
	case "country":
		return a.Country, true
	case "seats":
		return a.Seats, true
	case "createdAt":
		return a.CreatedAt, true
	}
	return nil, false
}

// DisplayName is the breadcrumb label for the account.
func (a Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return "Account " + strconv.FormatInt(a.ID, 10)
}

// Schema describes accounts to the table pipeline.
var Schema = table.Schema{
	Entity:      "account",
	Searchable:  []string{"name", "ownerEmail", "plan", "status", "country"},
	Sortable:    []string{"id", "name", "ownerEmail", "plan", "status", "country", "seats", "createdAt"},
	DefaultSort: table.SortSpec{Field: "name", Direction: table.Asc},
	Comparators: map[string]table.Comparator{
		"status": table.Ranked(StatusTrialing, StatusActive, StatusPastDue, StatusSuspended, StatusClosed),
	},
}
