// Package surveys holds surveys and the collectors that gather their responses.
package surveys

import (
	"time"

	"github.com/google/uuid"

	"github.com/surveydesk/backoffice/internal/table"
)

// Survey is a questionnaire owned by an account.
type Survey struct {
	ID        uuid.UUID  `json:"id"`
	AccountID int64      `json:"accountId"`
	Title     string     `json:"title"`
	Owner     string     `json:"owner"`
	Status    string     `json:"status"`
	Responses int        `json:"responses"`
	CreatedAt time.Time  `json:"createdAt"`
	ClosesAt  *time.Time `json:"closesAt,omitempty"`
}

// Attr implements table.Record.
func (s Survey) Attr(field string) (any, bool) {
	switch field {
	case "id":
		return s.ID.String(), true
	case "accountId":
		return s.AccountID, true
	case "title":
		return s.Title, true
	case "owner":
		return s.Owner, true
	case "status":
		return s.Status, true
	case "responses":
		return s.Responses, true
	case "createdAt":
		return s.CreatedAt, true
	case "closesAt":
		return s.ClosesAt, true
	}
	return nil, false
}

// Collector distributes a survey through one channel.
type Collector struct {
	ID        uuid.UUID `json:"id"`
	SurveyID  uuid.UUID `json:"surveyId"`
	Name      string    `json:"name"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Responses int       `json:"responses"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attr implements table.Record.
func (c Collector) Attr(field string) (any, bool) {
	switch field {
	case "id":
		return c.ID.String(), true
	case "surveyId":
		return c.SurveyID.String(), true
	case "name":
		return c.Name, true
	case "channel":
		return c.Channel, true
	case "status":
		return c.Status, true
	case "responses":
		return c.Responses, true
	case "createdAt":
		return c.CreatedAt, true
	}
	return nil, false
}

// DisplayName is the breadcrumb label for the collector.
func (c Collector) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Channel + " collector"
}

var statusOrder = table.Ranked("draft", "open", "paused", "closed")

// Schema describes surveys to the table pipeline.
var Schema = table.Schema{
	Entity:      "survey",
	Searchable:  []string{"title", "owner", "status"},
	Sortable:    []string{"title", "owner", "status", "responses", "createdAt", "closesAt"},
	DefaultSort: table.SortSpec{Field: "createdAt", Direction: table.Desc},
	Comparators: map[string]table.Comparator{"status": statusOrder},
}

// CollectorSchema describes collectors to the table pipeline.
var CollectorSchema = table.Schema{
	Entity:      "collector",
	Searchable:  []string{"name", "channel", "status"},
	Sortable:    []string{"name", "channel", "status", "responses", "createdAt"},
	DefaultSort: table.SortSpec{Field: "createdAt", Direction: table.Asc},
	Comparators: map[string]table.Comparator{"status": statusOrder},
}
