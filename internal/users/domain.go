package users

import (
	"strconv"
	"time"

	"github.com/surveydesk/backoffice/internal/table"
)

// User represents a console operator or customer login.
type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	AccountID   *int64     `json:"accountId,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Attr implements table.Record.
func (u User) Attr(field string) (any, bool) {
	switch field {
	case "id":
		return u.ID, true
	case "email":
		return u.Email, true
	case "name":
		return u.Name, true
	case "role":
		return u.Role, true
	case "isActive":
		return u.IsActive, true
	case "createdAt":
		return u.CreatedAt, true
	case "lastLoginAt":
		return u.LastLoginAt, true
	}
	return nil, false
}

// DisplayName is the breadcrumb label for the user.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return "User " + strconv.FormatInt(u.ID, 10)
}

// Schema describes users to the table pipeline.
var Schema = table.Schema{
	Entity:      "user",
	Searchable:  []string{"name", "email", "role"},
	Sortable:    []string{"id", "name", "email", "role", "isActive", "createdAt", "lastLoginAt"},
	DefaultSort: table.SortSpec{Field: "createdAt", Direction: table.Desc},
}
