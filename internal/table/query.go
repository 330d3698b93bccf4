package table

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/surveydesk/backoffice/internal/shared"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultPageSize applies when a request does not name a page size.
const DefaultPageSize = 20

var validate = validator.New()

// SortSpec names the attribute to order by and the direction.
type SortSpec struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction" validate:"omitempty,oneof=asc desc"`
}

// Toggle returns the spec produced by selecting field: the same field flips
// direction, any other field starts ascending.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field == field {
		if s.Direction == Desc {
			return SortSpec{Field: field, Direction: Asc}
		}
		return SortSpec{Field: field, Direction: Desc}
	}
	return SortSpec{Field: field, Direction: Asc}
}

// Page selects a fixed-size window. Index is zero based.
type Page struct {
	Index int `json:"index" validate:"gte=0"`
	Size  int `json:"size" validate:"gt=0"`
}

// QueryState is the complete, immutable description of one listing request.
type QueryState struct {
	Search string   `json:"search" validate:"max=200"`
	Sort   SortSpec `json:"sort"`
	Page   Page     `json:"page"`
}

// WithSearch returns a copy with a new search and the first page selected.
func (q QueryState) WithSearch(search string) QueryState {
	q.Search = search
	q.Page.Index = 0
	return q
}

// WithSort returns a copy with the sort toggled on field.
func (q QueryState) WithSort(field string) QueryState {
	q.Sort = q.Sort.Toggle(field)
	return q
}

// WithPage returns a copy selecting page index.
func (q QueryState) WithPage(index int) QueryState {
	q.Page.Index = index
	return q
}

// Validate checks the state against schema and a maximum page size.
func (q QueryState) Validate(schema Schema, maxSize int) error {
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", shared.ErrInvalidQuery, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidQuery, err)
	}
	if maxSize > 0 && q.Page.Size > maxSize {
		return fmt.Errorf("%w: page size %d exceeds %d", ErrInvalidPage, q.Page.Size, maxSize)
	}
	if q.Sort.Field != "" && !schema.CanSort(q.Sort.Field) {
		return fmt.Errorf("%w: %q on %s", ErrUnknownField, q.Sort.Field, schema.Entity)
	}
	return nil
}

// ParseQueryState reads search, sort, dir, page and size from URL values.
// Absent sort falls back to the schema default.
func ParseQueryState(values url.Values, schema Schema, maxSize int) (QueryState, error) {
	index, err := shared.IntParam(values.Get("page"), 0)
	if err != nil {
		return QueryState{}, err
	}
	size, err := shared.IntParam(values.Get("size"), DefaultPageSize)
	if err != nil {
		return QueryState{}, err
	}
	state := QueryState{
		Search: values.Get("search"),
		Sort: SortSpec{
			Field:     strings.TrimSpace(values.Get("sort")),
			Direction: Direction(strings.ToLower(strings.TrimSpace(values.Get("dir")))),
		},
		Page: Page{Index: index, Size: size},
	}
	if state.Sort.Field == "" {
		state.Sort = schema.DefaultSort
	}
	if state.Sort.Field != "" && state.Sort.Direction == "" {
		state.Sort.Direction = Asc
	}
	if err := state.Validate(schema, maxSize); err != nil {
		return QueryState{}, err
	}
	return state, nil
}
