// Package table implements the filter, sort and paginate pipeline behind every
// listing in the console.
package table

import (
	"fmt"
	"slices"

	"github.com/surveydesk/backoffice/internal/shared"
)

var (
	// ErrUnknownField indicates a sort field the record type does not declare.
	ErrUnknownField = fmt.Errorf("%w: unknown field", shared.ErrInvalidQuery)
	// ErrInvalidPage indicates a negative page index or non-positive page size.
	ErrInvalidPage = fmt.Errorf("%w: invalid page", shared.ErrInvalidQuery)
)

// Record is implemented by every listable entity. Attr must return the same
// value for the same record and field on every call.
type Record interface {
	Attr(field string) (any, bool)
}

// Schema declares how one record type takes part in the pipeline.
type Schema struct {
	Entity      string
	Searchable  []string
	Sortable    []string
	DefaultSort SortSpec
	Comparators map[string]Comparator
}

// CanSort reports whether field is declared sortable.
func (s Schema) CanSort(field string) bool {
	return slices.Contains(s.Sortable, field)
}

func (s Schema) comparator(field string) Comparator {
	if cmp, ok := s.Comparators[field]; ok && cmp != nil {
		return cmp
	}
	return Compare
}
