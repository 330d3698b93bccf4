package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/surveydesk/backoffice/internal/shared"
)

// Result is one page of a listing plus the metadata the display needs.
type Result[R Record] struct {
	Items        []R               `json:"items"`
	TotalMatched int               `json:"totalMatched"`
	Pagination   shared.Pagination `json:"pagination"`
}

// Filter keeps the records where any searchable attribute contains query,
// ignoring case. A blank or all-whitespace query keeps every record; any
// other query is matched as given, surrounding spaces included.
func Filter[R Record](records []R, query string, fields []string) []R {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(nonNil(records))
	}
	needle := shared.Fold(query)
	out := make([]R, 0, len(records))
	for _, rec := range records {
		if matches(rec, needle, fields) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec Record, needle string, fields []string) bool {
	for _, field := range fields {
		v, ok := rec.Attr(field)
		if !ok || shared.IsNil(v) {
			continue
		}
		if strings.Contains(shared.Fold(shared.Text(v)), needle) {
			return true
		}
	}
	return false
}

// Sort returns a stably ordered copy of records. Records with equal keys keep
// their input order in both directions. A record missing the sort attribute is
// reported as ErrUnknownField.
func Sort[R Record](records []R, spec SortSpec, schema Schema) ([]R, error) {
	if spec.Field == "" {
		return slices.Clone(nonNil(records)), nil
	}
	type keyed struct {
		rec R
		key any
	}
	rows := make([]keyed, len(records))
	for i, rec := range records {
		v, ok := rec.Attr(spec.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownField, spec.Field, schema.Entity)
		}
		rows[i] = keyed{rec: rec, key: v}
	}
	cmp := schema.comparator(spec.Field)
	slices.SortStableFunc(rows, func(a, b keyed) int {
		c := cmp(a.key, b.key)
		if spec.Direction == Desc {
			return -c
		}
		return c
	})
	out := make([]R, len(rows))
	for i, row := range rows {
		out[i] = row.rec
	}
	return out, nil
}

// Paginate returns the window selected by page. A window past the end is empty.
func Paginate[R any](records []R, page Page) []R {
	if page.Size <= 0 || page.Index < 0 {
		return []R{}
	}
	pages := (len(records) + page.Size - 1) / page.Size
	if page.Index >= pages {
		return []R{}
	}
	start := page.Index * page.Size
	end := min(start+page.Size, len(records))
	return slices.Clone(records[start:end])
}

// Query runs filter, sort and paginate in that order. It never mutates records.
func Query[R Record](records []R, schema Schema, state QueryState) (Result[R], error) {
	if state.Page.Size <= 0 || state.Page.Index < 0 {
		return Result[R]{}, fmt.Errorf("%w: index %d size %d", ErrInvalidPage, state.Page.Index, state.Page.Size)
	}
	sortSpec := state.Sort
	if sortSpec.Field == "" {
		sortSpec = schema.DefaultSort
	}
	if sortSpec.Field != "" && !schema.CanSort(sortSpec.Field) {
		return Result[R]{}, fmt.Errorf("%w: %q on %s", ErrUnknownField, sortSpec.Field, schema.Entity)
	}

	matched := Filter(records, state.Search, schema.Searchable)
	sorted, err := Sort(matched, sortSpec, schema)
	if err != nil {
		return Result[R]{}, err
	}
	return Result[R]{
		Items:        Paginate(sorted, state.Page),
		TotalMatched: len(matched),
		Pagination:   shared.NewPagination(state.Page.Index, state.Page.Size, len(matched)),
	}, nil
}

func nonNil[R any](records []R) []R {
	if records == nil {
		return []R{}
	}
	return records
}
