package shared

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ListFilter carries the coarse filters the record store applies before the
// table pipeline runs. Free-text search is applied by the pipeline itself.
type ListFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// Lister is the record store contract for one entity type.
type Lister[R any] interface {
	List(ctx context.Context, filter ListFilter) ([]R, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc[R any] func(ctx context.Context, filter ListFilter) ([]R, error)

// List calls f.
func (f ListerFunc[R]) List(ctx context.Context, filter ListFilter) ([]R, error) {
	return f(ctx, filter)
}

// Where renders the filter as a SQL predicate with positional arguments.
// Empty column names disable the corresponding clause.
func (f ListFilter) Where(statusColumn, dateColumn string) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if statusColumn != "" && strings.TrimSpace(f.Status) != "" {
		args = append(args, strings.TrimSpace(f.Status))
		clauses = append(clauses, fmt.Sprintf("%s = $%d", statusColumn, len(args)))
	}
	if dateColumn != "" && f.From != nil {
		args = append(args, *f.From)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", dateColumn, len(args)))
	}
	if dateColumn != "" && f.To != nil {
		args = append(args, *f.To)
		clauses = append(clauses, fmt.Sprintf("%s < $%d", dateColumn, len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
