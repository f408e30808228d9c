// Package query turns specifications into executable reads against a data
// source.
package query

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/speccache/expr"
)

var ErrInvalidArgument = errors.New("query: invalid argument")

// ErrUnknownInclude is returned by sources asked to load a relation they
// have no loader for.
var ErrUnknownInclude = errors.New("query: unknown include path")

// Query is a composable read over entities of type E. Each method returns a
// query with one more stage; stages run in the order they were added.
type Query[E any] interface {
	Where(pred *expr.Lambda) Query[E]
	Include(path *expr.Lambda) Query[E]
	IncludePath(path string) Query[E]
	// OrderBy replaces any earlier ordering.
	OrderBy(key *expr.Lambda, ascending bool) Query[E]
	AsNoTracking() Query[E]
	Skip(n int) Query[E]
	Take(n int) Query[E]

	List(ctx context.Context) ([]E, error)
	Count(ctx context.Context) (int, error)
}

// Source is the data-source boundary for one entity type.
type Source[E any] interface {
	Query() Query[E]
	// PrimaryKey names the field used for the fallback paging order.
	PrimaryKey() string
}
