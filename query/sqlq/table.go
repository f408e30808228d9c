package sqlq

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Column maps an entity field to a column.
type Column struct {
	Field string
	Name  string
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Querier is the subset of *sql.DB used by relation loaders.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Loader fills the related data named by an include path into items.
type Loader[E any] func(ctx context.Context, db Querier, d Dialect, items []E) error

// Table describes how entities of type E are stored.
type Table[E any] struct {
	Name    string
	Columns []Column
	// PrimaryKey is a field name; empty means spec.PrimaryKey[E]().
	PrimaryKey string
	// Scan reads one row whose columns are in Columns order.
	Scan      func(row Scanner) (E, error)
	Relations map[string]Loader[E]
}

func (t *Table[E]) validate() error {
	switch {
	case t == nil:
		return errors.New("sqlq: table is required")
	case t.Name == "":
		return errors.New("sqlq: table name is required")
	case len(t.Columns) == 0:
		return errors.New("sqlq: table has no columns")
	case t.Scan == nil:
		return errors.New("sqlq: table scan func is required")
	}
	return nil
}

func (t *Table[E]) column(field string) (string, bool) {
	for _, c := range t.Columns {
		if c.Field == field {
			return c.Name, true
		}
	}
	return "", false
}

func (t *Table[E]) selectList(d Dialect) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = d.Quote(c.Name)
	}
	return strings.Join(cols, ", ")
}

// Placeholders returns n bind parameters starting at from (1-based), for
// loaders building IN lists.
func Placeholders(d Dialect, from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.Placeholder(from + i)
	}
	return strings.Join(ph, ", ")
}
