package sqlq

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between supported databases.
type Dialect interface {
	Name() string
	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder(n int) string
	Quote(ident string) string
	// Position returns an expression yielding the 1-based index of needle in
	// haystack, or 0.
	Position(haystack, needle string) string
	// Limit renders the paging clause. limit < 0 means unbounded.
	Limit(limit, offset int) string
}

// SQLite is the dialect of modernc.org/sqlite.
var SQLite Dialect = sqlite{}

// Postgres is the dialect of pgx's database/sql driver.
var Postgres Dialect = postgres{}

// DialectByName resolves "sqlite" or "postgres".
func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, true
	case "postgres", "postgresql", "pgx":
		return Postgres, true
	}
	return nil, false
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

type sqlite struct{}

func (sqlite) Name() string                { return "sqlite" }
func (sqlite) Placeholder(int) string      { return "?" }
func (sqlite) Quote(ident string) string   { return quoteIdent(ident) }
func (sqlite) Position(h, n string) string { return "INSTR(" + h + ", " + n + ")" }

func (sqlite) Limit(limit, offset int) string {
	switch {
	case limit < 0 && offset <= 0:
		return ""
	case limit < 0:
		return " LIMIT -1 OFFSET " + strconv.Itoa(offset)
	case offset <= 0:
		return " LIMIT " + strconv.Itoa(limit)
	}
	return " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
}

type postgres struct{}

func (postgres) Name() string                { return "postgres" }
func (postgres) Placeholder(n int) string    { return "$" + strconv.Itoa(n) }
func (postgres) Quote(ident string) string   { return quoteIdent(ident) }
func (postgres) Position(h, n string) string { return "STRPOS(" + h + ", " + n + ")" }

func (postgres) Limit(limit, offset int) string {
	var sb strings.Builder
	if limit >= 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(limit))
	}
	if offset > 0 {
		sb.WriteString(" OFFSET " + strconv.Itoa(offset))
	}
	return sb.String()
}
