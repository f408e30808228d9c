package sqlq

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/query"
	"github.com/unkn0wn-root/speccache/spec"
)

type Customer struct {
	ID   int64
	Name string
}

type Order struct {
	ID         int64
	Status     string
	Total      float64
	CustomerID int64
	Customer   *Customer
}

func loadCustomers(ctx context.Context, db Querier, d Dialect, items []*Order) error {
	if len(items) == 0 {
		return nil
	}
	args := make([]any, len(items))
	for i, o := range items {
		args[i] = o.CustomerID
	}
	rows, err := db.QueryContext(ctx,
		"SELECT id, name FROM customers WHERE id IN ("+Placeholders(d, 1, len(args))+")", args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	byID := map[int64]*Customer{}
	for rows.Next() {
		c := &Customer{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return err
		}
		byID[c.ID] = c
	}
	for _, o := range items {
		o.Customer = byID[o.CustomerID]
	}
	return rows.Err()
}

var ordersTable = &Table[*Order]{
	Name: "orders",
	Columns: []Column{
		{Field: "ID", Name: "id"},
		{Field: "Status", Name: "status"},
		{Field: "Total", Name: "total"},
		{Field: "CustomerID", Name: "customer_id"},
	},
	Scan: func(row Scanner) (*Order, error) {
		o := &Order{}
		err := row.Scan(&o.ID, &o.Status, &o.Total, &o.CustomerID)
		return o, err
	},
	Relations: map[string]Loader[*Order]{"Customer": loadCustomers},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			status TEXT,
			total NUMERIC NOT NULL,
			customer_id INTEGER NOT NULL
		);
		INSERT INTO customers VALUES (1, 'ann'), (2, 'bob');
		INSERT INTO orders VALUES
			(3, 'Paid', 30, 1), (1, 'Open', 10, 2), (5, 'Paid', 50, 2),
			(2, 'Paid', 20, 1), (4, 'Open', 40, 1);
	`)
	require.NoError(t, err)
	return db
}

func newSource(t *testing.T) *Source[*Order] {
	t.Helper()
	src, err := New(openDB(t), SQLite, ordersTable)
	require.NoError(t, err)
	return src
}

func ids(items []*Order) []int64 {
	out := make([]int64, len(items))
	for i, o := range items {
		out[i] = o.ID
	}
	return out
}

func TestStatement_Parameterized(t *testing.T) {
	src := newSource(t)
	status := "Paid"
	s := spec.For[*Order]().
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand {
			return o.Field("Status").Eq(expr.Capture("status", &status)).And(o.Field("Total").Gt(15))
		})).
		OrderByDescending(expr.Member("o", "Total")).
		Page(1, 2).
		Build()
	q, err := query.Plan(s, src)
	require.NoError(t, err)

	stmt, args, err := Statement(q)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "id", "status", "total", "customer_id" FROM "orders" WHERE (("status" = ?) AND ("total" > ?)) ORDER BY "total" DESC LIMIT 2 OFFSET 1`,
		stmt)
	assert.NotContains(t, stmt, "Paid")
	assert.Equal(t, []any{"Paid", 15}, args)

	out, err := q.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(out))
}

func TestList_FallbackOrderAndCount(t *testing.T) {
	src := newSource(t)
	q, err := query.Plan(spec.For[*Order]().Page(1, 3).Build(), src)
	require.NoError(t, err)

	stmt, _, err := Statement(q)
	require.NoError(t, err)
	assert.Contains(t, stmt, `ORDER BY "id" ASC`)

	out, err := q.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, ids(out))

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestList_MembershipAndStrings(t *testing.T) {
	src := newSource(t)
	cases := []struct {
		name string
		pred *expr.Lambda
		want []int64
	}{
		{"in", spec.ByIDs[*Order]([]int64{5, 1}).Criteria(), []int64{1, 5}},
		{"in-empty", spec.ByIDs[*Order]([]int64{}).Criteria(), []int64{}},
		{"starts", expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Status").StartsWith("Pa") }), []int64{2, 3, 5}},
		{"ends", expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Status").EndsWith("en") }), []int64{1, 4}},
		{"contains", expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Status").Contains("ai") }), []int64{2, 3, 5}},
		{"lower", expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Status").ToLower().Eq("open") }), []int64{1, 4}},
		{"not", expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Total").Lt(25).Not() }), []int64{3, 4, 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := src.Query().Where(tc.pred).OrderBy(expr.Member("o", "ID"), true)
			out, err := q.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(out))
		})
	}
}

func TestList_Includes(t *testing.T) {
	src := newSource(t)
	q := src.Query().Include(expr.Member("o", "Customer")).AsNoTracking()
	out, err := q.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, o := range out {
		require.NotNil(t, o.Customer)
		assert.Equal(t, o.CustomerID, o.Customer.ID)
	}

	_, err = src.Query().IncludePath("Lines").List(context.Background())
	assert.ErrorIs(t, err, query.ErrUnknownInclude)
}

func TestList_TrackedReadsShareInstances(t *testing.T) {
	src := newSource(t)
	a, err := src.Query().Where(spec.ByID[*Order](int64(3)).Criteria()).List(context.Background())
	require.NoError(t, err)
	b, err := src.Query().Where(spec.ByID[*Order](int64(3)).Criteria()).List(context.Background())
	require.NoError(t, err)
	assert.Same(t, a[0], b[0])
	assert.Equal(t, 1, src.Tracker().Len())
}

func TestStatement_NullAndUnsupported(t *testing.T) {
	src := newSource(t)
	stmt, args, err := Statement(src.Query().Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand {
		return o.Field("Status").Ne(nil)
	})))
	require.NoError(t, err)
	assert.Contains(t, stmt, `("status" IS NOT NULL)`)
	assert.Empty(t, args)

	_, _, err = Statement(src.Query().Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand {
		return o.Field("Customer").Field("Name").Eq("ann")
	})))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPostgresDialect(t *testing.T) {
	db := openDB(t)
	src, err := New(db, Postgres, ordersTable)
	require.NoError(t, err)
	q, err := query.Plan(spec.ByIDs[*Order]([]int64{1, 2}).WithUntracked(), src)
	require.NoError(t, err)
	stmt, args, err := Statement(q)
	require.NoError(t, err)
	assert.Contains(t, stmt, `("id" IN ($1, $2))`)
	assert.Equal(t, []any{int64(1), int64(2)}, args)
	assert.Equal(t, " OFFSET 5", Postgres.Limit(-1, 5))
	assert.Equal(t, " LIMIT -1 OFFSET 5", SQLite.Limit(-1, 5))
}
