package demo

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/speccache/query/sqlq"
)

// Open connects to a demo database. driver is "sqlite" (modernc) or
// "postgres" (pgx through database/sql).
func Open(ctx context.Context, driver, dsn string) (*sql.DB, sqlq.Dialect, error) {
	d, ok := sqlq.DialectByName(driver)
	if !ok {
		return nil, nil, fmt.Errorf("demo: unknown driver %q", driver)
	}
	name := "sqlite"
	if d == sqlq.Postgres {
		name = "pgx"
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("demo: open %s: %w", driver, err)
	}
	if d == sqlq.SQLite {
		// one writer; also keeps ":memory:" a single database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("demo: ping %s: %w", driver, err)
	}
	return db, d, nil
}

func schema(d sqlq.Dialect) []string {
	if d == sqlq.Postgres {
		return []string{
			`DROP TABLE IF EXISTS orders`,
			`DROP TABLE IF EXISTS customers`,
			`CREATE TABLE customers (id BIGINT PRIMARY KEY, name TEXT NOT NULL, tier TEXT NOT NULL)`,
			`CREATE TABLE orders (
				id BIGINT PRIMARY KEY,
				ref UUID NOT NULL,
				status TEXT NOT NULL,
				total NUMERIC(12, 2) NOT NULL,
				customer_id BIGINT NOT NULL REFERENCES customers (id),
				created_at TIMESTAMPTZ NOT NULL
			)`,
		}
	}
	return []string{
		`DROP TABLE IF EXISTS orders`,
		`DROP TABLE IF EXISTS customers`,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, tier TEXT NOT NULL)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			ref TEXT NOT NULL,
			status TEXT NOT NULL,
			total NUMERIC NOT NULL,
			customer_id INTEGER NOT NULL REFERENCES customers (id),
			created_at TIMESTAMP NOT NULL
		)`,
	}
}

// Seed recreates the demo tables and loads ds in one transaction.
func Seed(ctx context.Context, db *sql.DB, d sqlq.Dialect, ds Dataset) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range schema(d) {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("demo: schema: %w", err)
		}
	}

	insCustomer := "INSERT INTO customers (id, name, tier) VALUES (" + sqlq.Placeholders(d, 1, 3) + ")"
	for _, c := range ds.Customers {
		if _, err = tx.ExecContext(ctx, insCustomer, c.ID, c.Name, c.Tier); err != nil {
			return fmt.Errorf("demo: insert customer %d: %w", c.ID, err)
		}
	}
	insOrder := "INSERT INTO orders (id, ref, status, total, customer_id, created_at) VALUES (" +
		sqlq.Placeholders(d, 1, 6) + ")"
	for _, o := range ds.Orders {
		_, err = tx.ExecContext(ctx, insOrder, o.ID, o.Ref.String(), o.Status, o.Total, o.CustomerID, o.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("demo: insert order %d: %w", o.ID, err)
		}
	}
	return tx.Commit()
}

// OrdersTable maps Order onto the orders table, with "Customer" as an
// includable relation.
var OrdersTable = &sqlq.Table[*Order]{
	Name: "orders",
	Columns: []sqlq.Column{
		{Field: "ID", Name: "id"},
		{Field: "Ref", Name: "ref"},
		{Field: "Status", Name: "status"},
		{Field: "Total", Name: "total"},
		{Field: "CustomerID", Name: "customer_id"},
		{Field: "CreatedAt", Name: "created_at"},
	},
	Scan: func(row sqlq.Scanner) (*Order, error) {
		o := &Order{}
		err := row.Scan(&o.ID, &o.Ref, &o.Status, &o.Total, &o.CustomerID, &o.CreatedAt)
		return o, err
	},
	Relations: map[string]sqlq.Loader[*Order]{"Customer": loadCustomers},
}

func loadCustomers(ctx context.Context, db sqlq.Querier, d sqlq.Dialect, items []*Order) error {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(items))
	args := make([]any, 0, len(items))
	for _, o := range items {
		if !seen[o.CustomerID] {
			seen[o.CustomerID] = true
			args = append(args, o.CustomerID)
		}
	}
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, tier FROM customers WHERE id IN ("+sqlq.Placeholders(d, 1, len(args))+")", args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[int64]*Customer, len(args))
	for rows.Next() {
		c := &Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Tier); err != nil {
			return err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, o := range items {
		o.Customer = byID[o.CustomerID]
	}
	return nil
}

// SQLSource serves orders from db.
func SQLSource(db *sql.DB, d sqlq.Dialect) (*sqlq.Source[*Order], error) {
	return sqlq.New(db, d, OrdersTable)
}
