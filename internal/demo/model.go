// Package demo holds the sample order domain used by the command line tool:
// entities, a deterministic generator, and in-memory and SQL sources.
package demo

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	StatusOpen      = "Open"
	StatusPaid      = "Paid"
	StatusShipped   = "Shipped"
	StatusCancelled = "Cancelled"
)

var Statuses = []string{StatusOpen, StatusPaid, StatusShipped, StatusCancelled}

type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier"`
}

type Order struct {
	ID         int64           `json:"id"`
	Ref        uuid.UUID       `json:"ref"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CustomerID int64           `json:"customer_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Customer   *Customer       `json:"customer,omitempty"`
}
