package demo

import (
	"context"

	qmem "github.com/unkn0wn-root/speccache/query/memory"
)

// MemorySource serves the dataset from memory. Including "Customer" fills
// Order.Customer on copies, so the source's own rows are never mutated.
func MemorySource(ds Dataset) *qmem.Source[*Order] {
	byID := ds.customerIndex()
	return qmem.New(ds.Orders, qmem.WithRelation[*Order]("Customer", func(_ context.Context, items []*Order) error {
		for i, o := range items {
			cp := *o
			if c, ok := byID[o.CustomerID]; ok {
				cust := *c
				cp.Customer = &cust
			}
			items[i] = &cp
		}
		return nil
	}))
}
