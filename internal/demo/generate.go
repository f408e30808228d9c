package demo

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// refSpace is the UUID namespace order refs are derived from, so a given
// order id always gets the same ref.
var refSpace = uuid.MustParse("9a3c6f0e-4a51-4b8e-8f0d-6c1b7d2e5a10")

var names = []string{"ann", "bob", "cai", "dee", "eli", "fay", "gus", "hal", "ivy", "jon"}

// Epoch is the creation time of order 1. Order n is created n-1 hours later.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Dataset is a generated set of customers and their orders.
type Dataset struct {
	Customers []Customer
	Orders    []*Order
}

// Generate builds a deterministic dataset; the same arguments always
// produce the same rows.
func Generate(customers, orders int, seed uint64) Dataset {
	customers = max(customers, 1)
	r := rand.New(rand.NewPCG(seed, seed^0x5eed))

	ds := Dataset{
		Customers: make([]Customer, customers),
		Orders:    make([]*Order, orders),
	}
	for i := range ds.Customers {
		tier := "silver"
		if r.IntN(4) == 0 {
			tier = "gold"
		}
		ds.Customers[i] = Customer{
			ID:   int64(i + 1),
			Name: names[i%len(names)] + strconv.Itoa(i/len(names)+1),
			Tier: tier,
		}
	}
	for i := range ds.Orders {
		id := int64(i + 1)
		ds.Orders[i] = &Order{
			ID:         id,
			Ref:        uuid.NewSHA1(refSpace, []byte(strconv.FormatInt(id, 10))),
			Status:     Statuses[r.IntN(len(Statuses))],
			Total:      decimal.New(r.Int64N(100_000)+100, -2),
			CustomerID: int64(r.IntN(customers) + 1),
			CreatedAt:  Epoch.Add(time.Duration(i) * time.Hour),
		}
	}
	return ds
}

func (ds Dataset) customerIndex() map[int64]*Customer {
	byID := make(map[int64]*Customer, len(ds.Customers))
	for i := range ds.Customers {
		byID[ds.Customers[i].ID] = &ds.Customers[i]
	}
	return byID
}
