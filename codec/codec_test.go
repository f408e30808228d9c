package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type line struct {
	ID       uuid.UUID
	Product  string
	Price    decimal.Decimal
	Shipped  time.Time
	Quantity int
}

func sample() []line {
	return []line{
		{
			ID:       uuid.MustParse("5b0a1a8e-2b8f-4d53-9a55-3f0c52b3b8a1"),
			Product:  "widget",
			Price:    decimal.RequireFromString("19.99"),
			Shipped:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Quantity: 3,
		},
		{ID: uuid.Nil, Product: "gadget", Price: decimal.Zero},
	}
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestByNameRoundTrip(t *testing.T) {
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			c, err := ByName[[]line](name)
			if err != nil {
				t.Fatalf("ByName: %v", err)
			}
			b, err := c.Encode(sample())
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := c.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(sample(), got, decimalEqual); diff != "" {
				t.Fatalf("round trip (-want +got):\n%s", diff)
			}
		})
	}
	if _, err := ByName[int]("yaml"); err == nil {
		t.Fatalf("unknown codec accepted")
	}
}

func TestCBORDeterministic(t *testing.T) {
	c, err := NewCBOR[map[string]int](true)
	if err != nil {
		t.Fatal(err)
	}
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	first, _ := c.Encode(m)
	for i := 0; i < 20; i++ {
		b, _ := c.Encode(m)
		if string(b) != string(first) {
			t.Fatalf("deterministic CBOR produced different bytes")
		}
	}
}

func TestEmptySliceSurvives(t *testing.T) {
	c := JSON[[]line]{}
	b, _ := c.Encode([]line{})
	got, err := c.Decode(b)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("empty slice decoded as %#v, %v", got, err)
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if _, err := c.Decode([]byte("12345")); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("oversized payload accepted: %v", err)
	}
	if got, err := c.Decode([]byte("1234")); err != nil || got != "1234" {
		t.Fatalf("Decode = %q, %v", got, err)
	}
	if got, _ := (Limit[string]{Inner: String{}}).Decode([]byte("unbounded")); got != "unbounded" {
		t.Fatalf("MaxDecode 0 must disable the limit")
	}
}

func TestVarint(t *testing.T) {
	for _, n := range []int{0, 1, -1, 42, 1 << 40, -(1 << 40)} {
		b, _ := Varint{}.Encode(n)
		got, err := Varint{}.Decode(b)
		if err != nil || got != n {
			t.Fatalf("Varint(%d) = %d, %v", n, got, err)
		}
	}
	if b, _ := (Varint{}).Encode(3); len(b) != 1 {
		t.Fatalf("small counts should take one byte, got %d", len(b))
	}
	if _, err := (Varint{}).Decode([]byte{0x80}); err == nil {
		t.Fatalf("truncated varint accepted")
	}
	if _, err := (Varint{}).Decode([]byte{0x02, 0x00}); err == nil {
		t.Fatalf("trailing bytes accepted")
	}
}
