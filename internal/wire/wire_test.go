package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func mustDecode(t *testing.T, b []byte) Entry {
	t.Helper()
	e, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return e
}

func TestEntryEmptyAndNonEmpty(t *testing.T) {
	cases := []Entry{
		{},
		{NSGen: 3, KeyGen: 42, Expires: 1_700_000_000_000_000_000, Payload: []byte("hello")},
		{NSGen: math.MaxUint64, KeyGen: math.MaxUint64, Expires: math.MaxInt64, Payload: []byte{0, 1, 2}},
	}
	for _, tc := range cases {
		got := mustDecode(t, Encode(tc))
		if got.NSGen != tc.NSGen || got.KeyGen != tc.KeyGen || got.Expires != tc.Expires {
			t.Fatalf("header mismatch: got %+v want %+v", got, tc)
		}
		if !bytes.Equal(got.Payload, tc.Payload) {
			t.Fatalf("payload mismatch: got %x want %x", got.Payload, tc.Payload)
		}
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := Encode(Entry{NSGen: 7, Payload: []byte("x")})
	enc = append(enc, 0xDE, 0xAD)
	if _, err := Decode(enc); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestDecodeCorruptHeadersAndLengths(t *testing.T) {
	enc := Encode(Entry{NSGen: 1, Payload: []byte("abc")})

	mutate := func(f func(b []byte) []byte) []byte {
		return f(append([]byte(nil), enc...))
	}
	cases := map[string][]byte{
		"short":   enc[:hdrLen-1],
		"magic":   mutate(func(b []byte) []byte { b[0] = 'X'; return b }),
		"version": mutate(func(b []byte) []byte { b[4] = 1; return b }),
		"kind":    mutate(func(b []byte) []byte { b[5] = 9; return b }),
		"vlen": mutate(func(b []byte) []byte {
			binary.BigEndian.PutUint32(b[hdrLen-4:hdrLen], 1000)
			return b
		}),
		"truncated": enc[:len(enc)-1],
		"foreign":   []byte("not-wire-format-but-long-enough-for-a-header"),
	}
	for name, b := range cases {
		if _, err := Decode(b); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestExpired(t *testing.T) {
	if (Entry{}).Expired(math.MaxInt64) {
		t.Fatalf("zero expiry must never expire")
	}
	e := Entry{Expires: 100}
	if e.Expired(99) {
		t.Fatalf("expired too early")
	}
	if !e.Expired(100) || !e.Expired(101) {
		t.Fatalf("expiry not enforced")
	}
}
