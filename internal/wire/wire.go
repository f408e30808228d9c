package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 2
	kindEntry byte = 1

	hdrLen = 4 + 1 + 1 + 8 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("speccache: corrupt entry")
	magic4     = [...]byte{'S', 'P', 'C', 'C'}
)

// Entry is a cached value together with the generations it was computed
// under and its absolute expiry. Expires == 0 means the entry never expires.
type Entry struct {
	NSGen   uint64
	KeyGen  uint64
	Expires int64 // unix nanos
	Payload []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames e as
//
//	magic(4) | ver(1) | kind(1) | nsgen(u64 be) | keygen(u64 be) | expires(i64 be) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.NSGen)
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], e.KeyGen)
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(e.Expires))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode parses a frame produced by Encode. The returned payload aliases b.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}

	off := 6
	var e Entry
	e.NSGen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	e.KeyGen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	e.Expires = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return Entry{}, ErrCorrupt
	}
	e.Payload = b[off : off+vlen]
	return e, nil
}

// Expired reports whether e is past its expiry at now (unix nanos).
func (e Entry) Expired(now int64) bool {
	return e.Expires != 0 && now >= e.Expires
}
