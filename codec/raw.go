package codec

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

// String stores string values as their UTF-8 bytes.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

var errVarint = errors.New("codec: malformed varint")

// Varint stores an int as a zig-zag protobuf varint. Counts cached by the
// read façade fit in one or two bytes.
type Varint struct{}

func (Varint) Encode(n int) ([]byte, error) {
	return protowire.AppendVarint(nil, protowire.EncodeZigZag(int64(n))), nil
}

func (Varint) Decode(b []byte) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 || n != len(b) {
		return 0, errVarint
	}
	return int(protowire.DecodeZigZag(v)), nil
}
