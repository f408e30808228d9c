package codec

import "fmt"

// Limit wraps another codec and rejects payloads longer than MaxDecode
// bytes before decoding them. MaxDecode <= 0 disables the check.
//
// Cached query results come back from a store other processes may write to,
// so an oversized entry is refused instead of being materialized.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
