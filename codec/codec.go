// Package codec turns cached values into bytes and back.
//
// JSON, Msgpack and CBOR work for any value type. Varint is a compact codec
// for counts. Limit caps payload size on decode for shared stores.
package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Names lists the codecs ByName understands.
var Names = []string{"json", "msgpack", "cbor"}

// ByName returns a general-purpose codec for V by its configuration name.
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case "", "json":
		return JSON[V]{}, nil
	case "msgpack":
		return Msgpack[V]{}, nil
	case "cbor":
		return NewCBOR[V](true)
	}
	return nil, fmt.Errorf("codec: unknown codec %q (want one of %v)", name, Names)
}
