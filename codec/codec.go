// Package codec converts attribute values and whole items to bytes for
// stores that have no native typed item format (store/redis, store/cached).
//
// Decoded numbers may come back as a different Go type than was encoded
// (JSON yields float64, Msgpack int64/uint64). Callers compare values through
// a numeric-normalizing equality, never by type.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
