// Package codec provides pluggable value serialization for the session
// stores. The document-embedded transfer state is always JSON (a script
// element must stay readable by the hydrating side); codecs only cover what
// goes into backing stores.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
