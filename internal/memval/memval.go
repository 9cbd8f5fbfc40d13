// Package memval defines the tagged value stored for every key across the
// in-memory buffer, the on-disk index, and the engine's read path.
package memval

// Kind tags a [Value] as either a live payload or a deletion marker.
type Kind uint8

const (
	// Present marks a key that maps to Bytes.
	Present Kind = 0
	// Tombstone marks a key that has been deleted; it shadows any value for
	// the same key in an older generation.
	Tombstone Kind = 1
)

// Value is the closed two-variant union every table (MemBuffer, generation
// index) stores per key: either Present(bytes) or Tombstone.
//
// There is no dynamic dispatch here by design - callers switch on Kind.
type Value struct {
	Kind  Kind
	Bytes []byte
}

// NewPresent wraps b as a present value. b is retained, not copied.
func NewPresent(b []byte) Value {
	return Value{Kind: Present, Bytes: b}
}

// NewTombstone returns a tombstone value.
func NewTombstone() Value {
	return Value{Kind: Tombstone}
}

// IsPresent reports whether v holds a live value.
func (v Value) IsPresent() bool {
	return v.Kind == Present
}

// IsTombstone reports whether v marks a deletion.
func (v Value) IsTombstone() bool {
	return v.Kind == Tombstone
}
