// Package field models the typed field descriptors that decode CASTEP
// record payloads, and the shared mapping of decoded values they write
// into.
//
// The descriptor set is closed: Scalar, Bool, String, Array, CharArray,
// Composite and Structured. Each descriptor is an immutable specification
// constructed once as part of a static format table; decoding threads a
// Values mapping through the descriptors so later fields can resolve
// array shapes against scalars decoded earlier.
package field

// Values is an insertion-ordered mapping from logical field name to its
// decoded value (int, float64, bool, string, []string, or a
// *format.Array). One Values instance is owned by exactly one decode
// pass; it is not safe for concurrent use.
type Values struct {
	keys []string
	m    map[string]any
}

// NewValues creates an empty mapping.
func NewValues() *Values {
	return &Values{m: make(map[string]any)}
}

// Set stores val under name. Overwriting an existing name keeps its
// original insertion position.
func (v *Values) Set(name string, val any) {
	if _, ok := v.m[name]; !ok {
		v.keys = append(v.keys, name)
	}
	v.m[name] = val
}

// Get returns the value stored under name.
func (v *Values) Get(name string) (any, bool) {
	val, ok := v.m[name]
	return val, ok
}

// Has reports whether name has been decoded.
func (v *Values) Has(name string) bool {
	_, ok := v.m[name]
	return ok
}

// Int returns the value under name coerced to int. It supports the
// integer widths a decode pass can produce; anything else reports false.
func (v *Values) Int(name string) (int, bool) {
	val, ok := v.m[name]
	if !ok {
		return 0, false
	}

	switch n := val.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// Keys returns the field names in insertion order. The returned slice is
// owned by the mapping.
func (v *Values) Keys() []string {
	return v.keys
}

// Len returns the number of decoded fields.
func (v *Values) Len() int {
	return len(v.keys)
}
