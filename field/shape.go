package field

import (
	"fmt"

	"github.com/castepkit/castbin/errs"
)

// unresolvedDim is the sentinel placed in a concrete shape for the single
// dimension that could not be resolved yet.
const unresolvedDim = -1

// Dim is one entry of a declared array shape: either a fixed positive
// size or a symbolic reference to a previously decoded scalar.
type Dim struct {
	size int
	name string
}

// FixedDim declares a dimension of known size.
func FixedDim(n int) Dim {
	return Dim{size: n}
}

// SymbolDim declares a dimension whose size is the decoded value of the
// named scalar field.
func SymbolDim(name string) Dim {
	return Dim{name: name}
}

// IsSymbolic reports whether the dimension is a named reference.
func (d Dim) IsSymbolic() bool {
	return d.name != ""
}

func (d Dim) String() string {
	if d.IsSymbolic() {
		return d.name
	}

	return fmt.Sprintf("%d", d.size)
}

// Shape is a declared array shape in Fortran dimension order.
type Shape []Dim

// Dims builds a Shape from a mix of int sizes and string symbol names,
// mirroring how the format tables are written down. It panics on any
// other entry type; tables are static, so a bad entry is a programming
// error caught by the table's own tests.
func Dims(entries ...any) Shape {
	shape := make(Shape, 0, len(entries))
	for _, e := range entries {
		switch v := e.(type) {
		case int:
			shape = append(shape, FixedDim(v))
		case string:
			shape = append(shape, SymbolDim(v))
		default:
			panic(fmt.Sprintf("shape entry %v (%T) is neither int nor string", e, e))
		}
	}

	return shape
}

// Resolve substitutes symbolic dimensions with their decoded values.
//
// It returns the concrete shape (with unresolvedDim marking the single
// dimension that is still unknown) and the name of that unresolved
// symbol, empty when the shape resolved fully. More than one unresolved
// dimension means the static table itself is inconsistent and yields
// errs.ErrUnresolvableShape.
func (s Shape) Resolve(decoded *Values) ([]int, string, error) {
	dims := make([]int, len(s))
	unresolved := ""
	nunresolved := 0

	for i, d := range s {
		if !d.IsSymbolic() {
			dims[i] = d.size
			continue
		}

		if n, ok := decoded.Int(d.name); ok {
			dims[i] = n
			continue
		}

		dims[i] = unresolvedDim
		unresolved = d.name
		nunresolved++
	}

	if nunresolved > 1 {
		return nil, "", fmt.Errorf("%w: %v", errs.ErrUnresolvableShape, s)
	}

	return dims, unresolved, nil
}

// product multiplies the known dimensions of a concrete shape, skipping
// the unresolved sentinel.
func product(dims []int) int {
	n := 1
	for _, d := range dims {
		if d != unresolvedDim {
			n *= d
		}
	}

	return n
}
