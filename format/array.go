package format

import "fmt"

// Element constrains the numeric element types an Array can hold.
type Element interface {
	~int32 | ~float64
}

// Array is a dense multi-dimensional numeric array in column-major
// (Fortran) element order: the first shape index varies fastest in the
// backing slice. This mirrors the layout of the record payloads the
// arrays are decoded from, so construction is a straight reinterpret
// with no element shuffling.
//
// An Array is not safe for concurrent mutation; decoded arrays are
// normally treated as read-only.
type Array[T Element] struct {
	shape []int
	data  []T
}

// NewArray wraps data in an Array with the given shape. The length of
// data must equal the product of the shape dimensions.
func NewArray[T Element](data []T, shape []int) (*Array[T], error) {
	n := 1
	for _, dim := range shape {
		if dim <= 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", dim, shape)
		}
		n *= dim
	}

	if n != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d", shape, n, len(data))
	}

	return &Array[T]{shape: append([]int(nil), shape...), data: data}, nil
}

// Zeros creates a zero-filled Array with the given shape.
func Zeros[T Element](shape ...int) *Array[T] {
	n := 1
	for _, dim := range shape {
		n *= dim
	}

	return &Array[T]{shape: append([]int(nil), shape...), data: make([]T, n)}
}

// Shape returns the array dimensions. The returned slice is owned by the
// array and must not be modified.
func (a *Array[T]) Shape() []int {
	return a.shape
}

// Rank returns the number of dimensions.
func (a *Array[T]) Rank() int {
	return len(a.shape)
}

// Len returns the total number of elements.
func (a *Array[T]) Len() int {
	return len(a.data)
}

// Data returns the backing slice in column-major order.
func (a *Array[T]) Data() []T {
	return a.data
}

// At returns the element at the given multi-dimensional index.
// The number of indices must equal the rank.
func (a *Array[T]) At(idx ...int) T {
	return a.data[a.offset(idx)]
}

// Set stores v at the given multi-dimensional index.
func (a *Array[T]) Set(v T, idx ...int) {
	a.data[a.offset(idx)] = v
}

// offset converts a multi-dimensional index into a column-major flat
// offset: off = i0 + n0*(i1 + n1*(i2 + ...)).
func (a *Array[T]) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("array index rank %d does not match shape %v", len(idx), a.shape))
	}

	off := 0
	for i := len(idx) - 1; i >= 0; i-- {
		if idx[i] < 0 || idx[i] >= a.shape[i] {
			panic(fmt.Sprintf("array index %v out of range for shape %v", idx, a.shape))
		}
		off = off*a.shape[i] + idx[i]
	}

	return off
}
