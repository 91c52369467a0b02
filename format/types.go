// Package format defines the element types and array layout shared by the
// castbin decoding packages.
package format

// DataType identifies the element type of a record payload.
//
// Fortran writes logicals as 4-byte integers, so there is no separate
// boolean type at this level; the field layer interprets them.
type DataType uint8

const (
	TypeInt32   DataType = 0x1 // TypeInt32 is a 4-byte signed integer element.
	TypeFloat64 DataType = 0x2 // TypeFloat64 is an 8-byte IEEE-754 element.
	TypeChar    DataType = 0x3 // TypeChar is a single character byte; fields set the group width.
)

// Size returns the width of one element in bytes, or 0 for an unknown type.
func (t DataType) Size() int {
	switch t {
	case TypeInt32:
		return 4
	case TypeFloat64:
		return 8
	case TypeChar:
		return 1
	default:
		return 0
	}
}

func (t DataType) String() string {
	switch t {
	case TypeInt32:
		return "Int32"
	case TypeFloat64:
		return "Float64"
	case TypeChar:
		return "Char"
	default:
		return "Unknown"
	}
}
