package field

import (
	"fmt"
	"math"
	"strings"

	"github.com/castepkit/castbin/endian"
	"github.com/castepkit/castbin/errs"
	"github.com/castepkit/castbin/format"
	"github.com/castepkit/castbin/record"
)

// Field is one entry of a static format table. Decode either consumes
// exactly one record from r or, when a composite parent has already read
// the record, slices the supplied payload instead; the decoded entries
// are written into dec under the field's name(s).
//
// The descriptor set is closed; the width method seals the interface.
type Field interface {
	// Name returns the logical name the field decodes into.
	Name() string

	// Decode decodes the field and stores its entries in dec. payload is
	// nil unless a composite parent pre-read the record.
	Decode(r *record.Reader, dec *Values, payload []byte) error

	// width returns the number of payload bytes the field consumes when
	// embedded in a composite record.
	width(dec *Values) (int, error)
}

// recordPayload returns payload as-is when the parent already read the
// record, and reads one record otherwise.
func recordPayload(r *record.Reader, payload []byte) ([]byte, error) {
	if payload != nil {
		return payload, nil
	}

	data, _, err := r.Read()

	return data, err
}

// Scalar decodes a single element of its datatype from one record.
type Scalar struct {
	name  string
	dtype format.DataType
}

// NewScalar creates a scalar field of the given numeric datatype.
func NewScalar(name string, dtype format.DataType) *Scalar {
	return &Scalar{name: name, dtype: dtype}
}

func (f *Scalar) Name() string { return f.name }

func (f *Scalar) width(*Values) (int, error) {
	return f.dtype.Size(), nil
}

func (f *Scalar) Decode(r *record.Reader, dec *Values, payload []byte) error {
	data, err := recordPayload(r, payload)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.name, err)
	}

	if len(data) < f.dtype.Size() {
		return fmt.Errorf("field %q: %w: need %d bytes, have %d", f.name, errs.ErrShortPayload, f.dtype.Size(), len(data))
	}

	engine := r.Engine()
	switch f.dtype {
	case format.TypeInt32:
		dec.Set(f.name, int(int32(engine.Uint32(data))))
	case format.TypeFloat64:
		dec.Set(f.name, math.Float64frombits(engine.Uint64(data)))
	default:
		return fmt.Errorf("field %q: scalar cannot hold %s", f.name, f.dtype)
	}

	return nil
}

// Bool decodes a Fortran logical, which the runtime stores as a 4-byte
// integer: non-zero means true.
type Bool struct {
	name string
}

// NewBool creates a boolean field.
func NewBool(name string) *Bool {
	return &Bool{name: name}
}

func (f *Bool) Name() string { return f.name }

func (f *Bool) width(*Values) (int, error) {
	return format.TypeInt32.Size(), nil
}

func (f *Bool) Decode(r *record.Reader, dec *Values, payload []byte) error {
	data, err := recordPayload(r, payload)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.name, err)
	}

	if len(data) < format.TypeInt32.Size() {
		return fmt.Errorf("field %q: %w: need 4 bytes, have %d", f.name, errs.ErrShortPayload, len(data))
	}

	dec.Set(f.name, int32(r.Engine().Uint32(data)) != 0)

	return nil
}

// String decodes an entire record payload as text with trailing
// whitespace stripped.
type String struct {
	name string
}

// NewString creates a string field.
func NewString(name string) *String {
	return &String{name: name}
}

func (f *String) Name() string { return f.name }

func (f *String) width(*Values) (int, error) {
	return 0, fmt.Errorf("field %q: string fields consume a whole record and cannot be embedded in a composite", f.name)
}

func (f *String) Decode(r *record.Reader, dec *Values, payload []byte) error {
	data, err := recordPayload(r, payload)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.name, err)
	}

	dec.Set(f.name, strings.TrimRight(string(data), " \t\n\x00"))

	return nil
}

// Array decodes a multi-dimensional numeric array laid out in
// column-major order. At most one dimension of the declared shape may be
// unresolved at decode time; the missing dimension is inferred from the
// payload size and written back into the mapping under its symbolic
// name.
type Array struct {
	name  string
	dtype format.DataType
	shape Shape
}

// NewArray creates an array field of the given element datatype and
// declared shape.
func NewArray(name string, dtype format.DataType, shape Shape) *Array {
	return &Array{name: name, dtype: dtype, shape: shape}
}

func (f *Array) Name() string { return f.name }

// Shape returns the declared shape.
func (f *Array) Shape() Shape { return f.shape }

func (f *Array) width(dec *Values) (int, error) {
	dims, missing, err := f.shape.Resolve(dec)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", f.name, err)
	}
	if missing != "" {
		return 0, fmt.Errorf("field %q: dimension %q must be resolved before decoding inside a composite record", f.name, missing)
	}

	return product(dims) * f.dtype.Size(), nil
}

func (f *Array) Decode(r *record.Reader, dec *Values, payload []byte) error {
	data, err := recordPayload(r, payload)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.name, err)
	}

	dims, missing, err := f.shape.Resolve(dec)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.name, err)
	}

	elemSize := f.dtype.Size()
	count := product(dims)

	if missing != "" {
		// Infer the unknown dimension from the total element count of
		// the whole payload, then publish it for later fields.
		if len(data)%elemSize != 0 {
			return fmt.Errorf("field %q: %w: %d byte payload is not a whole number of %s elements",
				f.name, errs.ErrShapeMismatch, len(data), f.dtype)
		}

		total := len(data) / elemSize
		if count == 0 || total%count != 0 {
			return fmt.Errorf("field %q: %w: %d elements do not divide by known dimensions %v",
				f.name, errs.ErrShapeMismatch, total, f.shape)
		}

		inferred := total / count
		dec.Set(missing, inferred)
		for i, d := range dims {
			if d == unresolvedDim {
				dims[i] = inferred
			}
		}
		count = total
	} else if count*elemSize > len(data) {
		return fmt.Errorf("field %q: %w: shape %v needs %d bytes, have %d",
			f.name, errs.ErrShortPayload, dims, count*elemSize, len(data))
	}

	engine := r.Engine()
	switch f.dtype {
	case format.TypeInt32:
		arr, err := format.NewArray(ParseInt32s(engine, data, count), dims)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.name, err)
		}
		dec.Set(f.name, arr)
	case format.TypeFloat64:
		arr, err := format.NewArray(ParseFloat64s(engine, data, count), dims)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.name, err)
		}
		dec.Set(f.name, arr)
	default:
		return fmt.Errorf("field %q: array cannot hold %s", f.name, f.dtype)
	}

	return nil
}

// CharArray decodes a one-dimensional array of fixed-width character
// groups as a slice of trimmed strings, the way Fortran stores symbol
// tables such as species labels.
type CharArray struct {
	name  string
	chars int
	shape Shape
}

// NewCharArray creates a fixed-width character array field. width is
// the character width of one element.
func NewCharArray(name string, width int, shape Shape) *CharArray {
	return &CharArray{name: name, chars: width, shape: shape}
}

func (f *CharArray) Name() string { return f.name }

func (f *CharArray) width(dec *Values) (int, error) {
	dims, missing, err := f.shape.Resolve(dec)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", f.name, err)
	}
	if missing != "" {
		return 0, fmt.Errorf("field %q: dimension %q must be resolved before decoding inside a composite record", f.name, missing)
	}

	return product(dims) * f.chars, nil
}

func (f *CharArray) Decode(r *record.Reader, dec *Values, payload []byte) error {
	data, err := recordPayload(r, payload)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.name, err)
	}

	if len(f.shape) != 1 {
		return fmt.Errorf("field %q: character arrays must be one-dimensional, shape is %v", f.name, f.shape)
	}

	dims, missing, err := f.shape.Resolve(dec)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.name, err)
	}

	count := dims[0]
	if missing != "" {
		if len(data)%f.chars != 0 {
			return fmt.Errorf("field %q: %w: %d byte payload is not a whole number of %d character groups",
				f.name, errs.ErrShapeMismatch, len(data), f.chars)
		}
		count = len(data) / f.chars
		dec.Set(missing, count)
	} else if count*f.chars > len(data) {
		return fmt.Errorf("field %q: %w: %d groups of %d characters need %d bytes, have %d",
			f.name, errs.ErrShortPayload, count, f.chars, count*f.chars, len(data))
	}

	labels := make([]string, count)
	for i := range labels {
		labels[i] = strings.TrimSpace(string(data[i*f.chars : (i+1)*f.chars]))
	}
	dec.Set(f.name, labels)

	return nil
}

// Composite decodes a single record whose payload holds several fields
// back to back. Each sub-field receives the remaining slice of the
// payload and the offset advances by the sub-field's byte width.
type Composite struct {
	fields []Field
}

// NewComposite creates a composite field over the given sub-fields in
// their on-disk order.
func NewComposite(fields ...Field) *Composite {
	return &Composite{fields: fields}
}

// Name returns the joined sub-field names.
func (f *Composite) Name() string {
	names := make([]string, len(f.fields))
	for i, sub := range f.fields {
		names[i] = sub.Name()
	}

	return strings.Join(names, "+")
}

func (f *Composite) width(dec *Values) (int, error) {
	total := 0
	for _, sub := range f.fields {
		w, err := sub.width(dec)
		if err != nil {
			return 0, err
		}
		total += w
	}

	return total, nil
}

func (f *Composite) Decode(r *record.Reader, dec *Values, payload []byte) error {
	data, err := recordPayload(r, payload)
	if err != nil {
		return fmt.Errorf("composite %q: %w", f.Name(), err)
	}

	offset := 0
	for _, sub := range f.fields {
		w, err := sub.width(dec)
		if err != nil {
			return err
		}
		if offset+w > len(data) {
			return fmt.Errorf("composite %q: %w: sub-field %q needs %d bytes at offset %d of a %d byte record",
				f.Name(), errs.ErrShortPayload, sub.Name(), w, offset, len(data))
		}

		if err := sub.Decode(r, dec, data[offset:]); err != nil {
			return err
		}
		offset += w
	}

	return nil
}

// Structured is the escape hatch for layouts that cannot be expressed
// declaratively. The decode function owns its own record iteration and
// writes however many named entries it produces into the mapping itself.
type Structured struct {
	name   string
	decode func(r *record.Reader, dec *Values) error
}

// NewStructured creates a structured field around a custom multi-record
// decode function.
func NewStructured(name string, decode func(r *record.Reader, dec *Values) error) *Structured {
	return &Structured{name: name, decode: decode}
}

func (f *Structured) Name() string { return f.name }

func (f *Structured) width(*Values) (int, error) {
	return 0, fmt.Errorf("field %q: structured fields own their records and cannot be embedded in a composite", f.name)
}

func (f *Structured) Decode(r *record.Reader, dec *Values, payload []byte) error {
	if payload != nil {
		return fmt.Errorf("field %q: structured fields cannot decode a pre-read payload", f.name)
	}

	return f.decode(r, dec)
}

// ParseInt32s reinterprets count 4-byte signed integers from data using
// the given byte order. data must hold at least 4*count bytes.
func ParseInt32s(engine endian.EndianEngine, data []byte, count int) []int32 {
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(engine.Uint32(data[i*4:]))
	}

	return out
}

// ParseFloat64s reinterprets count 8-byte IEEE-754 doubles from data
// using the given byte order. data must hold at least 8*count bytes.
func ParseFloat64s(engine endian.EndianEngine, data []byte, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = math.Float64frombits(engine.Uint64(data[i*8:]))
	}

	return out
}
