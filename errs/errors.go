// Package errs defines the sentinel errors shared across castbin packages.
//
// All errors are plain sentinel values so callers can match them with
// errors.Is regardless of the context that call sites wrap around them.
package errs

import "errors"

// Record protocol errors.
var (
	// ErrRecordCorruption indicates that the start and end markers of a
	// record disagree. The stream position is no longer trustworthy and
	// the whole decode must be aborted.
	ErrRecordCorruption = errors.New("record start and end markers are inconsistent")

	// ErrTruncatedRecord indicates that the stream ended inside a record
	// marker or payload.
	ErrTruncatedRecord = errors.New("stream truncated inside a record")

	// ErrInvalidMarkerWidth indicates an unsupported record marker width
	// was configured; only 4 and 8 byte markers exist in the wild.
	ErrInvalidMarkerWidth = errors.New("invalid record marker width")
)

// Header index errors.
var (
	// ErrFormatMismatch indicates the file does not begin with the
	// mandatory CASTEP_BIN sentinel record.
	ErrFormatMismatch = errors.New("file does not start with the CASTEP_BIN sentinel")

	// ErrMissingEndSentinel indicates the stream ended before the
	// mandatory END sentinel record was seen.
	ErrMissingEndSentinel = errors.New("no END sentinel before end of stream")

	// ErrSectionNotFound indicates an explicitly requested section has no
	// entry in the header index.
	ErrSectionNotFound = errors.New("section not found in header index")
)

// Field decoding errors.
var (
	// ErrUnresolvableShape indicates a declared shape with more than one
	// symbolic dimension still unresolved at decode time. This is an
	// inconsistency in the static field table, not a data error.
	ErrUnresolvableShape = errors.New("shape has more than one unresolved dimension")

	// ErrShapeMismatch indicates the record payload does not hold a whole
	// number of elements for the resolved shape.
	ErrShapeMismatch = errors.New("payload size does not match resolved shape")

	// ErrShortPayload indicates a record payload holds fewer bytes than
	// the field requires.
	ErrShortPayload = errors.New("record payload too short for field")
)
