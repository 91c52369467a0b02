// Package record implements the Fortran unformatted record protocol used
// by CASTEP binary dump files, and the header-offset index built on top
// of it.
//
// Each record on disk is a payload bracketed by two identical length
// markers. The markers are 4-byte big-endian unsigned integers in every
// file variant observed so far; both properties are configurable for
// completeness.
package record

import (
	"fmt"
	"io"

	"github.com/castepkit/castbin/endian"
	"github.com/castepkit/castbin/errs"
	"github.com/castepkit/castbin/internal/options"
	"github.com/castepkit/castbin/internal/pool"
)

// Reader reads length-delimited records from a seekable stream.
//
// A Reader is not safe for concurrent use: the stream position is shared
// mutable state. Decoding independent files from independent Readers is
// safe.
type Reader struct {
	r           io.ReadSeeker
	engine      endian.EndianEngine
	markerWidth int
	scan        *pool.ByteBuffer
	marker      [8]byte
}

// Option configures a Reader.
type Option = options.Option[*Reader]

// WithEngine sets the byte order used for record markers. The default is
// big-endian, the only variant CASTEP produces.
func WithEngine(engine endian.EndianEngine) Option {
	return options.NoError(func(r *Reader) {
		r.engine = engine
	})
}

// WithMarkerWidth sets the record marker width in bytes. Supported widths
// are 4 (default, gfortran 4.2+ and ifort) and 8 (some legacy compilers).
func WithMarkerWidth(width int) Option {
	return options.New(func(r *Reader) error {
		if width != 4 && width != 8 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidMarkerWidth, width)
		}
		r.markerWidth = width

		return nil
	})
}

// NewReader creates a record Reader over the given stream.
func NewReader(r io.ReadSeeker, opts ...Option) (*Reader, error) {
	reader := &Reader{
		r:           r,
		engine:      endian.GetBigEndianEngine(),
		markerWidth: 4,
	}

	if err := options.Apply(reader, opts...); err != nil {
		return nil, err
	}

	return reader, nil
}

// Read reads the next record and returns its payload and length.
//
// The returned slice is freshly allocated and owned by the caller. The
// stream is left positioned immediately after the trailing marker.
// Returns io.EOF when the stream ends cleanly on a record boundary, and
// errs.ErrRecordCorruption when the trailing marker disagrees with the
// leading one.
func (r *Reader) Read() ([]byte, int64, error) {
	length, err := r.readMarker()
	if err != nil {
		return nil, 0, err
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, 0, fmt.Errorf("%w: payload of %d bytes: %w", errs.ErrTruncatedRecord, length, err)
	}

	if err := r.checkTrailer(length); err != nil {
		return nil, 0, err
	}

	return payload, length, nil
}

// ReadLimit reads the next record if its payload is at most limit bytes,
// and otherwise skips past it without materializing the data, returning a
// nil payload. The record length is returned in both cases, and the
// trailing marker is verified in both cases.
//
// The returned payload points into a pooled scratch buffer: it is only
// valid until the next ReadLimit call or until Release. Callers that need
// to keep the bytes must copy them.
func (r *Reader) ReadLimit(limit int64) ([]byte, int64, error) {
	length, err := r.readMarker()
	if err != nil {
		return nil, 0, err
	}

	var payload []byte
	if length <= limit {
		if r.scan == nil {
			r.scan = pool.GetScanBuffer()
		}
		r.scan.Resize(int(length))
		payload = r.scan.Bytes()

		if _, err := io.ReadFull(r.r, payload); err != nil {
			return nil, 0, fmt.Errorf("%w: payload of %d bytes: %w", errs.ErrTruncatedRecord, length, err)
		}
	} else {
		if _, err := r.r.Seek(length, io.SeekCurrent); err != nil {
			return nil, 0, fmt.Errorf("skipping %d byte payload: %w", length, err)
		}
	}

	if err := r.checkTrailer(length); err != nil {
		return nil, 0, err
	}

	return payload, length, nil
}

// Engine returns the byte order the reader decodes markers with. Payload
// consumers use the same engine for element decoding.
func (r *Reader) Engine() endian.EndianEngine {
	return r.engine
}

// Seek positions the stream at the given absolute byte offset.
func (r *Reader) Seek(offset int64) error {
	if _, err := r.r.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to offset %d: %w", offset, err)
	}

	return nil
}

// Offset returns the current absolute stream position.
func (r *Reader) Offset() (int64, error) {
	return r.r.Seek(0, io.SeekCurrent)
}

// Release returns the scratch buffer to the pool. Payloads previously
// returned by ReadLimit are invalid afterwards. The Reader itself remains
// usable; a later ReadLimit acquires a fresh buffer.
func (r *Reader) Release() {
	if r.scan != nil {
		pool.PutScanBuffer(r.scan)
		r.scan = nil
	}
}

// readMarker reads one leading record marker. A clean EOF at a record
// boundary surfaces as io.EOF; a partial marker is reported as truncation.
func (r *Reader) readMarker() (int64, error) {
	buf := r.marker[:r.markerWidth]
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}

		return 0, fmt.Errorf("%w: record marker: %w", errs.ErrTruncatedRecord, err)
	}

	return r.decodeMarker(buf), nil
}

// checkTrailer reads the trailing marker and verifies it matches length.
func (r *Reader) checkTrailer(length int64) error {
	buf := r.marker[:r.markerWidth]
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return fmt.Errorf("%w: trailing marker: %w", errs.ErrTruncatedRecord, err)
	}

	if trailer := r.decodeMarker(buf); trailer != length {
		return fmt.Errorf("%w: start %d, end %d", errs.ErrRecordCorruption, length, trailer)
	}

	return nil
}

func (r *Reader) decodeMarker(buf []byte) int64 {
	if r.markerWidth == 8 {
		return int64(r.engine.Uint64(buf))
	}

	return int64(r.engine.Uint32(buf))
}
