package castep

import (
	"fmt"
	"io"
	"strings"

	"github.com/castepkit/castbin/errs"
	"github.com/castepkit/castbin/field"
	"github.com/castepkit/castbin/record"
)

// Decoder decodes the sections of one castep_bin stream.
//
// Construction scans the whole stream once to build the header index;
// Decode then seeks to each requested section and decodes its fields.
// A Decoder owns its stream position and is not safe for concurrent use.
type Decoder struct {
	reader *record.Reader
	index  record.Index
}

// NewDecoder creates a Decoder over a seekable stream and builds its
// header index. Options are forwarded to the record reader.
//
// Returns errs.ErrFormatMismatch if the stream does not start with the
// CASTEP_BIN sentinel.
func NewDecoder(rs io.ReadSeeker, opts ...record.Option) (*Decoder, error) {
	reader, err := record.NewReader(rs, opts...)
	if err != nil {
		return nil, err
	}

	index, err := record.BuildIndex(reader)
	if err != nil {
		reader.Release()
		return nil, err
	}

	return &Decoder{reader: reader, index: index}, nil
}

// Index returns the header index built at construction.
func (d *Decoder) Index() record.Index {
	return d.index
}

// Decode decodes the requested sections and returns the accumulated
// mapping. With no arguments every section of the static table present
// in the file is decoded.
//
// Sections are always processed in the static table's declaration order,
// and the nested CELL% sections are always decoded regardless of the
// filter: nearly every array shape references the cell's counts.
// Requesting a section that has no entry in the header index fails with
// errs.ErrSectionNotFound; no partial mapping is returned.
func (d *Decoder) Decode(requested ...string) (*field.Values, error) {
	for _, name := range requested {
		if _, ok := d.index.Offset(name); !ok {
			return nil, fmt.Errorf("%w: %q", errs.ErrSectionNotFound, name)
		}
	}

	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}

	dec := field.NewValues()
	for _, section := range sections {
		if len(requested) > 0 && !want[section.Header] && !strings.HasPrefix(section.Header, "CELL%") {
			continue
		}

		offset, ok := d.index.Offset(section.Header)
		if !ok {
			continue
		}

		if err := d.decodeSection(section, offset, dec); err != nil {
			return nil, err
		}
	}

	return dec, nil
}

// decodeSection seeks to the section's first data record and decodes its
// field descriptors in declared order into the shared mapping.
func (d *Decoder) decodeSection(section Section, offset int64, dec *field.Values) error {
	if err := d.reader.Seek(offset); err != nil {
		return fmt.Errorf("section %s: %w", section.Header, err)
	}

	for _, f := range section.Fields {
		if err := f.Decode(d.reader, dec, nil); err != nil {
			return fmt.Errorf("section %s: %w", section.Header, err)
		}
	}

	return nil
}

// Release returns the decoder's pooled buffers. The Decoder remains
// usable afterwards; Release is typically deferred right after
// construction.
func (d *Decoder) Release() {
	d.reader.Release()
}
