package record

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/castepkit/castbin/errs"
)

const (
	// LeadingSentinel is the mandatory text of the first record.
	LeadingSentinel = "CASTEP_BIN"

	// TrailingSentinel is the header text that terminates the scan.
	TrailingSentinel = "END"

	// scanReadLimit bounds the payloads the index pass materializes.
	// Header strings are short; anything larger is data and is skipped.
	scanReadLimit = 512
)

// Index maps section-header names to the absolute byte offset of the
// first data record following the header.
type Index map[string]int64

// Offset returns the section offset for name.
func (idx Index) Offset(name string) (int64, bool) {
	off, ok := idx[name]
	return off, ok
}

// Headers returns the indexed header names in sorted order.
func (idx Index) Headers() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// BuildIndex scans the whole stream once and indexes every section
// header it finds.
//
// The first record must decode to the CASTEP_BIN sentinel, otherwise
// errs.ErrFormatMismatch is returned. Scanning stops at the END sentinel,
// which is not itself indexed: no section's data follows it, so an entry
// for it would only pollute Headers. A stream that ends without the
// sentinel is reported as errs.ErrMissingEndSentinel.
// If the same header occurs more than once the last occurrence wins,
// consistent with the append-only way these files are written.
//
// A record is classified as a header iff its bytes are valid UTF-8 and
// the trimmed text is non-empty, starts with a letter, and equals its own
// upper-casing. A binary payload that happens to decode as printable
// upper-case ASCII would be misclassified; the heuristic is kept as-is
// for compatibility with the files in the wild.
func BuildIndex(r *Reader) (Index, error) {
	payload, _, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading leading sentinel record: %w", err)
	}

	if headerText(payload) != LeadingSentinel {
		return nil, fmt.Errorf("%w: got %q", errs.ErrFormatMismatch, headerText(payload))
	}

	idx := make(Index)
	for {
		payload, _, err := r.ReadLimit(scanReadLimit)
		if err == io.EOF {
			return nil, errs.ErrMissingEndSentinel
		}
		if err != nil {
			return nil, fmt.Errorf("scanning for headers: %w", err)
		}

		if payload == nil || !isHeader(payload) {
			continue
		}

		name := headerText(payload)
		if name == TrailingSentinel {
			return idx, nil
		}

		offset, err := r.Offset()
		if err != nil {
			return nil, fmt.Errorf("recording offset for header %q: %w", name, err)
		}
		idx[name] = offset
	}
}

// headerText decodes a payload as trimmed text with surrounding single
// quotes stripped.
func headerText(payload []byte) string {
	return strings.TrimSpace(strings.Trim(string(payload), "'"))
}

// isHeader reports whether a payload passes the header classification
// heuristic.
func isHeader(payload []byte) bool {
	if !utf8.Valid(payload) {
		return false
	}

	text := headerText(payload)
	if text == "" {
		return false
	}

	first, _ := utf8.DecodeRuneInString(text)
	if !unicode.IsLetter(first) {
		return false
	}

	return text == strings.ToUpper(text)
}
