package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castepkit/castbin/endian"
	"github.com/castepkit/castbin/errs"
)

// appendIntRecord appends a record holding a single big-endian int32.
func appendIntRecord(buf []byte, v int32) []byte {
	engine := endian.GetBigEndianEngine()
	return appendRecord(buf, engine.AppendUint32(nil, uint32(v)))
}

func TestBuildIndex(t *testing.T) {
	data := appendRecord(nil, []byte("CASTEP_BIN"))
	data = appendRecord(data, []byte("CELL%NUM_IONS"))
	afterNumIons := len(data)
	data = appendIntRecord(data, 8)
	data = appendRecord(data, []byte("FORCES"))
	afterForces := len(data)
	data = appendIntRecord(data, 1)
	data = appendRecord(data, []byte("END"))

	r := newTestReader(t, data)
	idx, err := BuildIndex(r)
	require.NoError(t, err)

	off, ok := idx.Offset("CELL%NUM_IONS")
	require.True(t, ok)
	require.Equal(t, int64(afterNumIons), off)

	off, ok = idx.Offset("FORCES")
	require.True(t, ok)
	require.Equal(t, int64(afterForces), off)

	// The trailing sentinel terminates the scan and is not indexed.
	_, ok = idx.Offset("END")
	require.False(t, ok)

	require.Equal(t, []string{"CELL%NUM_IONS", "FORCES"}, idx.Headers())
}

func TestBuildIndexQuotedSentinel(t *testing.T) {
	data := appendRecord(nil, []byte("'CASTEP_BIN'"))
	data = appendRecord(data, []byte("END"))

	r := newTestReader(t, data)
	_, err := BuildIndex(r)
	require.NoError(t, err)
}

func TestBuildIndexFormatMismatch(t *testing.T) {
	data := appendRecord(nil, []byte("NOT_A_CASTEP_FILE"))
	data = appendRecord(data, []byte("END"))

	r := newTestReader(t, data)
	_, err := BuildIndex(r)
	require.ErrorIs(t, err, errs.ErrFormatMismatch)
}

func TestBuildIndexMissingEndSentinel(t *testing.T) {
	data := appendRecord(nil, []byte("CASTEP_BIN"))
	data = appendRecord(data, []byte("NKPTS"))

	r := newTestReader(t, data)
	_, err := BuildIndex(r)
	require.ErrorIs(t, err, errs.ErrMissingEndSentinel)
}

func TestBuildIndexStopsAtEnd(t *testing.T) {
	// Garbage after END must never be scanned; truncated trailing bytes
	// would fail the read if the scan went past the sentinel.
	data := appendRecord(nil, []byte("CASTEP_BIN"))
	data = appendRecord(data, []byte("END"))
	data = append(data, 0xDE, 0xAD)

	r := newTestReader(t, data)
	idx, err := BuildIndex(r)
	require.NoError(t, err)
	require.Empty(t, idx)
}

func TestBuildIndexDuplicateHeaderLastWins(t *testing.T) {
	data := appendRecord(nil, []byte("CASTEP_BIN"))
	data = appendRecord(data, []byte("FORCES"))
	data = appendIntRecord(data, 1)
	data = appendRecord(data, []byte("FORCES"))
	lastOffset := len(data)
	data = appendIntRecord(data, 2)
	data = appendRecord(data, []byte("END"))

	r := newTestReader(t, data)
	idx, err := BuildIndex(r)
	require.NoError(t, err)

	off, ok := idx.Offset("FORCES")
	require.True(t, ok)
	require.Equal(t, int64(lastOffset), off)
}

func TestBuildIndexClassification(t *testing.T) {
	data := appendRecord(nil, []byte("CASTEP_BIN"))
	// Binary payload with invalid UTF-8: skipped, not classified.
	data = appendRecord(data, []byte{0xFF, 0xFE, 0x00, 0x01})
	// Printable but lower-case: not a header.
	data = appendRecord(data, []byte("not_a_header"))
	// Printable but leading digit: not a header.
	data = appendRecord(data, []byte("42HEADER"))
	// Mixed case: not a header.
	data = appendRecord(data, []byte("Almost"))
	data = appendRecord(data, []byte("REAL_HEADER"))
	data = appendRecord(data, []byte("END"))

	r := newTestReader(t, data)
	idx, err := BuildIndex(r)
	require.NoError(t, err)
	require.Equal(t, []string{"REAL_HEADER"}, idx.Headers())
}

func TestIsHeader(t *testing.T) {
	cases := []struct {
		payload []byte
		want    bool
	}{
		{[]byte("CELL%NUM_IONS"), true},
		{[]byte("'END'"), true},
		{[]byte("  FORCES  "), true},
		{[]byte(""), false},
		{[]byte("   "), false},
		{[]byte("1234"), false},
		{[]byte("lower"), false},
		{[]byte{0x80, 0x81}, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, isHeader(tc.payload), "payload %q", tc.payload)
	}
}
