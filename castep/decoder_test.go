package castep

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castepkit/castbin/endian"
	"github.com/castepkit/castbin/errs"
	"github.com/castepkit/castbin/field"
	"github.com/castepkit/castbin/format"
)

var bigEndian = endian.GetBigEndianEngine()

// fileBuilder assembles a synthetic castep_bin stream record by record.
type fileBuilder struct {
	buf []byte
}

func newFileBuilder() *fileBuilder {
	fb := &fileBuilder{}
	return fb.record([]byte("CASTEP_BIN"))
}

func (fb *fileBuilder) record(payload []byte) *fileBuilder {
	fb.buf = bigEndian.AppendUint32(fb.buf, uint32(len(payload)))
	fb.buf = append(fb.buf, payload...)
	fb.buf = bigEndian.AppendUint32(fb.buf, uint32(len(payload)))

	return fb
}

func (fb *fileBuilder) header(name string) *fileBuilder {
	return fb.record([]byte(name))
}

func (fb *fileBuilder) int32s(vals ...int32) *fileBuilder {
	var payload []byte
	for _, v := range vals {
		payload = bigEndian.AppendUint32(payload, uint32(v))
	}

	return fb.record(payload)
}

func (fb *fileBuilder) float64s(vals ...float64) *fileBuilder {
	return fb.record(packFloat64s(vals...))
}

func (fb *fileBuilder) end() []byte {
	return fb.header("END").buf
}

func packFloat64s(vals ...float64) []byte {
	var payload []byte
	for _, v := range vals {
		payload = bigEndian.AppendUint64(payload, math.Float64bits(v))
	}

	return payload
}

func newTestDecoder(t *testing.T, data []byte) *Decoder {
	t.Helper()

	d, err := NewDecoder(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(d.Release)

	return d
}

func TestDecodeScalarSection(t *testing.T) {
	data := newFileBuilder().
		header("CELL%NUM_IONS").int32s(8).
		end()

	d := newTestDecoder(t, data)
	dec, err := d.Decode()
	require.NoError(t, err)

	got, ok := dec.Get("num_ions")
	require.True(t, ok)
	require.Equal(t, 8, got)
}

func TestDecodeInferredDimension(t *testing.T) {
	forces := make([]float64, 72)
	for i := range forces {
		forces[i] = float64(i)
	}

	data := newFileBuilder().
		header("CELL%MAX_IONS_IN_SPECIES").int32s(4).
		header("FORCES").float64s(forces...).
		end()

	d := newTestDecoder(t, data)
	dec, err := d.Decode()
	require.NoError(t, err)

	numSpecies, ok := dec.Int("num_species")
	require.True(t, ok)
	require.Equal(t, 6, numSpecies)

	got, ok := dec.Get("forces")
	require.True(t, ok)
	arr := got.(*format.Array[float64])
	require.Equal(t, []int{3, 4, 6}, arr.Shape())
	// Column-major layout: flat index i + 3*(j + 4*k).
	require.Equal(t, float64(2+3*(1+4*5)), arr.At(2, 1, 5))
}

func TestDecodeCellSections(t *testing.T) {
	lattice := []float64{1, 0, 0, 0, 2, 0, 0, 0, 3}

	data := newFileBuilder().
		header("CELL%NUM_IONS").int32s(3).
		header("CELL%MAX_IONS_IN_SPECIES").int32s(2).
		header("CELL%REAL_LATTICE").float64s(lattice...).
		header("CELL%NUM_SPECIES").int32s(2).
		header("CELL%NUM_IONS_IN_SPECIES").int32s(2, 1).
		header("CELL%IONIC_POSITIONS").float64s(make([]float64, 3*2*2)...).
		header("CELL%SPECIES_SYMBOL").record([]byte("Si      O       ")).
		end()

	d := newTestDecoder(t, data)
	dec, err := d.Decode()
	require.NoError(t, err)

	require.Equal(t,
		[]string{"num_ions", "max_ions_in_species", "real_lattice", "num_species",
			"num_ions_in_species", "ionic_positions", "species_symbol"},
		dec.Keys())

	got, _ := dec.Get("real_lattice")
	lat := got.(*format.Array[float64])
	require.Equal(t, 2.0, lat.At(1, 1))

	symbols, _ := dec.Get("species_symbol")
	require.Equal(t, []string{"Si", "O"}, symbols)
}

func TestDecodeSectionNotFound(t *testing.T) {
	data := newFileBuilder().
		header("CELL%NUM_IONS").int32s(8).
		end()

	d := newTestDecoder(t, data)
	_, err := d.Decode("BORN_CHGS")
	require.ErrorIs(t, err, errs.ErrSectionNotFound)
	require.ErrorContains(t, err, "BORN_CHGS")
}

func TestDecodeFilterKeepsCellSections(t *testing.T) {
	forces := make([]float64, 3*4*6)

	data := newFileBuilder().
		header("CELL%MAX_IONS_IN_SPECIES").int32s(4).
		header("NKPTS").int32s(5).
		header("FORCES").float64s(forces...).
		end()

	d := newTestDecoder(t, data)
	dec, err := d.Decode("FORCES")
	require.NoError(t, err)

	// CELL% sections decode regardless of the filter; NKPTS does not.
	require.True(t, dec.Has("max_ions_in_species"))
	require.True(t, dec.Has("forces"))
	require.False(t, dec.Has("nkpts"))
}

func TestDecodeEigenvalueBlock(t *testing.T) {
	const (
		nbands = 3
		nspins = 2
		nkpts  = 2
	)

	fb := newFileBuilder().
		header("NKPTS").int32s(nkpts).
		header("END_CELL_GLOBAL").
		int32s(1). // found_ground_state_wavefunction
		int32s(0). // found_ground_state_density
		float64s(-104.25).
		float64s(4.5)

	// nbands and nspins share one record.
	var comp []byte
	comp = bigEndian.AppendUint32(comp, nbands)
	comp = bigEndian.AppendUint32(comp, nspins)
	fb.record(comp)

	for ik := 0; ik < nkpts; ik++ {
		fb.float64s(0.1*float64(ik), 0.2*float64(ik), 0.3*float64(ik))
		for is := 0; is < nspins; is++ {
			fb.float64s(1, 1, 0)                                        // occupancies
			fb.float64s(float64(ik), float64(is), float64(100+ik+is)) // eigenvalues
		}
	}

	d := newTestDecoder(t, fb.end())
	dec, err := d.Decode()
	require.NoError(t, err)

	require.Equal(t, true, mustGet(t, dec, "found_ground_state_wavefunction"))
	require.Equal(t, false, mustGet(t, dec, "found_ground_state_density"))
	require.Equal(t, -104.25, mustGet(t, dec, "total_energy"))
	require.Equal(t, 4.5, mustGet(t, dec, "fermi_energy"))

	occ := mustGet(t, dec, "occupancies").(*format.Array[float64])
	eig := mustGet(t, dec, "eigenvalues").(*format.Array[float64])
	kpts := mustGet(t, dec, "kpoints_of_eigenvalues").(*format.Array[float64])

	require.Equal(t, []int{nbands, nkpts, nspins}, occ.Shape())
	require.Equal(t, []int{nbands, nkpts, nspins}, eig.Shape())
	require.Equal(t, []int{3, nkpts}, kpts.Shape())

	require.Equal(t, 0.0, occ.At(2, 0, 0))
	require.Equal(t, 101.0, eig.At(2, 1, 0))
	require.Equal(t, 102.0, eig.At(2, 1, 1))
	require.Equal(t, 0.2, kpts.At(1, 1))
}

func TestDecodeEigenvalueBlockMissingCounts(t *testing.T) {
	// END_CELL_GLOBAL without a preceding NKPTS section: the block cannot
	// size its arrays.
	fb := newFileBuilder().
		header("END_CELL_GLOBAL").
		int32s(1).
		int32s(0).
		float64s(-1.0).
		float64s(0.0)

	var comp []byte
	comp = bigEndian.AppendUint32(comp, 2)
	comp = bigEndian.AppendUint32(comp, 1)
	fb.record(comp)

	d := newTestDecoder(t, fb.end())
	_, err := d.Decode()
	require.ErrorIs(t, err, errs.ErrUnresolvableShape)
}

func TestHeadersDeclarationOrder(t *testing.T) {
	headers := Headers()
	require.Equal(t, "CELL%NUM_IONS", headers[0])
	require.Equal(t, "END_CELL_GLOBAL", headers[len(headers)-1])
	require.Len(t, Sections(), len(headers))
}

func mustGet(t *testing.T, dec *field.Values, name string) any {
	t.Helper()

	got, ok := dec.Get(name)
	require.True(t, ok, "field %q not decoded", name)

	return got
}
