package pdos

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castepkit/castbin/endian"
	"github.com/castepkit/castbin/errs"
)

var bigEndian = endian.GetBigEndianEngine()

type fileBuilder struct {
	buf []byte
}

func (fb *fileBuilder) record(payload []byte) *fileBuilder {
	fb.buf = bigEndian.AppendUint32(fb.buf, uint32(len(payload)))
	fb.buf = append(fb.buf, payload...)
	fb.buf = bigEndian.AppendUint32(fb.buf, uint32(len(payload)))

	return fb
}

func (fb *fileBuilder) int32s(vals ...int32) *fileBuilder {
	var payload []byte
	for _, v := range vals {
		payload = bigEndian.AppendUint32(payload, uint32(v))
	}

	return fb.record(payload)
}

func (fb *fileBuilder) float64s(vals ...float64) *fileBuilder {
	var payload []byte
	for _, v := range vals {
		payload = bigEndian.AppendUint64(payload, math.Float64bits(v))
	}

	return fb.record(payload)
}

func (fb *fileBuilder) chars80(s string) *fileBuilder {
	payload := make([]byte, 80)
	for i := range payload {
		payload[i] = ' '
	}
	copy(payload, s)

	return fb.record(payload)
}

// kpoint appends the composite record of a 1-based k-point index and its
// three fractional coordinates.
func (fb *fileBuilder) kpoint(idx int32, coords [3]float64) *fileBuilder {
	payload := bigEndian.AppendUint32(nil, uint32(idx))
	for _, c := range coords {
		payload = bigEndian.AppendUint64(payload, math.Float64bits(c))
	}

	return fb.record(payload)
}

// weight returns the test weight of orbital iorb, band nb, k-point nk.
func weight(iorb, nb, nk int) float64 {
	return float64(iorb*100 + nb*10 + nk)
}

// buildTestFile assembles a pdos_bin stream with 3 population orbitals
// (two on species 1 ion 1, one on species 2 ion 1, all s-channel),
// 2 k-points, 1 spin, and 2 bands.
func buildTestFile() []byte {
	fb := &fileBuilder{}
	fb.float64s(1.0).
		chars80("pdos_bin test").
		int32s(2). // num_kpoints
		int32s(1). // num_spins
		int32s(3). // num_popn_orb
		int32s(2). // max_eigenenv
		int32s(1, 1, 2). // species
		int32s(1, 1, 1). // ion
		int32s(0, 0, 0)  // am_channel

	for nk := 0; nk < 2; nk++ {
		fb.kpoint(int32(nk+1), [3]float64{0.1 * float64(nk), 0.2, 0.3})
		fb.int32s(1) // spin channel index
		fb.int32s(2) // num_eigenvalues
		for nb := 0; nb < 2; nb++ {
			fb.float64s(weight(0, nb, nk), weight(1, nb, nk), weight(2, nb, nk))
		}
	}

	return fb.buf
}

func TestRead(t *testing.T) {
	f, err := Read(bytes.NewReader(buildTestFile()))
	require.NoError(t, err)

	require.Equal(t, 1.0, f.Version)
	require.Equal(t, "pdos_bin test", f.Header)
	require.Equal(t, 2, f.NumKpoints)
	require.Equal(t, 1, f.NumSpins)
	require.Equal(t, 3, f.NumOrbitals)
	require.Equal(t, 2, f.MaxEigenvalues)
	require.Equal(t, []int32{1, 1, 2}, f.Species)
	require.Equal(t, []int32{1, 1, 1}, f.Ion)
	require.Equal(t, []int32{0, 0, 0}, f.AMChannel)
	require.Equal(t, []int32{2}, f.NumEigenvalues)

	require.Equal(t, []int{3, 2, 2, 1}, f.Weights.Shape())
	for iorb := 0; iorb < 3; iorb++ {
		for nb := 0; nb < 2; nb++ {
			for nk := 0; nk < 2; nk++ {
				require.Equal(t, weight(iorb, nb, nk), f.Weights.At(iorb, nb, nk, 0))
			}
		}
	}

	require.Equal(t, []int{2, 3}, f.Kpoints.Shape())
	require.Equal(t, 0.1, f.Kpoints.At(1, 0))
	require.Equal(t, 0.2, f.Kpoints.At(0, 1))
}

func TestReadTooManyEigenvalues(t *testing.T) {
	fb := &fileBuilder{}
	fb.float64s(1.0).
		chars80("pdos_bin").
		int32s(1).
		int32s(1).
		int32s(1).
		int32s(2). // max_eigenenv
		int32s(1).
		int32s(1).
		int32s(0).
		kpoint(1, [3]float64{0, 0, 0}).
		int32s(1).
		int32s(5) // num_eigenvalues > max_eigenenv

	_, err := Read(bytes.NewReader(fb.buf))
	require.ErrorIs(t, err, errs.ErrShapeMismatch)
}

func TestReadTruncated(t *testing.T) {
	data := buildTestFile()
	_, err := Read(bytes.NewReader(data[:len(data)-10]))
	require.Error(t, err)
}

func TestReadNonPositiveCount(t *testing.T) {
	fb := &fileBuilder{}
	fb.float64s(1.0).
		chars80("pdos_bin").
		int32s(0) // num_kpoints must be positive

	_, err := Read(bytes.NewReader(fb.buf))
	require.ErrorContains(t, err, "num_kpoints")
}

func TestReorderMergesSameOrbital(t *testing.T) {
	f, err := Read(bytes.NewReader(buildTestFile()))
	require.NoError(t, err)

	sites, err := Reorder(f)
	require.NoError(t, err)
	require.Len(t, sites, 2)

	// Site 0 carries two s channels merged by summation.
	proj, ok := sites[0][OrbS]
	require.True(t, ok)
	w, ok := proj[SpinUp]
	require.True(t, ok)
	require.Equal(t, []int{2, 2}, w.Shape())
	for nb := 0; nb < 2; nb++ {
		for nk := 0; nk < 2; nk++ {
			require.Equal(t, weight(0, nb, nk)+weight(1, nb, nk), w.At(nb, nk))
		}
	}

	// Site 1 carries the single remaining s channel.
	w = sites[1][OrbS][SpinUp]
	require.Equal(t, weight(2, 1, 0), w.At(1, 0))

	_, ok = sites[0][OrbPx]
	require.False(t, ok)
}

func TestReorderTwoSpins(t *testing.T) {
	fb := &fileBuilder{}
	fb.float64s(1.0).
		chars80("pdos_bin").
		int32s(1). // num_kpoints
		int32s(2). // num_spins
		int32s(1). // num_popn_orb
		int32s(1). // max_eigenenv
		int32s(1).
		int32s(1).
		int32s(0).
		kpoint(1, [3]float64{0, 0, 0})

	for ns := 0; ns < 2; ns++ {
		fb.int32s(int32(ns + 1))
		fb.int32s(1)
		fb.float64s(float64(ns + 1))
	}

	f, err := Read(bytes.NewReader(fb.buf))
	require.NoError(t, err)

	sites, err := Reorder(f)
	require.NoError(t, err)
	require.Len(t, sites, 1)

	proj := sites[0][OrbS]
	require.Equal(t, 1.0, proj[SpinUp].At(0, 0))
	require.Equal(t, 2.0, proj[SpinDown].At(0, 0))
}

func TestOrbitalLabels(t *testing.T) {
	require.Equal(t, "S", OrbS.String())
	require.Equal(t, "Dxx-yy", OrbDx2.String())
	require.Equal(t, "Fz(xx-yy)", OrbFzxxyy.String())

	require.Equal(t, TypeS, OrbS.Type())
	require.Equal(t, TypeP, OrbPz.Type())
	require.Equal(t, TypeD, OrbDxy.Type())
	require.Equal(t, TypeF, OrbFxyz.Type())

	require.Equal(t, "up", SpinUp.String())
	require.Equal(t, "down", SpinDown.String())
	require.Equal(t, "d", TypeD.String())
}
