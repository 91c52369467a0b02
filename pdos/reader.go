package pdos

import (
	"fmt"
	"io"
	"math"

	"github.com/castepkit/castbin/errs"
	"github.com/castepkit/castbin/field"
	"github.com/castepkit/castbin/format"
	"github.com/castepkit/castbin/record"
)

// File holds the decoded contents of one pdos_bin file.
//
// Weights is shaped (NumOrbitals, MaxEigenvalues, NumKpoints, NumSpins)
// in column-major order; bands beyond a spin channel's eigenvalue count
// keep zero weight. Kpoints is shaped (NumKpoints, 3), in the order the
// weights were written, which may differ from the cell's k-point list.
type File struct {
	Version        float64
	Header         string
	NumKpoints     int
	NumSpins       int
	NumOrbitals    int
	MaxEigenvalues int

	// Per-orbital metadata, each of length NumOrbitals. Species and Ion
	// are the 1-based species and ion indices CASTEP assigned; AMChannel
	// is the angular-momentum channel l.
	Species   []int32
	Ion       []int32
	AMChannel []int32

	Weights        *format.Array[float64]
	Kpoints        *format.Array[float64]
	NumEigenvalues []int32
}

// Read decodes a pdos_bin stream. Options are forwarded to the record
// reader; the default 4-byte big-endian markers match every file seen in
// the wild.
func Read(rs io.ReadSeeker, opts ...record.Option) (*File, error) {
	r, err := record.NewReader(rs, opts...)
	if err != nil {
		return nil, err
	}

	f := &File{}
	if err := f.readPreamble(r); err != nil {
		return nil, err
	}
	if err := f.readOrbitalTable(r); err != nil {
		return nil, err
	}
	if err := f.readWeights(r); err != nil {
		return nil, err
	}

	return f, nil
}

// readPreamble decodes the fixed leading scalar sequence.
func (f *File) readPreamble(r *record.Reader) error {
	version, err := readFloat64(r, "file version")
	if err != nil {
		return err
	}
	f.Version = version

	payload, _, err := r.Read()
	if err != nil {
		return fmt.Errorf("file header: %w", err)
	}
	f.Header = trimPadding(payload)

	for _, dst := range []struct {
		name string
		p    *int
	}{
		{"num_kpoints", &f.NumKpoints},
		{"num_spins", &f.NumSpins},
		{"num_popn_orb", &f.NumOrbitals},
		{"max_eigenenv", &f.MaxEigenvalues},
	} {
		n, err := readInt32(r, dst.name)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("%s: must be positive, got %d", dst.name, n)
		}
		*dst.p = int(n)
	}

	return nil
}

// readOrbitalTable decodes the per-orbital species/ion/channel arrays.
func (f *File) readOrbitalTable(r *record.Reader) error {
	var err error
	if f.Species, err = readInt32s(r, "species", f.NumOrbitals); err != nil {
		return err
	}
	if f.Ion, err = readInt32s(r, "ion", f.NumOrbitals); err != nil {
		return err
	}
	f.AMChannel, err = readInt32s(r, "am_channel", f.NumOrbitals)

	return err
}

// readWeights decodes the nested per-k-point / per-spin / per-band weight
// records.
func (f *File) readWeights(r *record.Reader) error {
	engine := r.Engine()
	f.Weights = format.Zeros[float64](f.NumOrbitals, f.MaxEigenvalues, f.NumKpoints, f.NumSpins)
	f.Kpoints = format.Zeros[float64](f.NumKpoints, 3)
	f.NumEigenvalues = make([]int32, f.NumSpins)

	for nk := 0; nk < f.NumKpoints; nk++ {
		// One record holding the 1-based k-point index followed by the
		// three fractional coordinates.
		payload, _, err := r.Read()
		if err != nil {
			return fmt.Errorf("k-point %d: %w", nk, err)
		}
		if len(payload) < 4+3*8 {
			return fmt.Errorf("k-point %d: %w: need 28 bytes, have %d", nk, errs.ErrShortPayload, len(payload))
		}
		for j, v := range field.ParseFloat64s(engine, payload[4:], 3) {
			f.Kpoints.Set(v, nk, j)
		}

		for ns := 0; ns < f.NumSpins; ns++ {
			// Spin channel index record, value unused.
			if _, err := readInt32(r, "spin index"); err != nil {
				return fmt.Errorf("k-point %d: %w", nk, err)
			}

			ne, err := readInt32(r, "num_eigenvalues")
			if err != nil {
				return fmt.Errorf("k-point %d spin %d: %w", nk, ns, err)
			}
			if int(ne) > f.MaxEigenvalues {
				return fmt.Errorf("k-point %d spin %d: %w: %d eigenvalues exceed maximum %d",
					nk, ns, errs.ErrShapeMismatch, ne, f.MaxEigenvalues)
			}
			f.NumEigenvalues[ns] = ne

			for nb := 0; nb < int(ne); nb++ {
				payload, _, err := r.Read()
				if err != nil {
					return fmt.Errorf("weights for k-point %d spin %d band %d: %w", nk, ns, nb, err)
				}
				if len(payload) < f.NumOrbitals*8 {
					return fmt.Errorf("weights for k-point %d spin %d band %d: %w: need %d bytes, have %d",
						nk, ns, nb, errs.ErrShortPayload, f.NumOrbitals*8, len(payload))
				}
				for iorb, v := range field.ParseFloat64s(engine, payload, f.NumOrbitals) {
					f.Weights.Set(v, iorb, nb, nk, ns)
				}
			}
		}
	}

	return nil
}

func readInt32(r *record.Reader, what string) (int32, error) {
	payload, _, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	if len(payload) < 4 {
		return 0, fmt.Errorf("%s: %w: need 4 bytes, have %d", what, errs.ErrShortPayload, len(payload))
	}

	return int32(r.Engine().Uint32(payload)), nil
}

func readInt32s(r *record.Reader, what string, count int) ([]int32, error) {
	payload, _, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if len(payload) < count*4 {
		return nil, fmt.Errorf("%s: %w: need %d bytes, have %d", what, errs.ErrShortPayload, count*4, len(payload))
	}

	return field.ParseInt32s(r.Engine(), payload, count), nil
}

func readFloat64(r *record.Reader, what string) (float64, error) {
	payload, _, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	if len(payload) < 8 {
		return 0, fmt.Errorf("%s: %w: need 8 bytes, have %d", what, errs.ErrShortPayload, len(payload))
	}

	return math.Float64frombits(r.Engine().Uint64(payload)), nil
}

// trimPadding strips the trailing blank padding of a fixed-width Fortran
// character record.
func trimPadding(payload []byte) string {
	end := len(payload)
	for end > 0 {
		c := payload[end-1]
		if c != ' ' && c != 0 {
			break
		}
		end--
	}

	return string(payload[:end])
}
