package castep

import (
	"fmt"

	"github.com/castepkit/castbin/errs"
	"github.com/castepkit/castbin/field"
	"github.com/castepkit/castbin/format"
	"github.com/castepkit/castbin/record"
)

// newEigenvalueBlock returns the structured descriptor for the spectral
// eigenvalue block. The layout has no declarative shape: for each of the
// nkpts k-points there is one coordinate record, then for each spin
// channel one occupancy record and one eigenvalue record, each holding
// nbands doubles.
//
// The block writes three entries: "occupancies" and "eigenvalues" shaped
// (nbands, nkpts, nspins), and "kpoints_of_eigenvalues" shaped (3, nkpts).
// The k-point coordinates are recorded alongside rather than taken from
// the KPOINTS section because k-point distribution across ranks may
// reorder them relative to the cell's list.
func newEigenvalueBlock() *field.Structured {
	return field.NewStructured("eigenvalues_and_occupancies", decodeEigenvalueBlock)
}

func decodeEigenvalueBlock(r *record.Reader, dec *field.Values) error {
	nbands, err := requireCount(dec, "nbands")
	if err != nil {
		return err
	}
	nspins, err := requireCount(dec, "nspins")
	if err != nil {
		return err
	}
	nkpts, err := requireCount(dec, "nkpts")
	if err != nil {
		return err
	}

	engine := r.Engine()
	kpoints := format.Zeros[float64](3, nkpts)
	occ := format.Zeros[float64](nbands, nkpts, nspins)
	eig := format.Zeros[float64](nbands, nkpts, nspins)

	for ik := 0; ik < nkpts; ik++ {
		payload, _, err := r.Read()
		if err != nil {
			return fmt.Errorf("k-point %d coordinates: %w", ik, err)
		}
		if len(payload) < 3*8 {
			return fmt.Errorf("k-point %d coordinates: %w: need 24 bytes, have %d", ik, errs.ErrShortPayload, len(payload))
		}
		for j, v := range field.ParseFloat64s(engine, payload, 3) {
			kpoints.Set(v, j, ik)
		}

		for is := 0; is < nspins; is++ {
			if err := readBands(r, occ, nbands, ik, is, "occupancies"); err != nil {
				return err
			}
			if err := readBands(r, eig, nbands, ik, is, "eigenvalues"); err != nil {
				return err
			}
		}
	}

	dec.Set("occupancies", occ)
	dec.Set("eigenvalues", eig)
	dec.Set("kpoints_of_eigenvalues", kpoints)

	return nil
}

// readBands reads one record of nbands doubles into dst at (:, ik, is).
func readBands(r *record.Reader, dst *format.Array[float64], nbands, ik, is int, what string) error {
	payload, _, err := r.Read()
	if err != nil {
		return fmt.Errorf("%s for k-point %d spin %d: %w", what, ik, is, err)
	}
	if len(payload) < nbands*8 {
		return fmt.Errorf("%s for k-point %d spin %d: %w: need %d bytes, have %d",
			what, ik, is, errs.ErrShortPayload, nbands*8, len(payload))
	}

	for ib, v := range field.ParseFloat64s(r.Engine(), payload, nbands) {
		dst.Set(v, ib, ik, is)
	}

	return nil
}

// requireCount fetches a positive scalar the block depends on.
func requireCount(dec *field.Values, name string) (int, error) {
	n, ok := dec.Int(name)
	if !ok {
		return 0, fmt.Errorf("eigenvalue block requires %q to be decoded first: %w", name, errs.ErrUnresolvableShape)
	}
	if n <= 0 {
		return 0, fmt.Errorf("eigenvalue block: %q must be positive, got %d", name, n)
	}

	return n, nil
}
