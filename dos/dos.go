// Package dos bins weighted eigenvalues into density-of-states curves.
//
// It consumes the projections produced by the pdos package together with
// the eigenvalues decoded from the matching castep_bin run. Per-k-point
// weights are applied here, not in the projections: the same projection
// set can be binned against different k-point meshes.
package dos

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/castepkit/castbin/format"
	"github.com/castepkit/castbin/pdos"
)

// SiteDOS holds the binned density-of-states curves of one site, keyed
// by orbital and spin. Each curve has len(dividers)-1 entries.
type SiteDOS map[pdos.Orbital]map[pdos.Spin][]float64

// Bins returns n+1 evenly spaced bin dividers spanning [min, max].
func Bins(min, max float64, n int) []float64 {
	return floats.Span(make([]float64, n+1), min, max)
}

// Compute bins the projected weights of every site into per-orbital,
// per-spin density-of-states curves.
//
// eigenvalues maps each spin channel to a (nbands, nkpts) array;
// kpointWeights has one entry per k-point; dividers are the ascending
// bin edges (see Bins). The projection arrays must cover at least nbands
// bands and exactly nkpts k-points.
//
// Bins are half-open [edge, next), except the final bin which also
// includes samples equal to the top divider. Samples outside the divider
// range are dropped.
func Compute(sites []pdos.SiteProjection, eigenvalues map[pdos.Spin]*format.Array[float64],
	kpointWeights []float64, dividers []float64,
) ([]SiteDOS, error) {
	if len(dividers) < 2 {
		return nil, fmt.Errorf("need at least 2 bin dividers, got %d", len(dividers))
	}
	if !sort.Float64sAreSorted(dividers) {
		return nil, fmt.Errorf("bin dividers must be ascending")
	}

	out := make([]SiteDOS, len(sites))
	for i, site := range sites {
		siteDOS := make(SiteDOS, len(site))
		for orb, proj := range site {
			curves := make(map[pdos.Spin][]float64, len(proj))
			for spin, weights := range proj {
				eig, ok := eigenvalues[spin]
				if !ok {
					return nil, fmt.Errorf("site %d orbital %s: no eigenvalues for spin %s", i, orb, spin)
				}

				curve, err := histogram(eig, weights, kpointWeights, dividers)
				if err != nil {
					return nil, fmt.Errorf("site %d orbital %s spin %s: %w", i, orb, spin, err)
				}
				curves[spin] = curve
			}
			siteDOS[orb] = curves
		}
		out[i] = siteDOS
	}

	return out, nil
}

// histogram bins one spin channel's eigenvalues, weighting each
// (band, k-point) state by its projection weight times the k-point
// weight.
func histogram(eig, weights *format.Array[float64], kpointWeights, dividers []float64) ([]float64, error) {
	shape := eig.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("eigenvalues must be 2-dimensional, shape is %v", shape)
	}
	nbands, nkpts := shape[0], shape[1]

	wshape := weights.Shape()
	if len(wshape) != 2 || wshape[0] < nbands || wshape[1] != nkpts {
		return nil, fmt.Errorf("projection shape %v does not cover eigenvalue shape %v", wshape, shape)
	}
	if len(kpointWeights) != nkpts {
		return nil, fmt.Errorf("have %d k-point weights for %d k-points", len(kpointWeights), nkpts)
	}

	n := nbands * nkpts
	xs := make([]float64, 0, n)
	ws := make([]float64, 0, n)
	for nb := 0; nb < nbands; nb++ {
		for nk := 0; nk < nkpts; nk++ {
			xs = append(xs, eig.At(nb, nk))
			ws = append(ws, weights.At(nb, nk)*kpointWeights[nk])
		}
	}

	// stat.Histogram requires ascending samples.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	sortedX := make([]float64, n)
	sortedW := make([]float64, n)
	for i, j := range idx {
		sortedX[i] = xs[j]
		sortedW[i] = ws[j]
	}

	// stat.Histogram rejects samples outside [first, last), so trim the
	// sorted slices to that range. Samples exactly on the top divider
	// belong to the final bin, which is closed on both edges; their
	// weight is added back after binning.
	last := dividers[len(dividers)-1]
	lo := sort.SearchFloat64s(sortedX, dividers[0])
	hi := sort.SearchFloat64s(sortedX, last)

	var topEdge float64
	for i := hi; i < len(sortedX) && sortedX[i] == last; i++ {
		topEdge += sortedW[i]
	}

	curve := stat.Histogram(nil, dividers, sortedX[lo:hi], sortedW[lo:hi])
	curve[len(curve)-1] += topEdge

	return curve, nil
}
