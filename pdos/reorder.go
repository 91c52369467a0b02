package pdos

import (
	"fmt"
	"sort"

	"github.com/castepkit/castbin/format"
)

// Projection is the per-spin weight of one orbital on one site, shaped
// (MaxEigenvalues, NumKpoints).
type Projection map[Spin]*format.Array[float64]

// SiteProjection groups the projections of one site by orbital.
type SiteProjection map[Orbital]Projection

// Reorder regroups the flat per-orbital weight array into per-site
// projections keyed by orbital and spin. Sites are ordered by species
// then by ion index, matching the cell's site order. Channels that map
// to the same orbital label on the same site (population channels with
// different principal quantum numbers) are merged by summation.
//
// K-point weighting is deliberately not applied here; it belongs to the
// density-of-states binning.
func Reorder(f *File) ([]SiteProjection, error) {
	species := uniqueSorted(f.Species)
	sites := make([]SiteProjection, 0)

	for _, sp := range species {
		totalIons := int32(0)
		for i, s := range f.Species {
			if s == sp && f.Ion[i] > totalIons {
				totalIons = f.Ion[i]
			}
		}

		// Ion indices are 1-based.
		for nion := int32(1); nion <= totalIons; nion++ {
			site := make(SiteProjection)

			maxAM := int32(-1)
			for i := range f.Species {
				if f.Species[i] == sp && f.Ion[i] == nion && f.AMChannel[i] > maxAM {
					maxAM = f.AMChannel[i]
				}
			}

			for am := int32(0); am <= maxAM; am++ {
				if int(am) >= len(orbitalsByChannel) {
					return nil, fmt.Errorf("site species %d ion %d: unsupported angular momentum channel %d", sp, nion, am)
				}

				iam := 0
				for iloc := range f.Species {
					if f.Species[iloc] != sp || f.Ion[iloc] != nion || f.AMChannel[iloc] != am {
						continue
					}

					orb := ChannelOrbital(int(am), iam)
					iam++

					proj := f.orbitalProjection(iloc)
					if existing, ok := site[orb]; ok {
						if err := mergeProjections(existing, proj); err != nil {
							return nil, fmt.Errorf("site species %d ion %d orbital %s: %w", sp, nion, orb, err)
						}
					} else {
						site[orb] = proj
					}
				}
			}

			sites = append(sites, site)
		}
	}

	return sites, nil
}

// orbitalProjection extracts the (MaxEigenvalues, NumKpoints) weight
// slice of one population channel, per spin.
func (f *File) orbitalProjection(iloc int) Projection {
	spins := []Spin{SpinUp}
	if f.NumSpins == 2 {
		spins = []Spin{SpinUp, SpinDown}
	}

	proj := make(Projection, len(spins))
	for ispin, spin := range spins {
		w := format.Zeros[float64](f.MaxEigenvalues, f.NumKpoints)
		for nb := 0; nb < f.MaxEigenvalues; nb++ {
			for nk := 0; nk < f.NumKpoints; nk++ {
				w.Set(f.Weights.At(iloc, nb, nk, ispin), nb, nk)
			}
		}
		proj[spin] = w
	}

	return proj
}

// mergeProjections sums src into dst, spin channel by spin channel.
func mergeProjections(dst, src Projection) error {
	if len(dst) != len(src) {
		return fmt.Errorf("mismatched spin channels: %d vs %d", len(dst), len(src))
	}

	for spin, d := range dst {
		s, ok := src[spin]
		if !ok {
			return fmt.Errorf("missing spin channel %s", spin)
		}

		dd, sd := d.Data(), s.Data()
		for i := range dd {
			dd[i] += sd[i]
		}
	}

	return nil
}

func uniqueSorted(vals []int32) []int32 {
	seen := make(map[int32]bool, len(vals))
	out := make([]int32, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
