// Package pdos decodes CASTEP `pdos_bin` files, the per-orbital
// population-density output of a Spectral task, and regroups the raw
// weights into per-site projections.
//
// Unlike castep_bin there are no named section headers: the file is a
// fixed leading scalar sequence followed by nested per-k-point, per-spin,
// per-band weight records. The package shares the record protocol with
// the castep decoder but not its header-index model.
package pdos

// Spin labels a spin channel. The values follow the physics sign
// convention rather than the file's 1-based channel index.
type Spin int

const (
	SpinUp   Spin = 1
	SpinDown Spin = -1
)

func (s Spin) String() string {
	switch s {
	case SpinUp:
		return "up"
	case SpinDown:
		return "down"
	default:
		return "unknown"
	}
}

// OrbitalType is the angular-momentum channel, indexed by the azimuthal
// quantum number l.
type OrbitalType int

const (
	TypeS OrbitalType = 0
	TypeP OrbitalType = 1
	TypeD OrbitalType = 2
	TypeF OrbitalType = 3
)

func (t OrbitalType) String() string {
	switch t {
	case TypeS:
		return "s"
	case TypeP:
		return "p"
	case TypeD:
		return "d"
	case TypeF:
		return "f"
	default:
		return "unknown"
	}
}

// Orbital identifies a specific orbital. String returns the label CASTEP
// reports for it.
type Orbital int

const (
	OrbS Orbital = iota
	OrbPx
	OrbPy
	OrbPz
	OrbDz2
	OrbDyz
	OrbDxz
	OrbDx2
	OrbDxy
	OrbFxxx
	OrbFyyy
	OrbFzzz
	OrbFxyz
	OrbFzxxyy
	OrbFyzzxx
	OrbFxyyzz
)

var orbitalLabels = map[Orbital]string{
	OrbS:      "S",
	OrbPx:     "Px",
	OrbPy:     "Py",
	OrbPz:     "Pz",
	OrbDxy:    "Dxy",
	OrbDyz:    "Dzy",
	OrbDz2:    "Dzz",
	OrbDxz:    "Dzx",
	OrbDx2:    "Dxx-yy",
	OrbFxxx:   "Fxxx",
	OrbFyyy:   "Fyyy",
	OrbFzzz:   "Fzzz",
	OrbFxyz:   "Fxyz",
	OrbFzxxyy: "Fz(xx-yy)",
	OrbFyzzxx: "Fy(zz-xx)",
	OrbFxyyzz: "Fx(yy-zz)",
}

func (o Orbital) String() string {
	if label, ok := orbitalLabels[o]; ok {
		return label
	}

	return "unknown"
}

// Type returns the orbital's angular-momentum channel.
func (o Orbital) Type() OrbitalType {
	switch {
	case o == OrbS:
		return TypeS
	case o <= OrbPz:
		return TypeP
	case o <= OrbDxy:
		return TypeD
	default:
		return TypeF
	}
}

// orbitalsByChannel lists, per angular-momentum channel, the orbital
// order CASTEP emits population channels in. The d and f orderings are
// inferred from dot-castep output; they cannot be fully cross-checked
// for f.
var orbitalsByChannel = [][]Orbital{
	{OrbS},
	{OrbPx, OrbPy, OrbPz},
	{OrbDz2, OrbDyz, OrbDxz, OrbDx2, OrbDxy},
	{OrbFxxx, OrbFyyy, OrbFzzz, OrbFxyz, OrbFzxxyy, OrbFyzzxx, OrbFxyyzz},
}

// ChannelOrbital returns the i-th orbital of angular-momentum channel
// am. Indices past 2l+1 wrap around: a channel repeats for higher
// principal quantum numbers. Unsupported channels yield Orbital(-1).
func ChannelOrbital(am, i int) Orbital {
	if am < 0 || am >= len(orbitalsByChannel) {
		return Orbital(-1)
	}

	channel := orbitalsByChannel[am]

	return channel[i%len(channel)]
}
