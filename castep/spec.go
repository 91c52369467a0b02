// Package castep decodes CASTEP `castep_bin` dump files: self-describing
// sequential Fortran binaries whose records are grouped into named
// sections.
//
// The format is described by a static table mapping each section header
// to the ordered field descriptors of the records that follow it. Array
// shapes in the table may reference scalars decoded earlier, which is why
// sections are decoded in the table's declaration order against one
// shared mapping.
package castep

import (
	"github.com/castepkit/castbin/field"
	"github.com/castepkit/castbin/format"
)

// Section pairs a header name with the ordered field descriptors of the
// data records following that header.
type Section struct {
	Header string
	Fields []field.Field
}

// sections is the static format table in declaration order. The order is
// a design invariant: nested CELL% scalars come first because nearly
// every later array shape references them, and the eigenvalue block at
// the end references the band and spin counts decoded immediately before
// it from the same section.
var sections = []Section{
	{"CELL%NUM_IONS", []field.Field{
		field.NewScalar("num_ions", format.TypeInt32),
	}},
	{"CELL%MAX_IONS_IN_SPECIES", []field.Field{
		field.NewScalar("max_ions_in_species", format.TypeInt32),
	}},
	{"CELL%REAL_LATTICE", []field.Field{
		field.NewArray("real_lattice", format.TypeFloat64, field.Dims(3, 3)),
	}},
	{"CELL%RECIP_LATTICE", []field.Field{
		field.NewArray("recip_lattice", format.TypeFloat64, field.Dims(3, 3)),
	}},
	{"CELL%NUM_SPECIES", []field.Field{
		field.NewScalar("num_species", format.TypeInt32),
	}},
	{"CELL%NUM_IONS_IN_SPECIES", []field.Field{
		field.NewArray("num_ions_in_species", format.TypeInt32, field.Dims("num_species")),
	}},
	{"CELL%IONIC_POSITIONS", []field.Field{
		field.NewArray("ionic_positions", format.TypeFloat64, field.Dims(3, "max_ions_in_species", "num_species")),
	}},
	{"CELL%SPECIES_SYMBOL", []field.Field{
		field.NewCharArray("species_symbol", 8, field.Dims("num_species")),
	}},
	{"NKPTS", []field.Field{
		field.NewScalar("nkpts", format.TypeInt32),
	}},
	{"KPOINTS", []field.Field{
		field.NewArray("kpoints", format.TypeFloat64, field.Dims(3, "nkpts")),
	}},
	{"FORCES", []field.Field{
		field.NewArray("forces", format.TypeFloat64, field.Dims(3, "max_ions_in_species", "num_species")),
	}},
	{"FORCE_CON", []field.Field{
		field.NewArray("phonon_supercell_matrix", format.TypeInt32, field.Dims(3, 3)),
		field.NewArray("phonon_force_constant_matrix", format.TypeFloat64,
			field.Dims(3, "num_ions", 3, "num_ions", "num_cells")),
		field.NewArray("phonon_supercell_origins", format.TypeInt32, field.Dims(3, "num_cells")),
		field.NewScalar("phonon_force_constant_row", format.TypeInt32),
	}},
	{"BORN_CHGS", []field.Field{
		field.NewArray("born_charges", format.TypeFloat64, field.Dims(3, 3, "num_ions")),
	}},
	// Parameter records start after the end of the global cell block.
	{"END_CELL_GLOBAL", []field.Field{
		// Fortran logicals stored as integers.
		field.NewBool("found_ground_state_wavefunction"),
		field.NewBool("found_ground_state_density"),
		field.NewScalar("total_energy", format.TypeFloat64),
		field.NewScalar("fermi_energy", format.TypeFloat64),
		field.NewComposite(
			field.NewScalar("nbands", format.TypeInt32),
			field.NewScalar("nspins", format.TypeInt32),
		),
		newEigenvalueBlock(),
	}},
}

// Sections returns the static format table in declaration order. The
// returned slice and its descriptors are shared and must be treated as
// read-only.
func Sections() []Section {
	return sections
}

// Headers returns the section header names in declaration order.
func Headers() []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Header
	}

	return names
}
