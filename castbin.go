// Package castbin reads the Fortran unformatted binary dump files written
// by the CASTEP density functional theory code.
//
// A CASTEP dump is a sequence of Fortran sequential records, each payload
// bracketed by a pair of identical big-endian length markers. Sections are
// announced by upper-case header records and located by scanning the file
// once; the decoder then seeks straight to the sections it needs and
// decodes their fields into named values.
//
// # Basic Usage
//
// Reading a castep_bin or check file:
//
//	import "github.com/castepkit/castbin"
//
//	values, err := castbin.ReadFile("crystal.castep_bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	nIons, _ := values.Int("num_ions")
//	lattice, _ := values.Get("real_lattice")
//
// Restricting the read to selected sections:
//
//	values, err := castbin.ReadFile("crystal.castep_bin", "FORCES")
//
// Reading a pdos_bin file with projected density of states weights:
//
//	pd, err := castbin.ReadPDOSFile("crystal.pdos_bin")
//
// Compressed files (gzip, zstd, S2, LZ4 frame) are detected by their
// magic bytes and decompressed transparently.
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the castep
// and pdos packages. For fine-grained control over record traversal, use
// the record, field, castep and pdos packages directly.
package castbin

import (
	"bytes"
	"fmt"
	"os"

	"github.com/castepkit/castbin/castep"
	"github.com/castepkit/castbin/compress"
	"github.com/castepkit/castbin/field"
	"github.com/castepkit/castbin/pdos"
	"github.com/castepkit/castbin/record"
)

// Read decodes a complete castep_bin buffer and returns its values.
//
// The buffer may be compressed with any format compress.Detect knows;
// it is decompressed in memory before decoding. When section names are
// given, only those sections (plus the cell sections their shapes depend
// on) are decoded; otherwise every section present in the file is.
//
// Section names are the upper-case header strings as they appear in the
// file, e.g. "FORCES" or "E_FERMI". A requested section missing from the
// file yields errs.ErrSectionNotFound.
func Read(data []byte, sections ...string) (*field.Values, error) {
	raw, _, err := compress.DecompressAuto(data)
	if err != nil {
		return nil, err
	}

	dec, err := castep.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer dec.Release()

	return dec.Decode(sections...)
}

// ReadFile decodes the castep_bin file at path.
//
// See Read for section filtering and compression handling.
func ReadFile(path string, sections ...string) (*field.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return Read(data, sections...)
}

// Headers returns the section headers present in a castep_bin buffer,
// in lexical order, without decoding any section payloads.
func Headers(data []byte) ([]string, error) {
	raw, _, err := compress.DecompressAuto(data)
	if err != nil {
		return nil, err
	}

	dec, err := castep.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer dec.Release()

	return dec.Index().Headers(), nil
}

// ReadPDOS decodes a complete pdos_bin buffer.
//
// Like Read, the buffer may be transparently compressed.
func ReadPDOS(data []byte, opts ...record.Option) (*pdos.File, error) {
	raw, _, err := compress.DecompressAuto(data)
	if err != nil {
		return nil, err
	}

	return pdos.Read(bytes.NewReader(raw), opts...)
}

// ReadPDOSFile decodes the pdos_bin file at path.
func ReadPDOSFile(path string, opts ...record.Option) (*pdos.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return ReadPDOS(data, opts...)
}
