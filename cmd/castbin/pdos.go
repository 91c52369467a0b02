package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/castepkit/castbin"
	"github.com/castepkit/castbin/pdos"
)

// pdosSummaryJSON is the summary printed for a pdos_bin file; weights
// are omitted because they dwarf everything else.
type pdosSummaryJSON struct {
	Version        float64   `json:"version"`
	Header         string    `json:"header"`
	NumKpoints     int       `json:"num_kpoints"`
	NumSpins       int       `json:"num_spins"`
	NumOrbitals    int       `json:"num_orbitals"`
	MaxEigenvalues int       `json:"max_eigenvalues"`
	Species        []int32   `json:"species"`
	Ion            []int32   `json:"ion"`
	AMChannel      []int32   `json:"am_channel"`
	Orbitals       []string  `json:"orbitals"`
	Kpoints        []float64 `json:"kpoints"`
}

func pdosCmd() *cli.Command {
	var (
		path   string
		pretty bool
	)

	return &cli.Command{
		Name:  "pdos",
		Usage: "Summarize a pdos_bin file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to pdos_bin file",
				Destination: &path,
				Required:    true,
			},
			&cli.BoolFlag{
				Name:        "pretty",
				Usage:       "indent the JSON output",
				Destination: &pretty,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			f, err := castbin.ReadPDOSFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: decode %q: %v", path, err), 1)
			}

			summary := pdosSummaryJSON{
				Version:        f.Version,
				Header:         f.Header,
				NumKpoints:     f.NumKpoints,
				NumSpins:       f.NumSpins,
				NumOrbitals:    f.NumOrbitals,
				MaxEigenvalues: f.MaxEigenvalues,
				Species:        f.Species,
				Ion:            f.Ion,
				AMChannel:      f.AMChannel,
				Orbitals:       orbitalLabels(f),
				Kpoints:        f.Kpoints.Data(),
			}

			enc := json.NewEncoder(os.Stdout)
			if pretty {
				enc.SetIndent("", "  ")
			}

			return enc.Encode(summary)
		},
	}
}

// orbitalLabels resolves each orbital slot of the file to its symbolic
// name, walking the angular momentum channels the same way the weights
// were written. The slot counter restarts per (site, channel): each
// channel enumerates its own orbitals from index 0.
func orbitalLabels(f *pdos.File) []string {
	labels := make([]string, f.NumOrbitals)
	counts := make(map[[3]int32]int)
	for i := range labels {
		key := [3]int32{f.Species[i], f.Ion[i], f.AMChannel[i]}
		labels[i] = pdos.ChannelOrbital(int(f.AMChannel[i]), counts[key]).String()
		counts[key]++
	}

	return labels
}
