package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/castepkit/castbin"
	"github.com/castepkit/castbin/field"
	"github.com/castepkit/castbin/format"
)

// arrayJSON is the wire shape for decoded arrays: the column-major data
// slice plus its dimensions, since the flat slice alone is ambiguous.
type arrayJSON struct {
	Shape []int `json:"shape"`
	Data  any   `json:"data"`
}

func dumpCmd() *cli.Command {
	var (
		path   string
		pretty bool
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Decode a castep_bin file and print its values as JSON",
		ArgsUsage: "[section ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to castep_bin or check file",
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

			data, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read %q: %v", path, err), 1)
			}

			values, err := castbin.Read(data, c.Args().Slice()...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: decode %q: %v", path, err), 1)
			}

			enc := json.NewEncoder(os.Stdout)
			if pretty {
				enc.SetIndent("", "  ")
			}

			return enc.Encode(valuesJSON(values))
		},
	}
}

// valuesJSON flattens decoded values into a plain map the JSON encoder
// can handle; arrays carry their shape alongside the data.
func valuesJSON(values *field.Values) map[string]any {
	out := make(map[string]any, values.Len())
	for _, name := range values.Keys() {
		val, _ := values.Get(name)
		switch v := val.(type) {
		case *format.Array[float64]:
			out[name] = arrayJSON{Shape: v.Shape(), Data: v.Data()}
		case *format.Array[int32]:
			out[name] = arrayJSON{Shape: v.Shape(), Data: v.Data()}
		default:
			out[name] = v
		}
	}

	return out
}
