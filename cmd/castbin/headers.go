package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/castepkit/castbin"
)

func headersCmd() *cli.Command {
	var path string

	return &cli.Command{
		Name:  "headers",
		Usage: "List the section headers present in a castep_bin file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to castep_bin or check file",
				Destination: &path,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			data, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read %q: %v", path, err), 1)
			}

			headers, err := castbin.Headers(data)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: scan %q: %v", path, err), 1)
			}

			for _, h := range headers {
				fmt.Println(h)
			}

			return nil
		},
	}
}
