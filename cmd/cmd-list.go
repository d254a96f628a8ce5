package cmd

import (
	"context"
	"encoding/json"

	"github.com/urfave/cli/v3"
)

// listCommand returns the "list" CLI subcommand.
func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every match on the listing page",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print matches as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}

			matches, err := svc.Catalog(ctx)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if cmd.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(matches)
			}
			for _, m := range matches {
				printCatalogLine(w, m)
			}
			return nil
		},
	}
}
