package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/pitchside/internal/catalog"
	"github.com/stupside/pitchside/internal/watch"
)

// searchCommand returns the "search" CLI subcommand.
func searchCommand() *cli.Command {
	var query string

	return &cli.Command{
		Name:      "search",
		Usage:     "Find a match by name and print its broadcasts",
		ArgsUsage: "<home> vs <away>",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "query",
				Destination: &query,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if query == "" {
				return cli.Exit("a match query is required", 2)
			}

			_, svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}

			m, err := search(ctx, svc, query)
			if err != nil {
				return err
			}
			printMatch(cmd.Root().Writer, *m)
			return nil
		},
	}
}

// search resolves query and downgrades a failed cache write to a warning.
func search(ctx context.Context, svc *watch.Service, query string) (*catalog.Match, error) {
	m, err := svc.Search(ctx, query)
	if errors.Is(err, watch.ErrCacheWrite) && m != nil {
		slog.WarnContext(ctx, "match found but not cached", "error", err)
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// linkAt returns the n-th (1-based) broadcast of m.
func linkAt(m *catalog.Match, n int) (catalog.Link, error) {
	if len(m.Links) == 0 {
		return catalog.Link{}, fmt.Errorf("%q has no broadcasts listed", m.DisplayName)
	}
	if n < 1 || n > len(m.Links) {
		return catalog.Link{}, cli.Exit(fmt.Sprintf("link %d out of range, %q has %d", n, m.DisplayName, len(m.Links)), 2)
	}
	return m.Links[n-1], nil
}
