package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/cache"
)

// cacheCommand returns the "cache" CLI subcommand.
func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the match cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print cached queries",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := app.ConfigFrom(cmd)
					if err != nil {
						return err
					}

					entries := cache.NewStore(cfg.Cache.Path).Load(ctx)
					w := cmd.Root().Writer
					if len(entries) == 0 {
						fmt.Fprintln(w, dimStyle.Render("cache is empty"))
						return nil
					}

					now := time.Now()
					for _, q := range slices.Sorted(maps.Keys(entries)) {
						e := entries[q]
						state := "fresh"
						if _, ok := entries.Lookup(q, cfg.Cache.TTL, now); !ok {
							state = "expired"
						}
						saved := "unknown"
						if !e.SavedAt.IsZero() {
							saved = e.SavedAt.Local().Format(time.DateTime)
						}
						fmt.Fprintf(w, "%q -> %s %s\n", q, e.DisplayName, dimStyle.Render(saved+", "+state))
					}
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete the cache file",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := app.ConfigFrom(cmd)
					if err != nil {
						return err
					}

					store := cache.NewStore(cfg.Cache.Path)
					if err := store.Clear(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.Root().Writer, dimStyle.Render("cleared "+store.Path()))
					return nil
				},
			},
		},
	}
}
