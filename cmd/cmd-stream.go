package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/stupside/pitchside/internal/media"
	"github.com/stupside/pitchside/internal/resolve"
)

// streamCommand returns the "stream" CLI subcommand.
func streamCommand() *cli.Command {
	var query string

	return &cli.Command{
		Name:      "stream",
		Usage:     "Print the stream URL behind a match broadcast",
		ArgsUsage: "<home> vs <away>",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "query",
				Destination: &query,
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "link",
				Aliases: []string{"l"},
				Usage:   "Broadcast number as printed by search",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "variants",
				Usage: "Also list the HLS renditions of the stream",
			},
			&cli.BoolFlag{
				Name:  "play",
				Usage: "Play the stream once found",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if query == "" {
				return cli.Exit("a match query is required", 2)
			}

			cfg, svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}

			m, err := search(ctx, svc, query)
			if err != nil {
				return err
			}
			link, err := linkAt(m, int(cmd.Int("link")))
			if err != nil {
				return err
			}

			stream, err := svc.Stream(ctx, link)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			fmt.Fprintln(w, stream.URL.String())

			if cmd.Bool("variants") && stream.ContentType == media.HLS {
				variants, err := resolve.New(cfg.Resolver).Variants(ctx, stream)
				if err != nil {
					return err
				}
				for _, v := range variants {
					fmt.Fprintf(w, "  %s %s\n", v.URL, dimStyle.Render(fmt.Sprintf("%d bps %s %s", v.Bandwidth, v.Resolution, v.Codecs)))
				}
			}

			if cmd.Bool("play") {
				return svc.Play(ctx, stream)
			}
			return nil
		},
	}
}
