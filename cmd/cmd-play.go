package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/stupside/pitchside/internal/media"
)

// playCommand returns the "play" CLI subcommand.
func playCommand() *cli.Command {
	var rawURL string

	return &cli.Command{
		Name:      "play",
		Usage:     "Play a stream URL with the configured player",
		ArgsUsage: "<url>",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "url",
				Destination: &rawURL,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, svc, err := serviceFrom(cmd)
			if err != nil {
				return err
			}

			stream, err := media.NewStream(rawURL, cfg.Player.Headers)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid URL %q: %v", rawURL, err), 2)
			}

			fmt.Fprintln(cmd.Root().Writer, streamStyle.Render("Streaming: "+stream.URL.String()))
			return svc.Play(ctx, stream)
		},
	}
}
