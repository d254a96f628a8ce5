package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/version"
	"github.com/stupside/pitchside/internal/watch"
)

// newService builds the workflow behind every command. Tests replace it.
var newService = watch.FromConfig

// Root returns the root CLI command.
func Root() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "pitchside",
		Usage:   "Find live sports broadcasts and play them",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to configuration file",
				Value:       "config.yaml",
				Destination: &configPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := app.Load(configPath, cmd.IsSet("config"))
			if err != nil {
				return ctx, err
			}
			cmd.Metadata["config"] = cfg
			return ctx, nil
		},
		Action: watchAction,
		Commands: []*cli.Command{
			watchCommand(),
			searchCommand(),
			listCommand(),
			streamCommand(),
			playCommand(),
			scanCommand(),
			cacheCommand(),
			{
				Name:  "info",
				Usage: "Print build information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					slog.Info("build",
						"version", version.Version,
						"commit", version.Commit,
						"build_time", version.BuildTime,
					)
					return nil
				},
			},
		},
		Metadata: map[string]any{},
	}
}

func serviceFrom(cmd *cli.Command) (*app.Config, *watch.Service, error) {
	cfg, err := app.ConfigFrom(cmd)
	if err != nil {
		return nil, nil, err
	}
	svc, err := newService(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up: %w", err)
	}
	return cfg, svc, nil
}
