package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/device"
)

// scanCommand returns the "scan" CLI subcommand.
func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "List cast devices on the local network",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			iface, ip, err := device.LocalInterface(cfg.Network.Interface)
			if err != nil {
				return err
			}
			slog.DebugContext(ctx, "scanning", "interface", iface.Name, "ip", ip.String(), "timeout", cfg.Network.Timeout)

			devices, err := device.Discover(ctx, iface, cfg.Network.Timeout)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			w := cmd.Root().Writer
			if len(devices) == 0 {
				fmt.Fprintln(w, dimStyle.Render("no devices found"))
				return nil
			}
			for _, d := range devices {
				fmt.Fprintf(w, "%s %s %s\n", titleStyle.Render(d.Name), categoryStyle.Width(11).Render(string(d.Type)), dimStyle.Render(d.Address))
			}
			return nil
		},
	}
}
