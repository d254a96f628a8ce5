package player

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/stupside/pitchside/internal/app"
	"github.com/stupside/pitchside/internal/device"
	"github.com/stupside/pitchside/internal/device/chromecast"
	"github.com/stupside/pitchside/internal/device/dlna"
	"github.com/stupside/pitchside/internal/media"
	"github.com/stupside/pitchside/internal/resolve"
	"github.com/stupside/pitchside/internal/transcode"
)

// Cast plays streams on a DLNA renderer or Chromecast found on the local
// network. Streams the device cannot play are remuxed by ffmpeg and served
// from this machine.
type Cast struct {
	device    app.DeviceConfig
	network   app.NetworkConfig
	transcode app.TranscodeConfig
	resolver  *resolve.Resolver

	// Seams over the network, replaced in tests.
	local func(name string) (*net.Interface, net.IP, error)
	find  func(ctx context.Context, iface *net.Interface) (device.Info, error)
	open  func(device.Info) (device.Device, error)
}

var _ Player = (*Cast)(nil)

func NewCast(cfg *app.Config) *Cast {
	c := &Cast{
		device:    cfg.Device,
		network:   cfg.Network,
		transcode: cfg.Transcode,
		resolver:  resolve.New(cfg.Resolver),
		local:     device.LocalInterface,
		open:      openDevice,
	}
	c.find = func(ctx context.Context, iface *net.Interface) (device.Info, error) {
		return device.Find(ctx, iface, c.network.Timeout, device.Type(c.device.Type), c.device.Name)
	}
	return c
}

func openDevice(info device.Info) (device.Device, error) {
	switch info.Type {
	case device.TypeDLNA:
		return dlna.New(info), nil
	case device.TypeChromecast:
		return chromecast.New(info), nil
	default:
		return nil, fmt.Errorf("unknown device type %q", info.Type)
	}
}

// Play casts stream and blocks until ctx is done or a relayed stream ends.
func (c *Cast) Play(ctx context.Context, stream *media.Stream) error {
	resolved, err := c.resolver.Resolve(ctx, stream)
	if err != nil {
		return fmt.Errorf("resolving stream: %w", err)
	}
	slog.InfoContext(ctx, "stream resolved", "url", resolved.URL.String(), "content_type", resolved.ContentType)

	iface, ip, err := c.local(c.network.Interface)
	if err != nil {
		return err
	}

	info, err := c.find(ctx, iface)
	if err != nil {
		return fmt.Errorf("finding device: %w", err)
	}
	slog.InfoContext(ctx, "device found", "name", info.Name, "type", string(info.Type), "address", info.Address)

	dev, err := c.open(info)
	if err != nil {
		return err
	}
	if err := dev.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to device: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.DebugContext(ctx, "closing device", "error", err)
		}
	}()

	if slices.Contains(dev.SupportedContentTypes(), resolved.ContentType) {
		if err := dev.Play(ctx, resolved.URL, resolved.ContentType); err != nil {
			return fmt.Errorf("starting playback: %w", err)
		}
		slog.InfoContext(ctx, "playing on device, interrupt to stop", "name", info.Name)
		<-ctx.Done()
		return nil
	}

	slog.InfoContext(ctx, "device cannot play stream, remuxing", "content_type", resolved.ContentType, "format", c.transcode.OutputFormat)
	return c.relay(ctx, dev, info, ip, resolved)
}

func (c *Cast) relay(ctx context.Context, dev device.Device, info device.Info, ip net.IP, stream *media.Stream) error {
	format, ok := media.LookupFormat(c.transcode.OutputFormat)
	if !ok {
		return fmt.Errorf("unsupported output format %q", c.transcode.OutputFormat)
	}

	var headers map[string]string
	if info.Type == device.TypeDLNA {
		headers = dlna.StreamHeaders(format.ContentType)
	}

	srv, err := transcode.Listen(transcode.ServerConfig{
		Host:       ip.String(),
		Format:     format,
		Headers:    headers,
		BufferSize: c.transcode.BufferSize,
	})
	if err != nil {
		return fmt.Errorf("starting stream server: %w", err)
	}

	procCtx, stop := context.WithCancel(ctx)
	defer stop()

	proc, err := transcode.Start(procCtx, c.transcode, stream)
	if err != nil {
		srv.Close()
		return err
	}

	g, gctx := errgroup.WithContext(procCtx)
	g.Go(func() error {
		return srv.Serve(gctx, proc.Stdout)
	})
	g.Go(func() error {
		if err := srv.WaitForData(gctx, c.transcode.InitialData); err != nil {
			return fmt.Errorf("waiting for initial stream data: %w", err)
		}
		slog.InfoContext(ctx, "starting playback on device", "url", srv.URL().String(), "content_type", format.ContentType)
		if err := dev.Play(gctx, srv.URL(), format.ContentType); err != nil {
			return fmt.Errorf("starting playback: %w", err)
		}
		return nil
	})

	err = g.Wait()
	stop()
	if werr := proc.Wait(); werr != nil && ctx.Err() == nil {
		slog.WarnContext(ctx, "ffmpeg exited with error", "error", werr)
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
