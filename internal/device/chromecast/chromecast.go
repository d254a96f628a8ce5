// Package chromecast plays streams on Google Cast devices.
package chromecast

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vishen/go-chromecast/application"

	"github.com/stupside/pitchside/internal/device"
	"github.com/stupside/pitchside/internal/media"
)

const defaultPort = 8009

// Device implements device.Device for Chromecast receivers.
type Device struct {
	info device.Info
	app  *application.Application
}

var _ device.Device = (*Device)(nil)

func New(info device.Info) *Device {
	return &Device{info: info}
}

func (d *Device) Connect(ctx context.Context) error {
	port := d.info.Port
	if port == 0 {
		port = defaultPort
	}

	d.app = application.NewApplication(
		application.WithDebug(false),
		application.WithCacheDisabled(true),
	)

	done := make(chan error, 1)
	go func() { done <- d.app.Start(d.info.Address, port) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("connecting to chromecast %s:%d: %w", d.info.Address, port, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Device) Play(ctx context.Context, streamURL *url.URL, contentType string) error {
	if d.app == nil {
		return fmt.Errorf("chromecast %q not connected", d.info.Name)
	}
	// Detached: returns once the receiver accepted the media.
	if err := d.app.Load(streamURL.String(), 0, contentType, false, true, true); err != nil {
		return fmt.Errorf("loading media: %w", err)
	}
	return nil
}

func (d *Device) Close() error {
	if d.app == nil {
		return nil
	}
	return d.app.Close(false)
}

func (d *Device) SupportedContentTypes() []string {
	return []string{media.HLS, media.MP4, media.WebM, media.MPEGTS}
}
