// Package dlna plays streams on UPnP AV media renderers.
package dlna

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/av1"

	"github.com/stupside/pitchside/internal/device"
	"github.com/stupside/pitchside/internal/media"
)

// Device implements device.Device over the AVTransport service.
type Device struct {
	info      device.Info
	transport *av1.AVTransport1
}

var _ device.Device = (*Device)(nil)

func New(info device.Info) *Device {
	return &Device{info: info}
}

func (d *Device) Connect(ctx context.Context) error {
	loc, err := url.Parse(d.info.Address)
	if err != nil {
		return fmt.Errorf("parsing device location: %w", err)
	}

	root, err := goupnp.DeviceByURLCtx(ctx, loc)
	if err != nil {
		return fmt.Errorf("fetching device description: %w", err)
	}

	transports, err := av1.NewAVTransport1ClientsFromRootDevice(root, loc)
	if err != nil {
		return fmt.Errorf("creating AVTransport client: %w", err)
	}
	if len(transports) == 0 {
		return errors.New("device has no AVTransport service")
	}
	d.transport = transports[0]
	return nil
}

func (d *Device) Play(ctx context.Context, streamURL *url.URL, contentType string) error {
	if d.transport == nil {
		return fmt.Errorf("renderer %q not connected", d.info.Name)
	}

	metadata, err := Metadata(streamURL, contentType, "pitchside")
	if err != nil {
		return err
	}

	if err := d.transport.SetAVTransportURICtx(ctx, 0, streamURL.String(), metadata); err != nil {
		return fmt.Errorf("setting transport URI: %w", err)
	}
	if err := d.transport.PlayCtx(ctx, 0, "1"); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}
	return nil
}

// Close stops playback when connected. Renderers without a session ignore it.
func (d *Device) Close() error {
	if d.transport == nil {
		return nil
	}
	return d.transport.Stop(0)
}

// SupportedContentTypes is what renderers reliably accept over plain HTTP.
func (d *Device) SupportedContentTypes() []string {
	return []string{media.MPEGTS, media.MP4}
}
