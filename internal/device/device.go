// Package device discovers cast targets on the local network.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/huin/goupnp"
	"github.com/vishen/go-chromecast/dns"
	"golang.org/x/sync/errgroup"
)

// Type identifies the kind of casting device.
type Type string

const (
	TypeDLNA       Type = "dlna"
	TypeChromecast Type = "chromecast"
)

const mediaRenderer = "urn:schemas-upnp-org:device:MediaRenderer:1"

// Info holds discovery information about a device. Address is the UPnP
// description URL for DLNA and the host for Chromecast.
type Info struct {
	Name    string
	Type    Type
	Address string
	Port    int
}

// Device plays a URL on a cast target.
type Device interface {
	Connect(ctx context.Context) error
	Play(ctx context.Context, streamURL *url.URL, contentType string) error
	Close() error
	SupportedContentTypes() []string
}

// Find discovers devices and returns the one matching dtype and name,
// compared case-insensitively.
func Find(ctx context.Context, iface *net.Interface, timeout time.Duration, dtype Type, name string) (Info, error) {
	devices, err := Discover(ctx, iface, timeout)
	if err != nil {
		return Info{}, err
	}

	i := slices.IndexFunc(devices, func(d Info) bool {
		return d.Type == dtype && strings.EqualFold(d.Name, name)
	})
	if i < 0 {
		return Info{}, fmt.Errorf("device %q (type %s) not found among %d devices", name, dtype, len(devices))
	}
	return devices[i], nil
}

// Discover runs DLNA and Chromecast discovery concurrently for timeout.
// A failing protocol is logged and contributes no devices.
func Discover(ctx context.Context, iface *net.Interface, timeout time.Duration) ([]Info, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		devices []Info
	)
	collect := func(found []Info) {
		mu.Lock()
		defer mu.Unlock()
		devices = append(devices, found...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := discoverDLNA(gctx)
		if err != nil {
			slog.WarnContext(ctx, "dlna discovery failed", "error", err)
		}
		collect(found)
		return nil
	})
	g.Go(func() error {
		found, err := discoverChromecast(gctx, iface)
		if err != nil {
			slog.WarnContext(ctx, "chromecast discovery failed", "error", err)
		}
		collect(found)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(devices, func(a, b Info) int {
		return strings.Compare(string(a.Type)+a.Name, string(b.Type)+b.Name)
	})
	return devices, nil
}

func discoverDLNA(ctx context.Context) ([]Info, error) {
	results, err := goupnp.DiscoverDevicesCtx(ctx, mediaRenderer)
	if err != nil {
		return nil, fmt.Errorf("ssdp: %w", err)
	}

	var devices []Info
	for _, r := range results {
		if r.Err != nil || r.Root == nil {
			continue
		}
		devices = append(devices, Info{
			Name:    r.Root.Device.FriendlyName,
			Type:    TypeDLNA,
			Address: r.Location.String(),
		})
	}
	return devices, nil
}

func discoverChromecast(ctx context.Context, iface *net.Interface) ([]Info, error) {
	entries, err := dns.DiscoverCastDNSEntries(ctx, iface)
	if err != nil {
		return nil, fmt.Errorf("mdns: %w", err)
	}

	var devices []Info
	for e := range entries {
		name := e.DeviceName
		if name == "" {
			name = e.GetName()
		}
		devices = append(devices, Info{
			Name:    name,
			Type:    TypeChromecast,
			Address: e.GetAddr(),
			Port:    e.GetPort(),
		})
	}
	return devices, nil
}

// LocalInterface returns the named interface and its first IPv4 address.
// An empty name picks the first running, non-loopback interface with one.
func LocalInterface(name string) (*net.Interface, net.IP, error) {
	if name != "" {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			return nil, nil, fmt.Errorf("looking up interface %q: %w", name, err)
		}
		ip, err := ipv4(iface)
		if err != nil {
			return nil, nil, err
		}
		return iface, ip, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, nil, fmt.Errorf("listing interfaces: %w", err)
	}
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ip, err := ipv4(iface); err == nil {
			return iface, ip, nil
		}
	}
	return nil, nil, fmt.Errorf("no network interface with an IPv4 address")
}

func ipv4(iface *net.Interface) (net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %s: %w", iface.Name, err)
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok {
			if ip := ipNet.IP.To4(); ip != nil && !ip.IsLoopback() {
				return ip, nil
			}
		}
	}
	return nil, fmt.Errorf("no IPv4 address on %s", iface.Name)
}
