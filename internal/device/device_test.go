package device

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalInterfaceUnknownName(t *testing.T) {
	_, _, err := LocalInterface("pitchside-missing0")
	assert.ErrorContains(t, err, "pitchside-missing0")
}

func TestLocalInterfaceAutoSkipsLoopback(t *testing.T) {
	iface, ip, err := LocalInterface("")
	if err != nil {
		t.Skipf("no usable interface in this environment: %v", err)
	}
	require.NotNil(t, iface)
	assert.Zero(t, iface.Flags&net.FlagLoopback)
	assert.NotNil(t, ip.To4())
	assert.False(t, ip.IsLoopback())
}
