package xsnow

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipNet(t *testing.T, cidr string) *net.IPNet {
	t.Helper()
	ip, n, err := net.ParseCIDR(cidr)
	require.NoError(t, err)
	n.IP = ip
	return n
}

func TestWorkerIDFromAddr(t *testing.T) {
	tests := []struct {
		addr string
		want int64
	}{
		{"10.0.0.1", 1},
		{"192.168.1.31", 31},
		{"192.168.1.32", 0},
		{"172.16.0.255", 31},
		{"::ffff:10.0.0.7", 7},
		{"fd00::42", 2},
	}
	for _, tt := range tests {
		got, err := WorkerIDFromAddr(netip.MustParseAddr(tt.addr))
		require.NoError(t, err, tt.addr)
		assert.Equal(t, tt.want, got, tt.addr)
	}

	_, err := WorkerIDFromAddr(netip.Addr{})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestPrivateAddr(t *testing.T) {
	orig := interfaceAddrs
	t.Cleanup(func() { interfaceAddrs = orig })

	t.Run("prefers ipv4", func(t *testing.T) {
		interfaceAddrs = func() ([]net.Addr, error) {
			return []net.Addr{
				ipNet(t, "127.0.0.1/8"),
				ipNet(t, "fd12::5/64"),
				ipNet(t, "8.8.8.8/32"),
				ipNet(t, "10.1.2.3/16"),
			}, nil
		}
		addr, err := PrivateAddr()
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddr("10.1.2.3"), addr)

		worker, got, err := SuggestWorkerIDFromAddr()
		require.NoError(t, err)
		assert.Equal(t, addr, got)
		assert.Equal(t, int64(3), worker)
	})

	t.Run("falls back to ula", func(t *testing.T) {
		interfaceAddrs = func() ([]net.Addr, error) {
			return []net.Addr{ipNet(t, "fd12::25/64"), &net.IPAddr{IP: net.ParseIP("10.0.0.1")}}, nil
		}
		addr, err := PrivateAddr()
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddr("fd12::25"), addr)
	})

	t.Run("none", func(t *testing.T) {
		interfaceAddrs = func() ([]net.Addr, error) {
			return []net.Addr{ipNet(t, "127.0.0.1/8"), ipNet(t, "1.1.1.1/32")}, nil
		}
		_, err := PrivateAddr()
		assert.Error(t, err)
		_, _, err = SuggestWorkerIDFromAddr()
		assert.Error(t, err)
	})

	t.Run("listing fails", func(t *testing.T) {
		interfaceAddrs = func() ([]net.Addr, error) { return nil, errors.New("netlink denied") }
		_, err := PrivateAddr()
		assert.ErrorContains(t, err, "netlink denied")
	})
}
