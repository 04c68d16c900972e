package listener

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plategate/internal/config"
	"plategate/internal/logger"
)

func ipNet(s string) *net.IPNet {
	ip, n, _ := net.ParseCIDR(s)
	n.IP = ip
	return n
}

func TestFirstIPv4(t *testing.T) {
	tests := []struct {
		name  string
		addrs []net.Addr
		want  string
		ok    bool
	}{
		{name: "empty"},
		{name: "loopback only", addrs: []net.Addr{ipNet("127.0.0.1/8"), ipNet("::1/128")}},
		{
			name:  "skips loopback and ipv6",
			addrs: []net.Addr{ipNet("127.0.0.1/8"), ipNet("fe80::1/64"), ipNet("192.168.1.10/24"), ipNet("10.0.0.5/8")},
			want:  "192.168.1.10",
			ok:    true,
		},
		{name: "ip addr", addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("172.16.0.2")}}, want: "172.16.0.2", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstIPv4(tt.addrs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func stubInterfaces(t *testing.T, fn func() ([]net.Addr, error)) {
	t.Helper()
	prev := interfaceAddrs
	interfaceAddrs = fn
	t.Cleanup(func() { interfaceAddrs = prev })
}

var fastDiscovery = config.RetryConfig{
	MaxAttempts:     3,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	Multiplier:      2,
}

func TestDiscoverIPv4_RetriesUntilAddressAppears(t *testing.T) {
	calls := 0
	stubInterfaces(t, func() ([]net.Addr, error) {
		calls++
		if calls < 2 {
			return []net.Addr{ipNet("127.0.0.1/8")}, nil
		}
		return []net.Addr{ipNet("192.168.1.10/24")}, nil
	})

	ip, err := DiscoverIPv4(context.Background(), fastDiscovery, logger.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", ip)
	assert.Equal(t, 2, calls)
}

func TestDiscoverIPv4_GivesUp(t *testing.T) {
	stubInterfaces(t, func() ([]net.Addr, error) {
		return nil, errors.New("netlink unavailable")
	})

	_, err := DiscoverIPv4(context.Background(), fastDiscovery, logger.NopLogger())
	assert.ErrorContains(t, err, "netlink unavailable")
}

func TestResolveAddress(t *testing.T) {
	addr, err := ResolveAddress(context.Background(), config.ListenerConfig{Host: "0.0.0.0", Port: 9091}, logger.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9091", addr)

	stubInterfaces(t, func() ([]net.Addr, error) {
		return []net.Addr{ipNet("10.1.2.3/16")}, nil
	})
	addr, err = ResolveAddress(context.Background(), config.ListenerConfig{Port: 9091, Discovery: fastDiscovery}, logger.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3:9091", addr)
}
