package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"plategate/internal/config"
	"plategate/internal/logger"
	"plategate/pkg/retry"
)

var interfaceAddrs = net.InterfaceAddrs

var errNoIPv4 = errors.New("no non-loopback IPv4 address found")

// firstIPv4 returns the first IPv4 address in addrs that is not loopback.
func firstIPv4(addrs []net.Addr) (string, bool) {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), true
		}
	}
	return "", false
}

// DiscoverIPv4 looks up the machine's first non-loopback IPv4 address,
// retrying while the network comes up.
func DiscoverIPv4(ctx context.Context, cfg config.RetryConfig, log logger.Logger) (string, error) {
	policy := retry.Policy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
		MaxElapsedTime:  cfg.MaxElapsedTime,
	}

	var found string
	err := retry.RetryWithCallback(ctx, policy, func() error {
		addrs, err := interfaceAddrs()
		if err != nil {
			return fmt.Errorf("list interface addresses: %w", err)
		}
		ip, ok := firstIPv4(addrs)
		if !ok {
			return errNoIPv4
		}
		found = ip
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warnw("Address discovery failed, retrying",
			"attempt", attempt,
			"error", err,
			"retry_in", nextDelay,
		)
	})
	if err != nil {
		return "", err
	}
	return found, nil
}

// ResolveAddress returns host:port for the listener, discovering the host
// when it is not configured.
func ResolveAddress(ctx context.Context, cfg config.ListenerConfig, log logger.Logger) (string, error) {
	host := cfg.Host
	if host == "" {
		ip, err := DiscoverIPv4(ctx, cfg.Discovery, log)
		if err != nil {
			return "", fmt.Errorf("discover listener address: %w", err)
		}
		host = ip
	}
	return net.JoinHostPort(host, strconv.Itoa(cfg.Port)), nil
}
