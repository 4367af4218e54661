package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/dnscache"
	"github.com/rs/zerolog/log"
)

var (
	globalResolver     *dnscache.Resolver
	globalResolverOnce sync.Once

	dialTimeout = 10 * time.Second
)

// GetDNSResolver returns the process-wide caching resolver. A run makes a
// handful of requests to one host, so entries are never refreshed.
func GetDNSResolver() *dnscache.Resolver {
	globalResolverOnce.Do(func() {
		log.Debug().Msg("Initializing DNS resolver cache")
		globalResolver = &dnscache.Resolver{}
	})
	return globalResolver
}

// DialContextWithCache is a DialContext function that uses the DNS cache
func DialContextWithCache(ctx context.Context, network, address string) (net.Conn, error) {
	resolver := GetDNSResolver()

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	ips, err := resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{
			Err:  "no IP addresses found",
			Name: host,
		}
	}

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0], port))
}
