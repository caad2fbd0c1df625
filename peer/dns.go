// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"context"
	"net"
	"net/netip"
	"time"

	log "github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDNSTimeout   = 3 * time.Second
	DefaultDNSBatchSize = 10
)

// Resolver looks up the addresses of a host. *net.Resolver implements it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

var _ Resolver = (*net.Resolver)(nil)

// LookupAll resolves every introducer, at most batchSize at a time, and
// returns the distinct addresses found joined with port. Introducers that
// fail or time out are logged and skipped.
func LookupAll(
	ctx context.Context,
	resolver Resolver,
	introducers []string,
	port uint16,
	timeout time.Duration,
	batchSize int,
) ([]netip.AddrPort, error) {
	if batchSize <= 0 {
		batchSize = DefaultDNSBatchSize
	}

	results := make([][]netip.Addr, len(introducers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)
	for i, host := range introducers {
		i, host := i, host
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			addrs, err := resolver.LookupNetIP(lookupCtx, "ip", host)
			if err != nil {
				log.Warn("dns lookup failed", "introducer", host, "err", err)
				return nil
			}
			results[i] = addrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[netip.Addr]struct{})
	var out []netip.AddrPort
	for _, addrs := range results {
		for _, addr := range addrs {
			addr = addr.Unmap()
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, netip.AddrPortFrom(addr, port))
		}
	}
	return out, nil
}

// Lookup resolves the network's introducers on its default port.
func (n Network) Lookup(ctx context.Context, resolver Resolver, timeout time.Duration, batchSize int) ([]netip.AddrPort, error) {
	return LookupAll(ctx, resolver, n.DNSIntroducers, n.DefaultPort, timeout, batchSize)
}
