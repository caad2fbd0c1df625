// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"net/netip"
	"sort"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/sasha-s/go-deadlock"

	"github.com/ava-labs/avalanchego/utils/timer/mockable"
)

// Peer is a connected full node.
type Peer struct {
	Addr        netip.AddrPort
	ConnectedAt time.Time
}

// ClientState tracks connected, banned and trusted peers by IP address.
// Trusted peers cannot be banned. It is safe for concurrent use.
type ClientState struct {
	lock  deadlock.RWMutex
	clock *mockable.Clock
	log   log.Logger

	peers   map[netip.Addr]Peer
	banned  map[netip.Addr]time.Time
	trusted map[netip.Addr]struct{}
}

// NewClientState returns an empty state. A nil clock uses the system time.
func NewClientState(clock *mockable.Clock, logger log.Logger) *ClientState {
	if clock == nil {
		clock = &mockable.Clock{}
	}
	if logger == nil {
		logger = log.Root()
	}
	return &ClientState{
		clock:   clock,
		log:     logger,
		peers:   make(map[netip.Addr]Peer),
		banned:  make(map[netip.Addr]time.Time),
		trusted: make(map[netip.Addr]struct{}),
	}
}

// AddPeer records a connection to addr. Banned addresses are refused.
func (s *ClientState) AddPeer(addr netip.AddrPort) (Peer, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.banned[addr.Addr()]; ok {
		return Peer{}, ErrBannedPeer
	}
	p := Peer{Addr: addr, ConnectedAt: s.clock.Time()}
	s.peers[addr.Addr()] = p
	s.log.Debug("peer connected", "addr", addr)
	return p, nil
}

// Peers returns the connected peers ordered by address.
func (s *ClientState) Peers() []Peer {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Addr, out[j].Addr
		if a.Addr() != b.Addr() {
			return a.Addr().Less(b.Addr())
		}
		return a.Port() < b.Port()
	})
	return out
}

// Disconnect forgets the peer at ip and reports whether it was connected.
func (s *ClientState) Disconnect(ip netip.Addr) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.disconnect(ip)
}

func (s *ClientState) disconnect(ip netip.Addr) bool {
	if _, ok := s.peers[ip]; !ok {
		return false
	}
	delete(s.peers, ip)
	s.log.Debug("peer disconnected", "ip", ip)
	return true
}

func (s *ClientState) IsBanned(ip netip.Addr) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.banned[ip]
	return ok
}

// BannedAt returns when ip was banned.
func (s *ClientState) BannedAt(ip netip.Addr) (time.Time, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	t, ok := s.banned[ip]
	return t, ok
}

func (s *ClientState) IsTrusted(ip netip.Addr) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.trusted[ip]
	return ok
}

// Ban disconnects and bans ip. It reports whether ip was newly banned.
// Trusted peers are never banned.
func (s *ClientState) Ban(ip netip.Addr) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.trusted[ip]; ok {
		return false
	}
	s.disconnect(ip)
	_, existed := s.banned[ip]
	s.banned[ip] = s.clock.Time()
	s.log.Info("peer banned", "ip", ip)
	return !existed
}

// Unban reports whether ip was banned.
func (s *ClientState) Unban(ip netip.Addr) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.banned[ip]
	delete(s.banned, ip)
	return ok
}

// Trust marks ip as trusted and lifts any ban. It reports whether ip was
// newly trusted.
func (s *ClientState) Trust(ip netip.Addr) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, existed := s.trusted[ip]
	s.trusted[ip] = struct{}{}
	delete(s.banned, ip)
	return !existed
}

func (s *ClientState) Untrust(ip netip.Addr) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.trusted[ip]
	delete(s.trusted, ip)
	return ok
}
