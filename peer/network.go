// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"fmt"

	"github.com/ava-labs/chiasdk/protocol"
)

// Network describes how to find peers on a network.
type Network struct {
	protocol.NetworkConstants
	DNSIntroducers []string
}

var (
	MainnetNetwork = Network{
		NetworkConstants: protocol.MainnetConstants,
		DNSIntroducers: []string{
			"dns-introducer.chia.net",
			"chia.ctrlaltdel.ch",
			"seeder.dexie.space",
			"chia.hoffmang.com",
			"seeder.xchpool.org",
		},
	}

	Testnet11Network = Network{
		NetworkConstants: protocol.Testnet11Constants,
		DNSIntroducers: []string{
			"dns-introducer-testnet11.chia.net",
		},
	}
)

// NetworkByName returns a copy of a known network.
func NetworkByName(name string) (Network, error) {
	var n Network
	switch name {
	case MainnetNetwork.Name:
		n = MainnetNetwork
	case Testnet11Network.Name:
		n = Testnet11Network
	default:
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	n.DNSIntroducers = append([]string(nil), n.DNSIntroducers...)
	return n, nil
}
