// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"fmt"
)

// NetworkConstants are the per-network values that spends depend on.
type NetworkConstants struct {
	Name             string
	GenesisChallenge Bytes32
	// AggSigMe is the additional data appended to AGG_SIG_ME messages. The
	// other AGG_SIG variants derive their data from it.
	AggSigMe     Bytes32
	MaxBlockCost uint64
	DefaultPort  uint16
}

var (
	mainnetGenesis   = mustBytes32("ccd5bb71183532bff220ba46c268991a3ff07eb358e8255a65c30a2dce0e5fbb")
	testnet11Genesis = mustBytes32("37a90eb5185a9c4439a91ddc98bbadce7b4feba060d50116a067de66bf236615")

	MainnetConstants = NetworkConstants{
		Name:             "mainnet",
		GenesisChallenge: mainnetGenesis,
		AggSigMe:         mainnetGenesis,
		MaxBlockCost:     11_000_000_000,
		DefaultPort:      8444,
	}

	Testnet11Constants = NetworkConstants{
		Name:             "testnet11",
		GenesisChallenge: testnet11Genesis,
		AggSigMe:         testnet11Genesis,
		MaxBlockCost:     11_000_000_000,
		DefaultPort:      58444,
	}
)

// ConstantsForNetwork looks up the constants of a named network.
func ConstantsForNetwork(name string) (NetworkConstants, error) {
	switch name {
	case MainnetConstants.Name:
		return MainnetConstants, nil
	case Testnet11Constants.Name:
		return Testnet11Constants, nil
	default:
		return NetworkConstants{}, fmt.Errorf("unknown network %q", name)
	}
}

func mustBytes32(s string) Bytes32 {
	b, err := Bytes32FromHex(s)
	if err != nil {
		panic(err)
	}
	return b
}
