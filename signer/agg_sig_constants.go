// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
)

// AggSigConstants are the domain strings appended to each AGG_SIG variant.
// AGG_SIG_ME uses the network's additional data directly; every other
// variant uses sha256(data || opcode).
type AggSigConstants struct {
	Me           protocol.Bytes32
	Parent       protocol.Bytes32
	Puzzle       protocol.Bytes32
	Amount       protocol.Bytes32
	PuzzleAmount protocol.Bytes32
	ParentAmount protocol.Bytes32
	ParentPuzzle protocol.Bytes32
}

func NewAggSigConstants(aggSigMe protocol.Bytes32) AggSigConstants {
	return AggSigConstants{
		Me:           aggSigMe,
		Parent:       domainString(aggSigMe, conditions.OpAggSigParent),
		Puzzle:       domainString(aggSigMe, conditions.OpAggSigPuzzle),
		Amount:       domainString(aggSigMe, conditions.OpAggSigAmount),
		PuzzleAmount: domainString(aggSigMe, conditions.OpAggSigPuzzleAmount),
		ParentAmount: domainString(aggSigMe, conditions.OpAggSigParentAmount),
		ParentPuzzle: domainString(aggSigMe, conditions.OpAggSigParentPuzzle),
	}
}

// ConstantsForNetwork derives the constants of a network.
func ConstantsForNetwork(network protocol.NetworkConstants) AggSigConstants {
	return NewAggSigConstants(network.AggSigMe)
}

func domainString(aggSigMe protocol.Bytes32, opcode int) protocol.Bytes32 {
	buf := make([]byte, 0, len(aggSigMe)+1)
	buf = append(buf, aggSigMe[:]...)
	buf = append(buf, byte(opcode))
	return hashing.ComputeHash256Array(buf)
}
