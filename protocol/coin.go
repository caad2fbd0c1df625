// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/chiasdk/clvm"
)

// Coin is an unspent output, identified by its parent, puzzle hash and
// amount.
type Coin struct {
	ParentCoinInfo Bytes32 `serialize:"true" json:"parent_coin_info"`
	PuzzleHash     Bytes32 `serialize:"true" json:"puzzle_hash"`
	Amount         uint64  `serialize:"true" json:"amount"`
}

// NewCoin returns a coin value.
func NewCoin(parent, puzzleHash Bytes32, amount uint64) Coin {
	return Coin{ParentCoinInfo: parent, PuzzleHash: puzzleHash, Amount: amount}
}

// ID is sha256(parent || puzzle hash || amount), where the amount uses the
// minimal CLVM integer encoding.
func (c Coin) ID() Bytes32 {
	amount := clvm.EncodeUint64(c.Amount)
	buf := make([]byte, 0, 64+len(amount))
	buf = append(buf, c.ParentCoinInfo[:]...)
	buf = append(buf, c.PuzzleHash[:]...)
	buf = append(buf, amount...)
	return hashing.ComputeHash256Array(buf)
}
