// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CoinSize is the streamable size of a coin: two hashes and a u64.
	CoinSize = 32 + 32 + wrappers.LongLen
)

var ErrInvalidCoinFormat = errors.New("invalid coin format")

// MarshalCoin returns the fixed streamable layout of c.
func MarshalCoin(c Coin) []byte {
	raw := make([]byte, CoinSize)
	work := raw

	copy(work, c.ParentCoinInfo[:])
	work = work[32:]
	copy(work, c.PuzzleHash[:])
	work = work[32:]
	binary.BigEndian.PutUint64(work, c.Amount)
	return raw
}

// UnmarshalCoin parses the fixed streamable layout of a coin.
func UnmarshalCoin(raw []byte) (Coin, error) {
	var c Coin
	if len(raw) != CoinSize {
		return c, ErrInvalidCoinFormat
	}
	work := raw

	copy(c.ParentCoinInfo[:], work[:32])
	work = work[32:]

	copy(c.PuzzleHash[:], work[:32])
	work = work[32:]

	c.Amount = binary.BigEndian.Uint64(work)
	return c, nil
}
