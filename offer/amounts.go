// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// Amounts totals the fungible side of an offer. NFTs and options are not
// counted.
type Amounts struct {
	Xch  uint64
	Cats OrderedMap[uint64]
}

// Cat returns the amount of assetID, or zero.
func (a *Amounts) Cat(assetID protocol.Bytes32) uint64 {
	amount, _ := a.Cats.Get(assetID)
	return amount
}

func (a *Amounts) addCat(assetID protocol.Bytes32, amount uint64) error {
	total, err := safemath.Add64(a.Cat(assetID), amount)
	if err != nil {
		return err
	}
	a.Cats.Set(assetID, total)
	return nil
}

func notarizedTotal(notarized []puzzles.NotarizedPayment) (uint64, error) {
	var total uint64
	for _, np := range notarized {
		amount, err := np.Amount()
		if err != nil {
			return 0, err
		}
		if total, err = safemath.Add64(total, amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}
