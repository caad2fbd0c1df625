// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"github.com/ava-labs/chiasdk/driver"
)

// Fee leaves Amount of XCH to the farmer. The total is reserved by a
// RESERVE_FEE condition.
type Fee struct {
	Amount uint64
}

func (a Fee) CalculateDelta(deltas *Deltas, _ int) error {
	return deltas.AddOutput(Xch, a.Amount)
}

func (a Fee) Spend(_ *driver.SpendContext, spends *Spends, _ int) error {
	fee, err := add64(spends.fee, a.Amount)
	if err != nil {
		return err
	}
	spends.fee = fee
	return nil
}
