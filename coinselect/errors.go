// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package coinselect

import (
	"errors"
	"fmt"
)

var (
	ErrNoSpendableCoins = errors.New("no spendable coins")
	ErrExceededMaxCoins = errors.New("exceeded max coins")
)

// InsufficientBalanceError is returned when the spendable coins add up to
// less than the requested amount.
type InsufficientBalanceError struct {
	Balance uint64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance %d", e.Balance)
}
