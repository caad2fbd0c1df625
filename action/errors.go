// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import "errors"

var (
	ErrNoSourceForOutput     = errors.New("no source for output")
	ErrInvalidAssetID        = errors.New("invalid asset id")
	ErrCannotEmitConditions  = errors.New("cannot emit conditions from spend")
	ErrCannotSettleFromSpend = errors.New("cannot settle from spend")
	ErrDuplicateOutput       = errors.New("duplicate output")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrUnbalancedCat         = errors.New("cat spend is unbalanced")
	ErrAlreadyFinalized      = errors.New("spends already finalized")
	ErrCannotMelt            = errors.New("singleton cannot be melted")
	ErrAmbiguousSettlement   = errors.New("settlement has more than one singleton payment")
	ErrEvenSingletonAmount   = errors.New("singleton amount must be odd")
	ErrOverflow              = errors.New("amount overflow")
	ErrDuplicateTail         = errors.New("cat spend already runs its tail")
)
