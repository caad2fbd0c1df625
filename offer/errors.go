// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import "errors"

var (
	ErrIncompatibleAssetInfo  = errors.New("incompatible asset info")
	ErrMissingAssetInfo       = errors.New("missing asset info")
	ErrConflictingOfferInputs = errors.New("conflicting offer inputs")
	ErrPuzzleMismatch         = errors.New("puzzle reveal does not match coin puzzle hash")
	ErrRevocableCat           = errors.New("revocable cats are not supported")
	ErrUnfulfilledPayments    = errors.New("requested payments have not been fulfilled")
	ErrAmountOverflow         = errors.New("amount does not fit in 64 bits")

	// Offer file format errors.
	ErrMissingVersionPrefix = errors.New("missing version prefix")
	ErrUnsupportedVersion   = errors.New("unsupported compression version")
	ErrNotCompressed        = errors.New("offer is not compressed")
	ErrInvalidFormat        = errors.New("invalid offer format")
	ErrInvalidPrefix        = errors.New("invalid offer prefix")
	ErrMissingDictionaryMod = errors.New("compression dictionary puzzle has no reveal")
)
