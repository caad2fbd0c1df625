// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import "errors"

var (
	// Structural parse failures. The puzzle matched a known template but its
	// curried arguments are not what the template requires.
	ErrInvalidModHash         = errors.New("invalid mod hash")
	ErrInvalidSingletonStruct = errors.New("invalid singleton struct")
	ErrNonStandardLayer       = errors.New("non standard layer")
	ErrInvalidArgs            = errors.New("invalid curried arguments")
	ErrInvalidSolution        = errors.New("invalid solution")

	ErrMissingChild             = errors.New("missing child")
	ErrMissingHint              = errors.New("missing hint")
	ErrMissingKey               = errors.New("missing key")
	ErrInvalidAssetID           = errors.New("invalid asset id")
	ErrInvalidMerkleProof       = errors.New("invalid merkle proof")
	ErrMissingSubpathSpend      = errors.New("missing subpath spend")
	ErrInvalidSubpathSpendCount = errors.New("invalid subpath spend count")
	ErrDelegatedWrapperConflict = errors.New("delegated puzzle wrapper conflict")
	ErrEmptyCatRing             = errors.New("cat spend ring is empty")
)
