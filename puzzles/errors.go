// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package puzzles

import "errors"

var (
	ErrUnknownMod      = errors.New("unknown puzzle mod")
	ErrRevealMismatch  = errors.New("reveal does not match known mod hash")
	ErrInvalidPayment  = errors.New("invalid payment")
	ErrInvalidProof    = errors.New("invalid proof")
	ErrInvalidSolution = errors.New("invalid solution")
)
