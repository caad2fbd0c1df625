// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

import "errors"

var (
	ErrExpectedPair          = errors.New("expected pair")
	ErrExpectedAtom          = errors.New("expected atom")
	ErrExpectedNilTerminator = errors.New("expected nil terminated list")
	ErrInvalidHash           = errors.New("invalid tree hash")
	ErrMissingModReveal      = errors.New("missing mod reveal")
	ErrUnexpectedEOF         = errors.New("unexpected end of program")
	ErrTrailingBytes         = errors.New("trailing bytes after program")
	ErrInvalidBackref        = errors.New("invalid back reference")
	ErrAtomTooLarge          = errors.New("atom too large")
	ErrIntegerOverflow       = errors.New("integer does not fit")
	ErrNegativeInteger       = errors.New("negative integer")
	ErrNotCurried            = errors.New("program is not curried")
	ErrNoRunner              = errors.New("no clvm runner configured")
)
