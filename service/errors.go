// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import "errors"

// ErrGeneric is the only error callers of the service ever see.
var ErrGeneric = errors.New("error")

var (
	errEmptyProgram  = errors.New("empty program")
	errInvalidBigInt = errors.New("invalid big integer")
	errNoState       = errors.New("no coin store configured")
)

// SafeIntKind says why a number is not a safe integer.
type SafeIntKind uint8

const (
	Infinite SafeIntKind = iota + 1
	NaN
	Fractional
	TooLarge
	TooSmall
)

// SafeIntError is returned for numbers that cannot be used as integers.
type SafeIntError struct {
	Kind SafeIntKind
}

func (e SafeIntError) Error() string {
	switch e.Kind {
	case Infinite:
		return "value is infinite"
	case NaN:
		return "value is NaN"
	case Fractional:
		return "value has a fractional part"
	case TooLarge:
		return "value is larger than MAX_SAFE_INTEGER"
	case TooSmall:
		return "value is smaller than MIN_SAFE_INTEGER"
	default:
		return "value is not a safe integer"
	}
}
