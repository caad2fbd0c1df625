// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"encoding/binary"
	"math"
	"math/big"
)

const (
	MaxSafeInteger = 1<<53 - 1
	MinSafeInteger = -MaxSafeInteger
)

// SafeInteger converts v to an integer when a double can represent it and
// every integer around it exactly.
func SafeInteger(v float64) (int64, error) {
	switch {
	case math.IsInf(v, 0):
		return 0, SafeIntError{Kind: Infinite}
	case math.IsNaN(v):
		return 0, SafeIntError{Kind: NaN}
	case v != math.Trunc(v):
		return 0, SafeIntError{Kind: Fractional}
	case v > MaxSafeInteger:
		return 0, SafeIntError{Kind: TooLarge}
	case v < MinSafeInteger:
		return 0, SafeIntError{Kind: TooSmall}
	default:
		return int64(v), nil
	}
}

// BigIntToWords splits v into big-endian 64 bit words of its magnitude.
// Zero has no words.
func BigIntToWords(v *big.Int) (negative bool, words []uint64) {
	b := v.Bytes()
	padded := make([]byte, (8-len(b)%8)%8, len(b)+8)
	padded = append(padded, b...)

	words = make([]uint64, 0, len(padded)/8)
	for i := 0; i < len(padded); i += 8 {
		words = append(words, binary.BigEndian.Uint64(padded[i:i+8]))
	}
	return v.Sign() < 0, words
}

// WordsToBigInt reverses BigIntToWords.
func WordsToBigInt(negative bool, words []uint64) *big.Int {
	b := make([]byte, 0, len(words)*8)
	for _, w := range words {
		b = binary.BigEndian.AppendUint64(b, w)
	}
	v := new(big.Int).SetBytes(b)
	if negative {
		v.Neg(v)
	}
	return v
}
