// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package coinselect

import "math/bits"

// sum is a 128 bit running total so coin amounts can be added without
// overflowing.
type sum struct {
	hi, lo uint64
}

func (s sum) add(v uint64) sum {
	lo, carry := bits.Add64(s.lo, v, 0)
	return sum{hi: s.hi + carry, lo: lo}
}

func (s sum) sub(v uint64) sum {
	lo, borrow := bits.Sub64(s.lo, v, 0)
	return sum{hi: s.hi - borrow, lo: lo}
}

func (s sum) cmp(v uint64) int {
	switch {
	case s.hi > 0 || s.lo > v:
		return 1
	case s.lo < v:
		return -1
	default:
		return 0
	}
}

func (s sum) less(o sum) bool {
	return s.hi < o.hi || (s.hi == o.hi && s.lo < o.lo)
}
