// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package conditions

import (
	"github.com/ava-labs/chiasdk/clvm"
)

// Conditions is a grow-only list used when building spends.
type Conditions []Condition

// With returns the list extended by cs.
func (c Conditions) With(cs ...Condition) Conditions {
	return append(c, cs...)
}

// Extend returns the list extended by other.
func (c Conditions) Extend(other Conditions) Conditions {
	return append(c, other...)
}

// ToClvm allocates the condition list.
func (c Conditions) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	nodes := make([]clvm.NodePtr, len(c))
	for i, cond := range c {
		nodes[i] = cond.ToClvm(a)
	}
	return a.List(nodes...)
}

// CreateCoins returns the CREATE_COIN conditions in order. Melts and TAIL
// runs are not included.
func (c Conditions) CreateCoins() []CreateCoin {
	var out []CreateCoin
	for _, cond := range c {
		if cc, ok := cond.(CreateCoin); ok {
			out = append(out, cc)
		}
	}
	return out
}

// AggSigs returns every signature requirement.
func (c Conditions) AggSigs() []AggSig {
	var out []AggSig
	for _, cond := range c {
		if sig, ok := cond.(AggSig); ok {
			out = append(out, sig)
		}
	}
	return out
}

// ReservedFee sums the RESERVE_FEE conditions, saturating on overflow.
func (c Conditions) ReservedFee() uint64 {
	var total uint64
	for _, cond := range c {
		if fee, ok := cond.(ReserveFee); ok {
			if total+fee.Amount < total {
				return ^uint64(0)
			}
			total += fee.Amount
		}
	}
	return total
}

// Has reports whether any condition carries opcode op.
func (c Conditions) Has(op int) bool {
	for _, cond := range c {
		if cond.Opcode() == op {
			return true
		}
	}
	return false
}
