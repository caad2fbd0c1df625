// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package puzzles

import (
	"fmt"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
)

// Payment is a coin to be created by a settlement spend. A nil Memos slice
// means the payment carries no memo list at all, which hashes differently
// from an empty list.
type Payment struct {
	PuzzleHash protocol.Bytes32 `json:"puzzle_hash"`
	Amount     uint64           `json:"amount"`
	Memos      [][]byte         `json:"memos,omitempty"`
}

// NewPayment returns a payment hinted to its own puzzle hash, which is how
// wallets discover received assets.
func NewPayment(puzzleHash protocol.Bytes32, amount uint64) Payment {
	return Payment{PuzzleHash: puzzleHash, Amount: amount, Memos: [][]byte{puzzleHash[:]}}
}

// ToClvm allocates (puzzle_hash amount memos?).
func (p Payment) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	items := []clvm.NodePtr{a.NewAtom(p.PuzzleHash[:]), a.NewUint64(p.Amount)}
	if p.Memos != nil {
		items = append(items, memoList(a, p.Memos))
	}
	return a.List(items...)
}

// TreeHash computes the tree hash without allocating.
func (p Payment) TreeHash() clvm.TreeHash {
	items := []clvm.TreeHash{clvm.HashAtom(p.PuzzleHash[:]), clvm.TreeHashUint64(p.Amount)}
	if p.Memos != nil {
		items = append(items, memoListHash(p.Memos))
	}
	return clvm.HashList(items...)
}

func memoList(a *clvm.Allocator, memos [][]byte) clvm.NodePtr {
	nodes := make([]clvm.NodePtr, len(memos))
	for i, memo := range memos {
		nodes[i] = a.NewAtom(memo)
	}
	return a.List(nodes...)
}

func memoListHash(memos [][]byte) clvm.TreeHash {
	hashes := make([]clvm.TreeHash, len(memos))
	for i, memo := range memos {
		hashes[i] = clvm.HashAtom(memo)
	}
	return clvm.HashList(hashes...)
}

// ParsePayment reads a payment. Memo lists holding anything other than atoms
// are rejected.
func ParsePayment(a *clvm.Allocator, n clvm.NodePtr) (Payment, error) {
	var p Payment
	items, err := a.ListItems(n)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}
	if len(items) < 2 || len(items) > 3 {
		return p, fmt.Errorf("%w: expected 2 or 3 items, found %d", ErrInvalidPayment, len(items))
	}
	ph, err := a.Bytes32(items[0])
	if err != nil {
		return p, fmt.Errorf("%w: puzzle hash: %v", ErrInvalidPayment, err)
	}
	p.PuzzleHash = ph
	if p.Amount, err = a.Uint64(items[1]); err != nil {
		return p, fmt.Errorf("%w: amount: %v", ErrInvalidPayment, err)
	}
	if len(items) == 3 {
		memos, err := a.ListItems(items[2])
		if err != nil {
			return p, fmt.Errorf("%w: memos: %v", ErrInvalidPayment, err)
		}
		p.Memos = make([][]byte, 0, len(memos))
		for _, memo := range memos {
			if !a.IsAtom(memo) {
				return p, fmt.Errorf("%w: memo is not an atom", ErrInvalidPayment)
			}
			p.Memos = append(p.Memos, append([]byte(nil), a.Atom(memo)...))
		}
	}
	return p, nil
}

// NotarizedPayment groups payments under a nonce, which ties them to the coins
// offered in the same trade.
type NotarizedPayment struct {
	Nonce    protocol.Bytes32 `json:"nonce"`
	Payments []Payment        `json:"payments"`
}

// ToClvm allocates (nonce . payments).
func (np NotarizedPayment) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	payments := make([]clvm.NodePtr, len(np.Payments))
	for i, p := range np.Payments {
		payments[i] = p.ToClvm(a)
	}
	return a.NewPair(a.NewAtom(np.Nonce[:]), a.List(payments...))
}

// TreeHash computes the tree hash without allocating.
func (np NotarizedPayment) TreeHash() clvm.TreeHash {
	hashes := make([]clvm.TreeHash, len(np.Payments))
	for i, p := range np.Payments {
		hashes[i] = p.TreeHash()
	}
	return clvm.HashPair(clvm.HashAtom(np.Nonce[:]), clvm.HashList(hashes...))
}

// Amount sums the payments.
func (np NotarizedPayment) Amount() (uint64, error) {
	var (
		total uint64
		err   error
	)
	for _, p := range np.Payments {
		if total, err = safemath.Add64(total, p.Amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// ParseNotarizedPayment reads (nonce . payments).
func ParseNotarizedPayment(a *clvm.Allocator, n clvm.NodePtr) (NotarizedPayment, error) {
	var np NotarizedPayment
	first, rest, ok := a.Pair(n)
	if !ok {
		return np, fmt.Errorf("%w: expected pair", ErrInvalidPayment)
	}
	nonce, err := a.Bytes32(first)
	if err != nil {
		return np, fmt.Errorf("%w: nonce: %v", ErrInvalidPayment, err)
	}
	np.Nonce = nonce
	items, err := a.ListItems(rest)
	if err != nil {
		return np, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}
	for _, item := range items {
		p, err := ParsePayment(a, item)
		if err != nil {
			return np, err
		}
		np.Payments = append(np.Payments, p)
	}
	return np, nil
}

// SettlementSolution allocates the solution of a settlement coin:
// ((nonce . payments) ...).
func SettlementSolution(a *clvm.Allocator, notarized []NotarizedPayment) clvm.NodePtr {
	nodes := make([]clvm.NodePtr, len(notarized))
	for i, np := range notarized {
		nodes[i] = np.ToClvm(a)
	}
	return a.List(a.List(nodes...))
}

// ParseSettlementSolution is the inverse of SettlementSolution.
func ParseSettlementSolution(a *clvm.Allocator, n clvm.NodePtr) ([]NotarizedPayment, error) {
	outer, err := a.ListItems(n)
	if err != nil || len(outer) != 1 {
		return nil, fmt.Errorf("%w: settlement solution must be a single list", ErrInvalidSolution)
	}
	items, err := a.ListItems(outer[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSolution, err)
	}
	notarized := make([]NotarizedPayment, 0, len(items))
	for _, item := range items {
		np, err := ParseNotarizedPayment(a, item)
		if err != nil {
			return nil, err
		}
		notarized = append(notarized, np)
	}
	return notarized, nil
}
