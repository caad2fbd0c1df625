// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mips

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// MofN is a threshold over member puzzle hashes.
type MofN struct {
	Required int             `json:"required"`
	Items    []clvm.TreeHash `json:"items"`
}

// Verify checks that the threshold can be met.
func (m MofN) Verify() error {
	if m.Required < 1 || m.Required > len(m.Items) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidRequired, m.Required, len(m.Items))
	}
	return nil
}

// IsOneOfN is true when any single member can spend.
func (m MofN) IsOneOfN() bool { return m.Required == 1 }

// IsNOfN is true when every member must spend. A single member is 1-of-1.
func (m MofN) IsNOfN() bool { return m.Required != 1 && m.Required == len(m.Items) }

// MerkleTree is the tree of member puzzle hashes used by 1-of-N and m-of-N.
func (m MofN) MerkleTree() *puzzles.MerkleTree {
	leaves := make([]protocol.Bytes32, len(m.Items))
	for i, item := range m.Items {
		leaves[i] = protocol.Bytes32(item)
	}
	return puzzles.NewMerkleTree(leaves)
}

// PuzzleHash is the hash of the threshold puzzle, before any restriction or
// index wrapper is applied.
func (m MofN) PuzzleHash() (clvm.TreeHash, error) {
	if err := m.Verify(); err != nil {
		return clvm.TreeHash{}, err
	}
	switch {
	case m.IsOneOfN():
		return OneOfNHash(m.MerkleTree().Root())
	case m.IsNOfN():
		return NOfNHash(m.Items)
	default:
		return MOfNHash(uint64(m.Required), m.MerkleTree().Root())
	}
}

// MofNHash is shorthand for MofN{required, items}.PuzzleHash.
func MofNHash(required int, items []clvm.TreeHash) (clvm.TreeHash, error) {
	return MofN{Required: required, Items: items}.PuzzleHash()
}

// SplitIndex is where an m-of-N proof splits a list of n leaves. It matches
// the split of the merkle tree.
func SplitIndex(n int) int { return (n + 1) / 2 }
