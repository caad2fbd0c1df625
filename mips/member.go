// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mips

import (
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/puzzles"
)

// MemberPuzzleHash derives the puzzle hash of a member of a MIPS tree.
//
// Restrictions are applied first, then the delegated feeder when the member
// is the top level puzzle, then the index wrapper with nonce. Wrapper
// restrictions are collapsed into one delegated puzzle validator appended
// after the others.
func MemberPuzzleHash(nonce uint64, restrictions []Restriction, inner clvm.TreeHash, topLevel bool) (clvm.TreeHash, error) {
	puzzleHash := inner

	if len(restrictions) > 0 {
		b := Bucket(restrictions)
		validators := b.DelegatedPuzzleValidators
		if len(b.Wrappers) > 0 {
			enforce, err := EnforceDelegatedPuzzleWrappersHash(b.Wrappers)
			if err != nil {
				return clvm.TreeHash{}, err
			}
			validators = append(validators, enforce)
		}
		puzzleHash = puzzles.RestrictionsPuzzleHash(b.MemberValidators, validators, puzzleHash)
	}

	if topLevel {
		puzzleHash = puzzles.DelegatedFeederPuzzleHash(puzzleHash)
	}

	return IndexWrapperHash(nonce, puzzleHash)
}
