// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mips

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// CoreMods are the member puzzle templates that are not shipped with the
// module. Their reveals are supplied at runtime.
var CoreMods = []string{
	puzzles.IndexWrapper,
	puzzles.OneOfN,
	puzzles.MOfN,
	puzzles.NOfN,
	puzzles.EnforceDelegatedPuzzleWrappers,
	puzzles.AddDelegatedPuzzleWrapper,
	puzzles.SingletonMember,
	puzzles.AugmentedCondition,
	puzzles.P2OneOfMany,
}

// RegisterCore registers the given reveals, keyed by template name. Names
// outside CoreMods are rejected.
func RegisterCore(reveals map[string][]byte) error {
	for name, reveal := range reveals {
		if !isCore(name) {
			return fmt.Errorf("%w: %s", ErrUnknownCoreMod, name)
		}
		if _, err := puzzles.Register(name, reveal); err != nil {
			return fmt.Errorf("couldn't register %s: %w", name, err)
		}
	}
	return nil
}

func isCore(name string) bool {
	for _, core := range CoreMods {
		if core == name {
			return true
		}
	}
	return false
}

func curryHash(name string, args ...clvm.TreeHash) (clvm.TreeHash, error) {
	modHash, err := puzzles.Hash(name)
	if err != nil {
		return clvm.TreeHash{}, err
	}
	return clvm.CurryTreeHash(modHash, args...), nil
}

// IndexWrapperHash is inner wrapped with its nonce.
func IndexWrapperHash(nonce uint64, inner clvm.TreeHash) (clvm.TreeHash, error) {
	return curryHash(puzzles.IndexWrapper, clvm.TreeHashUint64(nonce), inner)
}

// QuotedAddWrapperHash is the hash of the quoted add wrapper template, which
// the wrapper enforcement puzzle is curried with.
func QuotedAddWrapperHash() (clvm.TreeHash, error) {
	modHash, err := puzzles.Hash(puzzles.AddDelegatedPuzzleWrapper)
	if err != nil {
		return clvm.TreeHash{}, err
	}
	return clvm.HashPair(clvm.HashAtom([]byte{1}), clvm.HashAtom(modHash[:])), nil
}

// EnforceDelegatedPuzzleWrappersHash validates that the delegated puzzle is
// wrapped by wrappers, outermost first.
func EnforceDelegatedPuzzleWrappersHash(wrappers []clvm.TreeHash) (clvm.TreeHash, error) {
	quoted, err := QuotedAddWrapperHash()
	if err != nil {
		return clvm.TreeHash{}, err
	}
	return curryHash(puzzles.EnforceDelegatedPuzzleWrappers, clvm.HashAtom(quoted[:]), hashAtoms(wrappers))
}

// OneOfNHash commits to a merkle root of member puzzle hashes.
func OneOfNHash(merkleRoot protocol.Bytes32) (clvm.TreeHash, error) {
	return curryHash(puzzles.OneOfN, clvm.HashAtom(merkleRoot[:]))
}

// NOfNHash is curried with every member puzzle, so it hashes to the list
// of their hashes.
func NOfNHash(items []clvm.TreeHash) (clvm.TreeHash, error) {
	return curryHash(puzzles.NOfN, clvm.HashList(items...))
}

// MOfNHash commits to the number of required members and their merkle root.
func MOfNHash(required uint64, merkleRoot protocol.Bytes32) (clvm.TreeHash, error) {
	return curryHash(puzzles.MOfN, clvm.TreeHashUint64(required), clvm.HashAtom(merkleRoot[:]))
}

// SingletonMemberHash is satisfied by a spend of the singleton launcherID.
func SingletonMemberHash(launcherID protocol.Bytes32) (clvm.TreeHash, error) {
	return curryHash(puzzles.SingletonMember, puzzles.SingletonStructHash(launcherID))
}

// P2OneOfManyHash locks a coin to any puzzle in a merkle tree.
func P2OneOfManyHash(merkleRoot protocol.Bytes32) (clvm.TreeHash, error) {
	return curryHash(puzzles.P2OneOfMany, clvm.HashAtom(merkleRoot[:]))
}

// hashAtoms hashes a list whose items are the 32 byte values themselves.
func hashAtoms(items []clvm.TreeHash) clvm.TreeHash {
	hashes := make([]clvm.TreeHash, len(items))
	for i, item := range items {
		hashes[i] = clvm.HashAtom(item[:])
	}
	return clvm.HashList(hashes...)
}
