// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"github.com/ava-labs/chiasdk/clvm"
)

// Layer is a puzzle that can be allocated and hashed. Inner puzzles of every
// layer are Layers, which is how stacks compose.
type Layer interface {
	ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error)
	TreeHash() clvm.TreeHash
}

// Puzzle is an allocated program, classified as curried or raw when parsed.
type Puzzle struct {
	Ptr  clvm.NodePtr
	Hash clvm.TreeHash

	// Set only for curried programs.
	Curried bool
	ModHash clvm.TreeHash
	Mod     clvm.NodePtr
	Args    []clvm.NodePtr
}

var _ Layer = Puzzle{}

// ParsePuzzle classifies the program at n.
func ParsePuzzle(a *clvm.Allocator, n clvm.NodePtr) Puzzle {
	p := Puzzle{Ptr: n, Hash: a.TreeHash(n)}
	mod, args, err := a.Uncurry(n)
	if err != nil {
		return p
	}
	p.Curried = true
	p.Mod = mod
	p.ModHash = a.TreeHash(mod)
	p.Args = args
	return p
}

// Is reports whether p is modHash curried with exactly nargs arguments.
func (p Puzzle) Is(modHash clvm.TreeHash, nargs int) bool {
	return p.Curried && p.ModHash == modHash && len(p.Args) == nargs
}

// Matches reports whether p is curried from modHash, regardless of the
// number of arguments.
func (p Puzzle) Matches(modHash clvm.TreeHash) bool {
	return p.Curried && p.ModHash == modHash
}

func (p Puzzle) ConstructPuzzle(*SpendContext) (clvm.NodePtr, error) { return p.Ptr, nil }

func (p Puzzle) TreeHash() clvm.TreeHash { return p.Hash }

// PuzzleHash stands in for an inner puzzle known only by hash. It allocates
// a pruned node, so spends built from it can be hashed but not serialized.
type PuzzleHash clvm.TreeHash

var _ Layer = PuzzleHash{}

func (h PuzzleHash) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	return ctx.NewPruned(clvm.TreeHash(h)), nil
}

func (h PuzzleHash) TreeHash() clvm.TreeHash { return clvm.TreeHash(h) }

// Spend is a puzzle together with the solution it is run with.
type Spend struct {
	Puzzle   clvm.NodePtr
	Solution clvm.NodePtr
}

// NewSpend returns a spend value.
func NewSpend(puzzle, solution clvm.NodePtr) Spend {
	return Spend{Puzzle: puzzle, Solution: solution}
}

// HashedPtr is a node whose tree hash has already been computed. It carries
// opaque values such as NFT and DID metadata.
type HashedPtr struct {
	Ptr  clvm.NodePtr
	Hash clvm.TreeHash
}

// NewHashedPtr hashes n.
func NewHashedPtr(a *clvm.Allocator, n clvm.NodePtr) HashedPtr {
	return HashedPtr{Ptr: n, Hash: a.TreeHash(n)}
}

// NilHashedPtr is the empty value.
func NilHashedPtr() HashedPtr {
	return HashedPtr{Ptr: clvm.Nil, Hash: clvm.NilHash()}
}
