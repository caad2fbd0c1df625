// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

import (
	"encoding/hex"
	"fmt"
)

// NodePtr references a node owned by an Allocator. The top two bits hold the
// node kind and the rest is an index into the matching arena.
type NodePtr uint32

const (
	kindShift = 30
	indexMask = 1<<kindShift - 1

	atomKind   = 0
	pairKind   = 1
	prunedKind = 2
)

// Nil and One are pre-allocated in every Allocator.
const (
	Nil NodePtr = 0
	One NodePtr = 1
)

// TreeHash is the sha256 tree hash of a CLVM value.
type TreeHash [32]byte

func (h TreeHash) String() string { return hex.EncodeToString(h[:]) }

// Bytes returns a copy of the hash as a slice.
func (h TreeHash) Bytes() []byte {
	b := make([]byte, 32)
	copy(b, h[:])
	return b
}

// TreeHashFromHex parses a 64 character hex string.
func TreeHashFromHex(s string) (TreeHash, error) {
	var h TreeHash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("%w: expected 32 bytes, found %d", ErrInvalidHash, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// MustTreeHash is TreeHashFromHex for package level constants.
func MustTreeHash(s string) TreeHash {
	h, err := TreeHashFromHex(s)
	if err != nil {
		panic(err)
	}
	return h
}

type pair struct {
	first NodePtr
	rest  NodePtr
}

// Allocator is an arena of CLVM nodes. It is not safe for concurrent use.
type Allocator struct {
	atoms  [][]byte
	pairs  []pair
	pruned []TreeHash
}

// NewAllocator returns an allocator holding only Nil and One.
func NewAllocator() *Allocator {
	return &Allocator{
		atoms: [][]byte{{}, {1}},
	}
}

func makePtr(kind int, index int) NodePtr {
	return NodePtr(kind<<kindShift | index)
}

func (n NodePtr) kind() int  { return int(n >> kindShift) }
func (n NodePtr) index() int { return int(n & indexMask) }

// NewAtom copies b into the arena.
func (a *Allocator) NewAtom(b []byte) NodePtr {
	switch {
	case len(b) == 0:
		return Nil
	case len(b) == 1 && b[0] == 1:
		return One
	}
	atom := make([]byte, len(b))
	copy(atom, b)
	a.atoms = append(a.atoms, atom)
	return makePtr(atomKind, len(a.atoms)-1)
}

// NewPair allocates (first . rest).
func (a *Allocator) NewPair(first, rest NodePtr) NodePtr {
	a.pairs = append(a.pairs, pair{first: first, rest: rest})
	return makePtr(pairKind, len(a.pairs)-1)
}

// NewPruned allocates a node that is only known by its tree hash. Pruned nodes
// hash and compare like the value they stand for but cannot be serialized.
func (a *Allocator) NewPruned(hash TreeHash) NodePtr {
	a.pruned = append(a.pruned, hash)
	return makePtr(prunedKind, len(a.pruned)-1)
}

// IsAtom reports whether n is an atom.
func (a *Allocator) IsAtom(n NodePtr) bool { return n.kind() == atomKind }

// IsPair reports whether n is a pair.
func (a *Allocator) IsPair(n NodePtr) bool { return n.kind() == pairKind }

// IsPruned reports whether n is a hash-only node.
func (a *Allocator) IsPruned(n NodePtr) bool { return n.kind() == prunedKind }

// Atom returns the bytes of an atom, or nil if n is not an atom.
func (a *Allocator) Atom(n NodePtr) []byte {
	if n.kind() != atomKind {
		return nil
	}
	return a.atoms[n.index()]
}

// Pair returns the halves of a pair.
func (a *Allocator) Pair(n NodePtr) (NodePtr, NodePtr, bool) {
	if n.kind() != pairKind {
		return Nil, Nil, false
	}
	p := a.pairs[n.index()]
	return p.first, p.rest, true
}

// Pruned returns the hash stored in a hash-only node.
func (a *Allocator) Pruned(n NodePtr) (TreeHash, bool) {
	if n.kind() != prunedKind {
		return TreeHash{}, false
	}
	return a.pruned[n.index()], true
}

// First returns the left half of a pair.
func (a *Allocator) First(n NodePtr) (NodePtr, error) {
	first, _, ok := a.Pair(n)
	if !ok {
		return Nil, ErrExpectedPair
	}
	return first, nil
}

// Rest returns the right half of a pair.
func (a *Allocator) Rest(n NodePtr) (NodePtr, error) {
	_, rest, ok := a.Pair(n)
	if !ok {
		return Nil, ErrExpectedPair
	}
	return rest, nil
}

// IsNil reports whether n is the empty atom.
func (a *Allocator) IsNil(n NodePtr) bool {
	return n.kind() == atomKind && len(a.atoms[n.index()]) == 0
}

// List allocates a proper list of items.
func (a *Allocator) List(items ...NodePtr) NodePtr {
	list := Nil
	for i := len(items) - 1; i >= 0; i-- {
		list = a.NewPair(items[i], list)
	}
	return list
}

// ListItems returns the items of a proper list. A list terminated by
// anything other than Nil is rejected.
func (a *Allocator) ListItems(n NodePtr) ([]NodePtr, error) {
	var items []NodePtr
	for {
		first, rest, ok := a.Pair(n)
		if !ok {
			break
		}
		items = append(items, first)
		n = rest
	}
	if !a.IsNil(n) {
		return nil, ErrExpectedNilTerminator
	}
	return items, nil
}

// Quote wraps n as (q . n).
func (a *Allocator) Quote(n NodePtr) NodePtr {
	return a.NewPair(One, n)
}

// Equal compares two nodes structurally. Pruned nodes compare by hash.
func (a *Allocator) Equal(x, y NodePtr) bool {
	if x == y {
		return true
	}
	if a.IsPruned(x) || a.IsPruned(y) {
		return a.TreeHash(x) == a.TreeHash(y)
	}
	if a.IsAtom(x) || a.IsAtom(y) {
		if !a.IsAtom(x) || !a.IsAtom(y) {
			return false
		}
		return string(a.Atom(x)) == string(a.Atom(y))
	}
	xf, xr, _ := a.Pair(x)
	yf, yr, _ := a.Pair(y)
	return a.Equal(xf, yf) && a.Equal(xr, yr)
}

// Copy moves a node from another allocator into a.
func (a *Allocator) Copy(from *Allocator, n NodePtr) NodePtr {
	switch n.kind() {
	case atomKind:
		return a.NewAtom(from.Atom(n))
	case prunedKind:
		h, _ := from.Pruned(n)
		return a.NewPruned(h)
	default:
		first, rest, _ := from.Pair(n)
		return a.NewPair(a.Copy(from, first), a.Copy(from, rest))
	}
}
