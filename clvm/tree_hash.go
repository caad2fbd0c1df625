// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

import (
	"github.com/ava-labs/avalanchego/utils/hashing"
)

const (
	atomPrefix = 1
	pairPrefix = 2
)

// HashAtom returns the tree hash of an atom with the given bytes.
func HashAtom(b []byte) TreeHash {
	buf := make([]byte, 1+len(b))
	buf[0] = atomPrefix
	copy(buf[1:], b)
	return hashing.ComputeHash256Array(buf)
}

// HashPair returns the tree hash of a pair whose halves hash to first and rest.
func HashPair(first, rest TreeHash) TreeHash {
	var buf [65]byte
	buf[0] = pairPrefix
	copy(buf[1:], first[:])
	copy(buf[33:], rest[:])
	return hashing.ComputeHash256Array(buf[:])
}

var (
	nilHash = HashAtom(nil)
	oneHash = HashAtom([]byte{1})
)

// TreeHash computes the sha256 tree hash of n.
func (a *Allocator) TreeHash(n NodePtr) TreeHash {
	type frame struct {
		node     NodePtr
		expanded bool
	}
	var (
		stack  = []frame{{node: n}}
		hashes []TreeHash
	)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.node.kind() {
		case prunedKind:
			h, _ := a.Pruned(f.node)
			hashes = append(hashes, h)
		case atomKind:
			switch f.node {
			case Nil:
				hashes = append(hashes, nilHash)
			case One:
				hashes = append(hashes, oneHash)
			default:
				hashes = append(hashes, HashAtom(a.Atom(f.node)))
			}
		default:
			if f.expanded {
				rest := hashes[len(hashes)-1]
				first := hashes[len(hashes)-2]
				hashes = hashes[:len(hashes)-2]
				hashes = append(hashes, HashPair(first, rest))
				continue
			}
			first, rest, _ := a.Pair(f.node)
			stack = append(stack, frame{node: f.node, expanded: true}, frame{node: rest}, frame{node: first})
		}
	}
	return hashes[0]
}

// TreeHashUint64 is the tree hash of an integer atom.
func TreeHashUint64(v uint64) TreeHash { return HashAtom(EncodeUint64(v)) }

// HashList returns the tree hash of a proper list whose items hash to items.
func HashList(items ...TreeHash) TreeHash {
	return HashListWithRest(nilHash, items...)
}

// HashListWithRest hashes items consed onto a tail that hashes to rest.
func HashListWithRest(rest TreeHash, items ...TreeHash) TreeHash {
	hash := rest
	for i := len(items) - 1; i >= 0; i-- {
		hash = HashPair(items[i], hash)
	}
	return hash
}

// NilHash is the tree hash of the empty atom.
func NilHash() TreeHash { return nilHash }
