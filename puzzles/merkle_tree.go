// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package puzzles

import (
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
)

const (
	merkleLeafPrefix = 1
	merkleTreePrefix = 2
)

// MerkleProof locates a leaf in a MerkleTree. Bit i of Path is set when
// Proof[i], counted from the leaf upwards, is a left sibling.
type MerkleProof struct {
	Path  uint32
	Proof []protocol.Bytes32
}

// ToClvm allocates (path . proof).
func (p MerkleProof) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	hashes := make([]clvm.NodePtr, len(p.Proof))
	for i, h := range p.Proof {
		hashes[i] = a.NewAtom(h[:])
	}
	return a.NewPair(a.NewUint64(uint64(p.Path)), a.List(hashes...))
}

// MerkleTree is built once from its leaves and answers proofs afterwards. It
// matches the proof format of the 1-of-N puzzles.
type MerkleTree struct {
	root   protocol.Bytes32
	proofs map[protocol.Bytes32]MerkleProof
}

// NewMerkleTree builds a tree over leaves. An empty tree has a zero root.
func NewMerkleTree(leaves []protocol.Bytes32) *MerkleTree {
	t := &MerkleTree{proofs: make(map[protocol.Bytes32]MerkleProof)}
	if len(leaves) == 0 {
		return t
	}
	t.root = t.build(leaves)
	return t
}

// Root returns the root hash.
func (t *MerkleTree) Root() protocol.Bytes32 { return t.root }

// Proof returns the proof of leaf, if it is in the tree.
func (t *MerkleTree) Proof(leaf protocol.Bytes32) (MerkleProof, bool) {
	p, ok := t.proofs[leaf]
	return p, ok
}

func (t *MerkleTree) build(leaves []protocol.Bytes32) protocol.Bytes32 {
	root, proofs := buildSubtree(leaves)
	for leaf, proof := range proofs {
		t.proofs[leaf] = proof
	}
	return root
}

func buildSubtree(leaves []protocol.Bytes32) (protocol.Bytes32, map[protocol.Bytes32]MerkleProof) {
	if len(leaves) == 1 {
		leaf := leaves[0]
		buf := make([]byte, 0, 33)
		buf = append(buf, merkleLeafPrefix)
		buf = append(buf, leaf[:]...)
		return hashing.ComputeHash256Array(buf), map[protocol.Bytes32]MerkleProof{leaf: {}}
	}

	mid := (len(leaves) + 1) >> 1
	leftRoot, leftProofs := buildSubtree(leaves[:mid])
	rightRoot, rightProofs := buildSubtree(leaves[mid:])

	buf := make([]byte, 0, 65)
	buf = append(buf, merkleTreePrefix)
	buf = append(buf, leftRoot[:]...)
	buf = append(buf, rightRoot[:]...)
	root := hashing.ComputeHash256Array(buf)

	proofs := make(map[protocol.Bytes32]MerkleProof, len(leftProofs)+len(rightProofs))
	for leaf, p := range leftProofs {
		proofs[leaf] = MerkleProof{Path: p.Path, Proof: append(p.Proof, rightRoot)}
	}
	for leaf, p := range rightProofs {
		proofs[leaf] = MerkleProof{Path: p.Path | 1<<len(p.Proof), Proof: append(p.Proof, leftRoot)}
	}
	return root, proofs
}
