// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/mips"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// MemberSpend is one node of a MIPS tree. It is either a leaf, spent with
// Leaf, or a threshold over other members.
type MemberSpend struct {
	Nonce        uint64
	Restrictions []mips.Restriction
	Leaf         *Spend
	MofN         *mips.MofN
}

// NewMemberSpend is a leaf member.
func NewMemberSpend(nonce uint64, restrictions []mips.Restriction, spend Spend) MemberSpend {
	return MemberSpend{Nonce: nonce, Restrictions: restrictions, Leaf: &spend}
}

// NewMofNSpend is a threshold member. The spends of the chosen members are
// looked up by puzzle hash.
func NewMofNSpend(nonce uint64, restrictions []mips.Restriction, required int, items []clvm.TreeHash) MemberSpend {
	return MemberSpend{Nonce: nonce, Restrictions: restrictions, MofN: &mips.MofN{Required: required, Items: items}}
}

// MipsSpend collects the spends needed to satisfy a MIPS tree with one
// delegated puzzle.
type MipsSpend struct {
	Delegated    Spend
	Members      map[clvm.TreeHash]MemberSpend
	Restrictions map[clvm.TreeHash]Spend
}

func NewMipsSpend(delegated Spend) *MipsSpend {
	return &MipsSpend{
		Delegated:    delegated,
		Members:      make(map[clvm.TreeHash]MemberSpend),
		Restrictions: make(map[clvm.TreeHash]Spend),
	}
}

// Spend builds the spend of the top level member custodyHash.
func (s *MipsSpend) Spend(ctx *SpendContext, custodyHash clvm.TreeHash) (Spend, error) {
	member, ok := s.Members[custodyHash]
	if !ok {
		return Spend{}, fmt.Errorf("%w: %s", ErrMissingSubpathSpend, custodyHash)
	}
	var wrappers []clvm.TreeHash
	return member.spend(ctx, s, &wrappers, true)
}

func (m MemberSpend) spend(ctx *SpendContext, s *MipsSpend, wrappers *[]clvm.TreeHash, topLevel bool) (Spend, error) {
	var (
		result Spend
		err    error
	)
	switch {
	case m.Leaf != nil:
		result = *m.Leaf
	case m.MofN != nil:
		result, err = s.mofn(ctx, *m.MofN, wrappers)
	default:
		err = fmt.Errorf("%w: empty member", ErrMissingSubpathSpend)
	}
	if err != nil {
		return Spend{}, err
	}

	if len(m.Restrictions) > 0 {
		result, err = s.restrict(ctx, m.Restrictions, result, wrappers)
		if err != nil {
			return Spend{}, err
		}
	}

	if topLevel {
		result, err = s.feed(ctx, result, *wrappers)
		if err != nil {
			return Spend{}, err
		}
	}

	puzzle, err := ctx.Curry(puzzles.IndexWrapper, ctx.NewUint64(m.Nonce), result.Puzzle)
	if err != nil {
		return Spend{}, err
	}
	return NewSpend(puzzle, result.Solution), nil
}

func (s *MipsSpend) restrict(ctx *SpendContext, restrictions []mips.Restriction, inner Spend, wrappers *[]clvm.TreeHash) (Spend, error) {
	var (
		memberValidators, memberSolutions       []clvm.NodePtr
		delegatedValidators, delegatedSolutions []clvm.NodePtr
		local                                   []clvm.TreeHash
	)
	for _, r := range restrictions {
		if r.Kind == mips.DelegatedPuzzleWrapper {
			local = append(local, clvm.TreeHash(r.PuzzleHash))
			continue
		}
		spend, ok := s.Restrictions[clvm.TreeHash(r.PuzzleHash)]
		if !ok {
			return Spend{}, fmt.Errorf("%w: restriction %s", ErrMissingSubpathSpend, r.PuzzleHash)
		}
		if r.Kind == mips.MemberCondition {
			memberValidators = append(memberValidators, spend.Puzzle)
			memberSolutions = append(memberSolutions, spend.Solution)
		} else {
			delegatedValidators = append(delegatedValidators, spend.Puzzle)
			delegatedSolutions = append(delegatedSolutions, spend.Solution)
		}
	}

	// Every path through the tree must agree on the wrapper stack.
	for i, wrapper := range local {
		switch {
		case i >= len(*wrappers):
			*wrappers = append(*wrappers, wrapper)
		case (*wrappers)[i] != wrapper:
			return Spend{}, ErrDelegatedWrapperConflict
		}
	}

	if len(local) > 0 {
		enforce, err := s.enforceWrappers(ctx, local)
		if err != nil {
			return Spend{}, err
		}
		delegatedHash := ctx.TreeHash(s.Delegated.Puzzle)
		delegatedValidators = append(delegatedValidators, enforce)
		delegatedSolutions = append(delegatedSolutions, ctx.List(ctx.NewTreeHash(delegatedHash)))
	}

	puzzle, err := ctx.Curry(
		puzzles.Restrictions,
		ctx.List(memberValidators...),
		ctx.List(delegatedValidators...),
		inner.Puzzle,
	)
	if err != nil {
		return Spend{}, err
	}
	solution := ctx.List(ctx.List(memberSolutions...), ctx.List(delegatedSolutions...), inner.Solution)
	return NewSpend(puzzle, solution), nil
}

func (s *MipsSpend) enforceWrappers(ctx *SpendContext, wrappers []clvm.TreeHash) (clvm.NodePtr, error) {
	quoted, err := mips.QuotedAddWrapperHash()
	if err != nil {
		return clvm.Nil, err
	}
	stack := make([]clvm.NodePtr, len(wrappers))
	for i, w := range wrappers {
		stack[i] = ctx.NewTreeHash(w)
	}
	return ctx.Curry(puzzles.EnforceDelegatedPuzzleWrappers, ctx.NewTreeHash(quoted), ctx.List(stack...))
}

// feed wraps the top level member with the delegated feeder, which runs the
// delegated puzzle inside every wrapper on the stack.
func (s *MipsSpend) feed(ctx *SpendContext, inner Spend, wrappers []clvm.TreeHash) (Spend, error) {
	puzzle, err := ctx.Curry(puzzles.DelegatedFeeder, inner.Puzzle)
	if err != nil {
		return Spend{}, err
	}

	delegated := s.Delegated
	for i := len(wrappers) - 1; i >= 0; i-- {
		wrapper, ok := s.Restrictions[wrappers[i]]
		if !ok {
			return Spend{}, fmt.Errorf("%w: wrapper %s", ErrMissingSubpathSpend, wrappers[i])
		}
		wrapped, err := ctx.Curry(puzzles.AddDelegatedPuzzleWrapper, wrapper.Puzzle, delegated.Puzzle)
		if err != nil {
			return Spend{}, err
		}
		delegated = NewSpend(wrapped, ctx.List(wrapper.Solution, delegated.Solution))
	}

	solution := ctx.NewPair(delegated.Puzzle, ctx.NewPair(delegated.Solution, inner.Solution))
	return NewSpend(puzzle, solution), nil
}

func (s *MipsSpend) mofn(ctx *SpendContext, m mips.MofN, wrappers *[]clvm.TreeHash) (Spend, error) {
	if err := m.Verify(); err != nil {
		return Spend{}, err
	}

	switch {
	case m.IsOneOfN():
		for _, item := range m.Items {
			member, ok := s.Members[item]
			if !ok {
				continue
			}
			spend, err := member.spend(ctx, s, wrappers, false)
			if err != nil {
				return Spend{}, err
			}
			tree := m.MerkleTree()
			proof, ok := tree.Proof(protocol.Bytes32(item))
			if !ok {
				return Spend{}, ErrInvalidMerkleProof
			}
			puzzle, err := ctx.Curry(puzzles.OneOfN, ctx.NewBytes32(tree.Root()))
			if err != nil {
				return Spend{}, err
			}
			return NewSpend(puzzle, ctx.List(proof.ToClvm(ctx.Allocator), spend.Puzzle, spend.Solution)), nil
		}
		return Spend{}, ErrMissingSubpathSpend

	case m.IsNOfN():
		puzzleList := make([]clvm.NodePtr, 0, len(m.Items))
		solutions := make([]clvm.NodePtr, 0, len(m.Items))
		for _, item := range m.Items {
			member, ok := s.Members[item]
			if !ok {
				return Spend{}, fmt.Errorf("%w: %s", ErrMissingSubpathSpend, item)
			}
			spend, err := member.spend(ctx, s, wrappers, false)
			if err != nil {
				return Spend{}, err
			}
			puzzleList = append(puzzleList, spend.Puzzle)
			solutions = append(solutions, spend.Solution)
		}
		puzzle, err := ctx.Curry(puzzles.NOfN, ctx.List(puzzleList...))
		if err != nil {
			return Spend{}, err
		}
		return NewSpend(puzzle, ctx.List(ctx.List(solutions...))), nil

	default:
		spends := make(map[clvm.TreeHash]Spend)
		for _, item := range m.Items {
			member, ok := s.Members[item]
			if !ok {
				continue
			}
			spend, err := member.spend(ctx, s, wrappers, false)
			if err != nil {
				return Spend{}, err
			}
			spends[item] = spend
		}
		if len(spends) < m.Required {
			return Spend{}, fmt.Errorf("%w: %d of %d", ErrInvalidSubpathSpendCount, len(spends), m.Required)
		}
		puzzle, err := ctx.Curry(puzzles.MOfN, ctx.NewUint64(uint64(m.Required)), ctx.NewBytes32(m.MerkleTree().Root()))
		if err != nil {
			return Spend{}, err
		}
		proof := mofnProof(ctx, m.Items, spends)
		return NewSpend(puzzle, ctx.List(proof)), nil
	}
}

// mofnProof reveals the spent members of an m-of-N tree and hashes the rest.
// Subtrees without a revealed member collapse into their merkle hash.
func mofnProof(ctx *SpendContext, items []clvm.TreeHash, spends map[clvm.TreeHash]Spend) clvm.NodePtr {
	if len(items) == 1 {
		if spend, ok := spends[items[0]]; ok {
			return ctx.NewPair(clvm.Nil, ctx.NewPair(spend.Puzzle, spend.Solution))
		}
		leaf := clvm.HashAtom(items[0][:])
		return ctx.NewTreeHash(leaf)
	}

	mid := mips.SplitIndex(len(items))
	first := mofnProof(ctx, items[:mid], spends)
	rest := mofnProof(ctx, items[mid:], spends)
	if ctx.IsPair(first) || ctx.IsPair(rest) {
		return ctx.NewPair(first, rest)
	}
	var firstHash, restHash clvm.TreeHash
	copy(firstHash[:], ctx.Atom(first))
	copy(restHash[:], ctx.Atom(rest))
	pair := clvm.HashPair(firstHash, restHash)
	return ctx.NewTreeHash(pair)
}

// SingletonMemberSpend satisfies a singleton member with a spend of the
// singleton whose inner puzzle hash and amount are given.
func SingletonMemberSpend(ctx *SpendContext, launcherID, singletonInnerPuzzleHash protocol.Bytes32, singletonAmount uint64) (Spend, error) {
	puzzle, err := ctx.Curry(puzzles.SingletonMember, singletonStruct(ctx, launcherID))
	if err != nil {
		return Spend{}, err
	}
	return NewSpend(puzzle, ctx.List(ctx.NewBytes32(singletonInnerPuzzleHash), ctx.NewUint64(singletonAmount))), nil
}

// P2OneOfManyLayer locks a coin to any puzzle in a merkle tree.
type P2OneOfManyLayer struct {
	MerkleRoot protocol.Bytes32
}

// P2OneOfManySolution reveals one puzzle of the tree.
type P2OneOfManySolution struct {
	Proof    puzzles.MerkleProof
	Puzzle   clvm.NodePtr
	Solution clvm.NodePtr
}

func (l *P2OneOfManyLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	return ctx.Curry(puzzles.P2OneOfMany, ctx.NewBytes32(l.MerkleRoot))
}

// TreeHash returns the zero hash when the template is not registered.
func (l *P2OneOfManyLayer) TreeHash() clvm.TreeHash {
	h, _ := mips.P2OneOfManyHash(l.MerkleRoot)
	return h
}

func (*P2OneOfManyLayer) ConstructSolution(ctx *SpendContext, s P2OneOfManySolution) clvm.NodePtr {
	return ctx.List(s.Proof.ToClvm(ctx.Allocator), s.Puzzle, s.Solution)
}

// ConstructSpend allocates both the puzzle and the solution.
func (l *P2OneOfManyLayer) ConstructSpend(ctx *SpendContext, s P2OneOfManySolution) (Spend, error) {
	puzzle, err := l.ConstructPuzzle(ctx)
	if err != nil {
		return Spend{}, err
	}
	return NewSpend(puzzle, l.ConstructSolution(ctx, s)), nil
}

// ParseP2OneOfManyLayer returns nil when the template is not registered.
func ParseP2OneOfManyLayer(a *clvm.Allocator, p Puzzle) (*P2OneOfManyLayer, error) {
	modHash, ok := registeredHash(puzzles.P2OneOfMany)
	if !ok || !p.Is(modHash, 1) {
		return nil, nil
	}
	root, err := bytes32Arg(a, p.Args[0], "merkle root")
	if err != nil {
		return nil, err
	}
	return &P2OneOfManyLayer{MerkleRoot: root}, nil
}
