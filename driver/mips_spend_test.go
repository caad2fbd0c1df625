// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/mips"
	"github.com/ava-labs/chiasdk/protocol"
)

// leafSpend is a spend of a quoted puzzle, distinct for each tag.
func leafSpend(ctx *SpendContext, tag byte) (Spend, clvm.TreeHash) {
	puzzle := ctx.Quote(ctx.List(ctx.NewAtom([]byte{tag})))
	return NewSpend(puzzle, clvm.Nil), ctx.TreeHash(puzzle)
}

func delegatedSpend(ctx *SpendContext) Spend {
	conds := conditions.Conditions{conditions.NewCreateCoin(bytes32(1), 1, nil)}
	return NewSpend(ctx.Quote(conds.ToClvm(ctx.Allocator)), clvm.Nil)
}

func TestMipsSingleMember(t *testing.T) {
	registerCore(t)
	ctx := NewSpendContext()

	leaf, leafHash := leafSpend(ctx, 1)
	custody, err := mips.MemberPuzzleHash(0, nil, leafHash, true)
	require.NoError(t, err)

	s := NewMipsSpend(delegatedSpend(ctx))
	s.Members[custody] = NewMemberSpend(0, nil, leaf)
	spend, err := s.Spend(ctx, custody)
	require.NoError(t, err)
	assert.Equal(t, custody, ctx.TreeHash(spend.Puzzle))

	_, err = s.Spend(ctx, clvm.TreeHash(bytes32(9)))
	assert.ErrorIs(t, err, ErrMissingSubpathSpend)
}

func TestMipsRestrictions(t *testing.T) {
	registerCore(t)
	assert := assert.New(t)
	ctx := NewSpendContext()

	leaf, leafHash := leafSpend(ctx, 1)
	memberCheck, memberCheckHash := leafSpend(ctx, 2)
	delegatedCheck, delegatedCheckHash := leafSpend(ctx, 3)
	wrapper, wrapperHash := leafSpend(ctx, 4)

	restrictions := []mips.Restriction{
		{Kind: mips.MemberCondition, PuzzleHash: protocol.Bytes32(memberCheckHash)},
		{Kind: mips.DelegatedPuzzleHash, PuzzleHash: protocol.Bytes32(delegatedCheckHash)},
		{Kind: mips.DelegatedPuzzleWrapper, PuzzleHash: protocol.Bytes32(wrapperHash)},
	}
	custody, err := mips.MemberPuzzleHash(3, restrictions, leafHash, true)
	require.NoError(t, err)

	s := NewMipsSpend(delegatedSpend(ctx))
	s.Members[custody] = NewMemberSpend(3, restrictions, leaf)
	s.Restrictions[memberCheckHash] = memberCheck
	s.Restrictions[delegatedCheckHash] = delegatedCheck

	_, err = s.Spend(ctx, custody)
	assert.ErrorIs(err, ErrMissingSubpathSpend)

	s.Restrictions[wrapperHash] = wrapper
	spend, err := s.Spend(ctx, custody)
	require.NoError(t, err)
	assert.Equal(custody, ctx.TreeHash(spend.Puzzle))
}

func TestMipsMissingRestriction(t *testing.T) {
	registerCore(t)
	ctx := NewSpendContext()

	leaf, leafHash := leafSpend(ctx, 1)
	restrictions := []mips.Restriction{{Kind: mips.MemberCondition, PuzzleHash: bytes32(8)}}
	custody, err := mips.MemberPuzzleHash(0, restrictions, leafHash, true)
	require.NoError(t, err)

	s := NewMipsSpend(delegatedSpend(ctx))
	s.Members[custody] = NewMemberSpend(0, restrictions, leaf)
	_, err = s.Spend(ctx, custody)
	require.ErrorIs(t, err, ErrMissingSubpathSpend)
}

func TestMipsThresholds(t *testing.T) {
	registerCore(t)

	tests := []struct {
		name     string
		required int
		members  int
		spent    []int
		err      error
	}{
		{name: "1 of 3", required: 1, members: 3, spent: []int{2}},
		{name: "2 of 2", required: 2, members: 2, spent: []int{0, 1}},
		{name: "2 of 3", required: 2, members: 3, spent: []int{0, 2}},
		{name: "3 of 5", required: 3, members: 5, spent: []int{1, 3, 4}},
		{name: "2 of 3 with one spend", required: 2, members: 3, spent: []int{1}, err: ErrInvalidSubpathSpendCount},
		{name: "2 of 2 with one spend", required: 2, members: 2, spent: []int{0}, err: ErrMissingSubpathSpend},
		{name: "4 of 3", required: 4, members: 3, spent: []int{0, 1, 2}, err: mips.ErrInvalidRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewSpendContext()
			s := NewMipsSpend(delegatedSpend(ctx))

			leaves := make([]Spend, tt.members)
			items := make([]clvm.TreeHash, tt.members)
			for i := range items {
				var leafHash clvm.TreeHash
				leaves[i], leafHash = leafSpend(ctx, byte(i+1))
				h, err := mips.MemberPuzzleHash(uint64(i), nil, leafHash, false)
				require.NoError(t, err)
				items[i] = h
			}
			for _, i := range tt.spent {
				s.Members[items[i]] = NewMemberSpend(uint64(i), nil, leaves[i])
			}

			custody := clvm.TreeHash(bytes32(0xcc))
			if tt.err == nil {
				threshold, err := mips.MofNHash(tt.required, items)
				require.NoError(t, err)
				custody, err = mips.MemberPuzzleHash(0, nil, threshold, true)
				require.NoError(t, err)
			}
			s.Members[custody] = NewMofNSpend(0, nil, tt.required, items)

			spend, err := s.Spend(ctx, custody)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, custody, ctx.TreeHash(spend.Puzzle))
		})
	}
}

func TestMipsWrapperConflict(t *testing.T) {
	registerCore(t)
	ctx := NewSpendContext()
	s := NewMipsSpend(delegatedSpend(ctx))

	first, firstHash := leafSpend(ctx, 1)
	second, secondHash := leafSpend(ctx, 2)
	wrapA, wrapAHash := leafSpend(ctx, 3)
	wrapB, wrapBHash := leafSpend(ctx, 4)
	s.Restrictions[wrapAHash] = wrapA
	s.Restrictions[wrapBHash] = wrapB

	ra := []mips.Restriction{{Kind: mips.DelegatedPuzzleWrapper, PuzzleHash: protocol.Bytes32(wrapAHash)}}
	rb := []mips.Restriction{{Kind: mips.DelegatedPuzzleWrapper, PuzzleHash: protocol.Bytes32(wrapBHash)}}
	a, err := mips.MemberPuzzleHash(0, ra, firstHash, false)
	require.NoError(t, err)
	b, err := mips.MemberPuzzleHash(1, rb, secondHash, false)
	require.NoError(t, err)
	s.Members[a] = NewMemberSpend(0, ra, first)
	s.Members[b] = NewMemberSpend(1, rb, second)

	custody := clvm.TreeHash(bytes32(0xdd))
	s.Members[custody] = NewMofNSpend(0, nil, 2, []clvm.TreeHash{a, b})
	_, err = s.Spend(ctx, custody)
	require.ErrorIs(t, err, ErrDelegatedWrapperConflict)
}

func TestSingletonMemberSpend(t *testing.T) {
	registerCore(t)
	ctx := NewSpendContext()

	spend, err := SingletonMemberSpend(ctx, bytes32(1), bytes32(2), 1)
	require.NoError(t, err)
	h, err := mips.SingletonMemberHash(bytes32(1))
	require.NoError(t, err)
	require.Equal(t, h, ctx.TreeHash(spend.Puzzle))
}
