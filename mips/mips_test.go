// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// fakeReveal is a serialized atom holding name, which gives every template
// a distinct hash.
func fakeReveal(name string) []byte {
	return append([]byte{0x80 | byte(len(name))}, name...)
}

func registerCore(t *testing.T) {
	reveals := make(map[string][]byte, len(CoreMods))
	for _, name := range CoreMods {
		reveals[name] = fakeReveal(name)
	}
	require.NoError(t, RegisterCore(reveals))
}

func modHash(t *testing.T, name string) clvm.TreeHash {
	h, err := puzzles.Hash(name)
	require.NoError(t, err)
	return h
}

func hash32(b byte) clvm.TreeHash {
	var h clvm.TreeHash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestRegisterCore(t *testing.T) {
	registerCore(t)

	h := modHash(t, puzzles.IndexWrapper)
	assert.Equal(t, clvm.HashAtom([]byte(puzzles.IndexWrapper)), h)

	err := RegisterCore(map[string][]byte{puzzles.Standard: fakeReveal("x")})
	assert.ErrorIs(t, err, ErrUnknownCoreMod)
}

func TestMemberPuzzleHash(t *testing.T) {
	registerCore(t)
	assert := assert.New(t)

	inner := hash32(7)
	index := modHash(t, puzzles.IndexWrapper)

	got, err := MemberPuzzleHash(0, nil, inner, false)
	require.NoError(t, err)
	assert.Equal(clvm.CurryTreeHash(index, clvm.TreeHashUint64(0), inner), got)

	got, err = MemberPuzzleHash(3, nil, inner, true)
	require.NoError(t, err)
	assert.Equal(clvm.CurryTreeHash(index, clvm.TreeHashUint64(3), puzzles.DelegatedFeederPuzzleHash(inner)), got)
}

func TestMemberPuzzleHashRestrictions(t *testing.T) {
	registerCore(t)
	assert := assert.New(t)

	inner := hash32(7)
	member := Restriction{Kind: MemberCondition, PuzzleHash: protocol.Bytes32(hash32(1))}
	delegated := Restriction{Kind: DelegatedPuzzleHash, PuzzleHash: protocol.Bytes32(hash32(2))}
	wrapper := Restriction{Kind: DelegatedPuzzleWrapper, PuzzleHash: protocol.Bytes32(hash32(3))}

	enforce, err := EnforceDelegatedPuzzleWrappersHash([]clvm.TreeHash{hash32(3)})
	require.NoError(t, err)
	restricted := puzzles.RestrictionsPuzzleHash(
		[]clvm.TreeHash{hash32(1)},
		[]clvm.TreeHash{hash32(2), enforce},
		inner,
	)
	want, err := IndexWrapperHash(0, restricted)
	require.NoError(t, err)

	// Wrappers land after the other delegated puzzle validators no matter
	// where they appear in the input.
	got, err := MemberPuzzleHash(0, []Restriction{wrapper, member, delegated}, inner, false)
	require.NoError(t, err)
	assert.Equal(want, got)

	got, err = MemberPuzzleHash(0, []Restriction{member, delegated, wrapper}, inner, false)
	require.NoError(t, err)
	assert.Equal(want, got)
}

func TestMemberConditionOrderMatters(t *testing.T) {
	registerCore(t)

	inner := hash32(7)
	first := Restriction{Kind: MemberCondition, PuzzleHash: protocol.Bytes32(hash32(1))}
	second := Restriction{Kind: MemberCondition, PuzzleHash: protocol.Bytes32(hash32(2))}

	a, err := MemberPuzzleHash(0, []Restriction{first, second}, inner, true)
	require.NoError(t, err)
	b, err := MemberPuzzleHash(0, []Restriction{second, first}, inner, true)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMofNPuzzleHash(t *testing.T) {
	registerCore(t)
	assert := assert.New(t)

	items := []clvm.TreeHash{hash32(1), hash32(2), hash32(3)}
	leaves := []protocol.Bytes32{protocol.Bytes32(hash32(1)), protocol.Bytes32(hash32(2)), protocol.Bytes32(hash32(3))}
	root := puzzles.NewMerkleTree(leaves).Root()

	one, err := MofNHash(1, items)
	require.NoError(t, err)
	assert.Equal(clvm.CurryTreeHash(modHash(t, puzzles.OneOfN), clvm.HashAtom(root[:])), one)

	all, err := MofNHash(3, items)
	require.NoError(t, err)
	assert.Equal(clvm.CurryTreeHash(modHash(t, puzzles.NOfN), clvm.HashList(items...)), all)

	two, err := MofNHash(2, items)
	require.NoError(t, err)
	assert.Equal(clvm.CurryTreeHash(modHash(t, puzzles.MOfN), clvm.TreeHashUint64(2), clvm.HashAtom(root[:])), two)

	// A single member is 1-of-1, not N-of-N.
	single, err := MofNHash(1, items[:1])
	require.NoError(t, err)
	assert.True(MofN{Required: 1, Items: items[:1]}.IsOneOfN())
	assert.False(MofN{Required: 1, Items: items[:1]}.IsNOfN())
	assert.NotEqual(clvm.TreeHash{}, single)

	_, err = MofNHash(0, items)
	assert.ErrorIs(err, ErrInvalidRequired)
	_, err = MofNHash(4, items)
	assert.ErrorIs(err, ErrInvalidRequired)
}

func TestSplitIndex(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{n: 2, want: 1},
		{n: 3, want: 2},
		{n: 4, want: 2},
		{n: 5, want: 3},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, SplitIndex(test.n), "n=%d", test.n)
	}
}

func TestRestrictionKindText(t *testing.T) {
	for _, k := range []RestrictionKind{MemberCondition, DelegatedPuzzleHash, DelegatedPuzzleWrapper} {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var got RestrictionKind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}
	var k RestrictionKind
	assert.Error(t, k.UnmarshalText([]byte("nope")))
}
