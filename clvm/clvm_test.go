// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestTreeHashAtoms(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	assert.Equal("4bf5122f344554c53bde2ebb8cd2b7e3d1600ad631c385a5d7cce23c7785459a", a.TreeHash(Nil).String())
	assert.Equal("9dcf97a184f32623d11a73124ceb99a5709b083721e878a16d78f596718ba7b2", a.TreeHash(One).String())
	assert.Equal(a.TreeHash(One), a.TreeHash(a.NewAtom([]byte{1})))
}

func TestSerializeList(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	list := a.List(a.NewUint64(1), a.NewUint64(2), a.NewUint64(3))
	b, err := a.Serialize(list)
	assert.NoError(err)
	assert.Equal("ff01ff02ff0380", hex.EncodeToString(b))
	assert.Equal("bcd55bcd0daebba8cb158547e8480dc968570faf958f1e31a9887d6ae3dba591", a.TreeHash(list).String())

	parsed, err := a.Deserialize(b)
	assert.NoError(err)
	assert.True(a.Equal(list, parsed))

	n, err := SerializedLength(append(b, 0x80, 0x80))
	assert.NoError(err)
	assert.Equal(len(b), n)
}

func TestSerializeLongAtom(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	atom := a.NewAtom(bytes.Repeat([]byte{7}, 100))
	b, err := a.Serialize(atom)
	assert.NoError(err)
	assert.Equal([]byte{0xc0, 0x64, 0x07}, b[:3])
	assert.Len(b, 102)
	assert.Equal("d0eadf610e70004fd3998e195a02d1a033ddf49710ebefa9d9d04980be86cb93", a.TreeHash(atom).String())

	parsed, err := a.Deserialize(b)
	assert.NoError(err)
	assert.Equal(a.Atom(atom), a.Atom(parsed))
}

func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{name: "empty", input: "", err: ErrUnexpectedEOF},
		{name: "unterminated pair", input: "ff01", err: ErrUnexpectedEOF},
		{name: "short atom", input: "8301", err: ErrUnexpectedEOF},
		{name: "trailing bytes", input: "0101", err: ErrTrailingBytes},
		{name: "bad backref", input: "ff01fe04", err: ErrInvalidBackref},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a := NewAllocator()
			_, err := a.Deserialize(mustHex(t, test.input))
			assert.ErrorIs(t, err, test.err)
		})
	}
}

func TestDeserializeBackref(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	n, err := a.Deserialize(mustHex(t, "ff86666f6f626172fe02"))
	assert.NoError(err)
	first, rest, ok := a.Pair(n)
	assert.True(ok)
	assert.Equal([]byte("foobar"), a.Atom(first))
	assert.Equal([]byte("foobar"), a.Atom(rest))

	length, err := SerializedLength(mustHex(t, "ff86666f6f626172fe02"))
	assert.NoError(err)
	assert.Equal(10, length)
}

func TestPrunedNodes(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	list := a.List(a.NewUint64(1), a.NewUint64(2), a.NewUint64(3))
	pruned := a.NewPruned(a.TreeHash(list))
	wrapped := a.NewPair(pruned, Nil)

	assert.Equal(a.TreeHash(a.NewPair(list, Nil)), a.TreeHash(wrapped))
	assert.True(a.Equal(list, pruned))

	_, err := a.Serialize(wrapped)
	assert.ErrorIs(err, ErrMissingModReveal)

	other := NewAllocator()
	copied := other.Copy(a, wrapped)
	assert.Equal(a.TreeHash(wrapped), other.TreeHash(copied))
}

func TestCurry(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	mod, err := a.Deserialize(mustHex(t, "ff02ff05ff0780"))
	require.NoError(t, err)
	arg1 := a.NewUint64(100)
	arg2 := a.List(One, a.NewUint64(2))

	curried := a.Curry(mod, arg1, arg2)
	b, err := a.Serialize(curried)
	assert.NoError(err)
	assert.Equal("ff02ffff01ff02ff05ff0780ffff04ffff0164ffff04ffff01ff01ff0280ff01808080", hex.EncodeToString(b))

	expected := "4c4f85e5257ad22a2a9f3f6d829e5efef03571a157f02c39f4f4454e6e15fd95"
	assert.Equal(expected, a.TreeHash(curried).String())
	assert.Equal(expected, CurryTreeHash(a.TreeHash(mod), a.TreeHash(arg1), a.TreeHash(arg2)).String())

	gotMod, args, err := a.Uncurry(curried)
	assert.NoError(err)
	assert.True(a.Equal(mod, gotMod))
	assert.Len(args, 2)
	assert.True(a.Equal(arg1, args[0]))
	assert.True(a.Equal(arg2, args[1]))

	_, _, err = a.Uncurry(mod)
	assert.ErrorIs(err, ErrNotCurried)
}

func TestCurryNoArgs(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	mod := a.NewAtom([]byte("mod"))
	curried := a.Curry(mod)
	assert.Equal(a.TreeHash(curried), CurryTreeHash(a.TreeHash(mod)))

	gotMod, args, err := a.Uncurry(curried)
	assert.NoError(err)
	assert.True(a.Equal(mod, gotMod))
	assert.Empty(args)
}

func TestIntegerEncoding(t *testing.T) {
	tests := []struct {
		value    int64
		expected string
	}{
		{value: 0, expected: ""},
		{value: 1, expected: "01"},
		{value: 127, expected: "7f"},
		{value: 128, expected: "0080"},
		{value: 255, expected: "00ff"},
		{value: 256, expected: "0100"},
		{value: -1, expected: "ff"},
		{value: -113, expected: "8f"},
		{value: -128, expected: "80"},
		{value: -129, expected: "ff7f"},
		{value: -256, expected: "ff00"},
	}
	for _, test := range tests {
		encoded := EncodeInt64(test.value)
		assert.Equal(t, test.expected, hex.EncodeToString(encoded), "encoding %d", test.value)
		assert.Equal(t, test.value, DecodeBigInt(encoded).Int64(), "decoding %d", test.value)
	}
}

func TestUint64Encoding(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(EncodeUint64(0))
	assert.Equal([]byte{0x00, 0x80}, EncodeUint64(0x80))
	assert.Equal("00ffffffffffffffff", hex.EncodeToString(EncodeUint64(^uint64(0))))

	v, err := DecodeUint64(EncodeUint64(^uint64(0)))
	assert.NoError(err)
	assert.Equal(^uint64(0), v)

	_, err = DecodeUint64([]byte{0xff})
	assert.ErrorIs(err, ErrNegativeInteger)

	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	_, err = DecodeUint64(EncodeBigInt(huge))
	assert.ErrorIs(err, ErrIntegerOverflow)
}

func TestListItems(t *testing.T) {
	assert := assert.New(t)
	a := NewAllocator()

	items, err := a.ListItems(a.List(One, Nil, One))
	assert.NoError(err)
	assert.Len(items, 3)

	_, err = a.ListItems(a.NewPair(One, One))
	assert.ErrorIs(err, ErrExpectedNilTerminator)

	_, err = a.First(One)
	assert.ErrorIs(err, ErrExpectedPair)
}
