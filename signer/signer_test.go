// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

func bytes32(b byte) protocol.Bytes32 {
	var out protocol.Bytes32
	for i := range out {
		out[i] = b
	}
	return out
}

func testKey(b byte) protocol.Bytes48 {
	var out protocol.Bytes48
	out[0] = 0xa0 | b
	for i := 1; i < len(out); i++ {
		out[i] = b
	}
	return out
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestRequiredSignatureKinds(t *testing.T) {
	coin := protocol.NewCoin(bytes32(1), bytes32(2), 3)
	constants := NewAggSigConstants(bytes32(4))
	coinID := coin.ID()

	tests := []struct {
		name     string
		kind     int
		appended []byte
		domain   string
	}{
		{
			name:     "me",
			kind:     conditions.OpAggSigMe,
			appended: coinID[:],
			domain:   hex.EncodeToString(repeat(4, 32)),
		},
		{
			name:     "parent",
			kind:     conditions.OpAggSigParent,
			appended: repeat(1, 32),
			domain:   "e30fe176cb4a03044620b0644b5570d8e11f9e144bea1ad63e98c94f0a8ba104",
		},
		{
			name:     "puzzle",
			kind:     conditions.OpAggSigPuzzle,
			appended: repeat(2, 32),
			domain:   "56753940d4d262c6f36619c9f02a81e249788f3e1e7e5c5d51efef7def915d3b",
		},
		{
			name:     "parent puzzle",
			kind:     conditions.OpAggSigParentPuzzle,
			appended: append(repeat(1, 32), repeat(2, 32)...),
			domain:   "8374c0de21a2ee2394dda1aba8705617bb9bce71d7c483e9b5c7c883c4f5d7cb",
		},
		{
			name:     "amount",
			kind:     conditions.OpAggSigAmount,
			appended: []byte{3},
			domain:   "4adba988ab536948864fb63ed13c779a16cc00a93b50a11ebf55985f586f05b9",
		},
		{
			name:     "puzzle amount",
			kind:     conditions.OpAggSigPuzzleAmount,
			appended: append(repeat(2, 32), 3),
			domain:   "06f2ea8543ec16347ca452086d4c5ef12e0240f1e6ed6233f961ea8eb612becb",
		},
		{
			name:     "parent amount",
			kind:     conditions.OpAggSigParentAmount,
			appended: append(repeat(1, 32), 3),
			domain:   "1e09a530a1f9fc586044116b300c0a90efa787ebcf0d6f221bbd1306f1a37a8c",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			cond := conditions.AggSig{Kind: test.kind, PublicKey: testKey(1), Message: []byte{1, 2, 3}}

			required, err := FromCondition(coin, cond, constants)
			require.NoError(t, err)
			assert.Equal(testKey(1), required.PublicKey)
			assert.Equal([]byte{1, 2, 3}, required.RawMessage)
			assert.Equal(test.appended, required.AppendedInfo)
			require.NotNil(t, required.DomainString)
			assert.Equal(test.domain, hex.EncodeToString(required.DomainString[:]))

			message := append([]byte{1, 2, 3}, test.appended...)
			message = append(message, required.DomainString[:]...)
			assert.Equal(message, required.Message())
		})
	}
}

func TestRequiredSignatureUnsafe(t *testing.T) {
	assert := assert.New(t)
	coin := protocol.NewCoin(bytes32(1), bytes32(2), 3)
	cond := conditions.AggSig{Kind: conditions.OpAggSigUnsafe, PublicKey: testKey(1), Message: []byte{1, 2, 3}}

	required, err := FromCondition(coin, cond, NewAggSigConstants(bytes32(4)))
	require.NoError(t, err)
	assert.Nil(required.AppendedInfo)
	assert.Nil(required.DomainString)
	assert.Equal([]byte{1, 2, 3}, required.Message())
}

func TestRequiredSignatureUnknownKind(t *testing.T) {
	coin := protocol.NewCoin(bytes32(1), bytes32(2), 3)
	cond := conditions.AggSig{Kind: 99, PublicKey: testKey(1)}
	_, err := FromCondition(coin, cond, NewAggSigConstants(bytes32(4)))
	assert.ErrorIs(t, err, ErrUnknownAggSigKind)
}

func TestConstantsForNetwork(t *testing.T) {
	constants := ConstantsForNetwork(protocol.MainnetConstants)
	assert.Equal(t, protocol.MainnetConstants.AggSigMe, constants.Me)
	assert.NotEqual(t, constants.Parent, constants.Puzzle)
}

func standardSpends(t *testing.T, key protocol.Bytes48, conds conditions.Conditions) (protocol.Coin, []protocol.CoinSpend) {
	ctx := driver.NewSpendContext()
	p2 := driver.NewStandardLayer(key)
	coin := protocol.NewCoin(bytes32(1), protocol.Bytes32(p2.TreeHash()), 100)
	require.NoError(t, p2.Spend(ctx, coin, conds))
	spends, err := ctx.Take()
	require.NoError(t, err)
	require.Len(t, spends, 1)
	return coin, spends
}

func TestFromCoinSpends(t *testing.T) {
	assert := assert.New(t)

	conds := conditions.Conditions{
		conditions.NewCreateCoin(bytes32(9), 100, nil),
		conditions.AggSig{Kind: conditions.OpAggSigParent, PublicKey: testKey(2), Message: []byte("hi")},
	}
	coin, spends := standardSpends(t, testKey(1), conds)
	constants := NewAggSigConstants(bytes32(4))

	required, err := FromCoinSpends(driver.NewSpendContext(), spends, constants)
	require.NoError(t, err)
	require.Len(t, required, 2)

	coinID := coin.ID()
	assert.Equal(testKey(1), required[0].PublicKey)
	assert.Len(required[0].RawMessage, 32)
	assert.Equal(coinID[:], required[0].AppendedInfo)
	assert.Equal(constants.Me, *required[0].DomainString)

	assert.Equal(testKey(2), required[1].PublicKey)
	assert.Equal([]byte("hi"), required[1].RawMessage)
	assert.Equal(constants.Parent, *required[1].DomainString)
}

func TestFromCoinSpendsInfinityKey(t *testing.T) {
	conds := conditions.Conditions{
		conditions.AggSig{Kind: conditions.OpAggSigUnsafe, PublicKey: protocol.InfinityG1, Message: []byte("hi")},
	}
	_, spends := standardSpends(t, testKey(1), conds)
	_, err := FromCoinSpends(driver.NewSpendContext(), spends, NewAggSigConstants(bytes32(4)))
	assert.ErrorIs(t, err, ErrInfinityPublicKey)
}

type testSigner struct {
	signed [][]byte
	err    error
}

func (s *testSigner) Sign(publicKey protocol.Bytes48, message []byte) (protocol.Bytes96, error) {
	if s.err != nil {
		return protocol.Bytes96{}, s.err
	}
	s.signed = append(s.signed, message)
	var sig protocol.Bytes96
	copy(sig[:], publicKey[:])
	sig[95] = byte(len(s.signed))
	return sig, nil
}

type xorAggregator struct{}

func (xorAggregator) Aggregate(signatures ...protocol.Bytes96) (protocol.Bytes96, error) {
	var out protocol.Bytes96
	for _, sig := range signatures {
		for i := range out {
			out[i] ^= sig[i]
		}
	}
	return out, nil
}

func TestSignBundle(t *testing.T) {
	assert := assert.New(t)

	conds := conditions.Conditions{
		conditions.AggSig{Kind: conditions.OpAggSigUnsafe, PublicKey: testKey(2), Message: []byte("hi")},
	}
	_, spends := standardSpends(t, testKey(1), conds)
	s := &testSigner{}

	bundle, err := SignBundle(driver.NewSpendContext(), spends, NewAggSigConstants(bytes32(4)), s, xorAggregator{})
	require.NoError(t, err)
	assert.Equal(spends, bundle.CoinSpends)
	require.Len(t, s.signed, 2)
	assert.Equal([]byte("hi"), s.signed[1])
	assert.NotEqual(protocol.InfinityG2, bundle.AggregatedSignature)
}

func TestSignNothingRequired(t *testing.T) {
	sig, err := Sign(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, protocol.InfinityG2, sig)
}

func TestSignErrors(t *testing.T) {
	required := []RequiredSignature{{PublicKey: testKey(1)}, {PublicKey: testKey(2)}}

	_, err := Sign(nil, xorAggregator{}, required)
	assert.ErrorIs(t, err, ErrNoSigner)

	_, err = Sign(&testSigner{}, nil, required)
	assert.ErrorIs(t, err, protocol.ErrNoAggregator)

	errSign := errors.New("locked")
	_, err = Sign(&testSigner{err: errSign}, xorAggregator{}, required)
	assert.ErrorIs(t, err, errSign)
}
