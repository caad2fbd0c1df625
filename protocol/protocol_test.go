// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones() Bytes32 {
	var b Bytes32
	for i := range b {
		b[i] = 1
	}
	return b
}

func TestCoinID(t *testing.T) {
	tests := []struct {
		amount   uint64
		expected string
	}{
		{amount: 0, expected: "0x5c85955f709283ecce2b74f1b1552918819f390911816e7bb466805a38ab87f3"},
		{amount: 2, expected: "0x1db679cef2e32d3bc85adba94a9a8c90d53b828f8d5cdcef5d88c0a01bc63bbc"},
		{amount: 0x80, expected: "0xe13eb1bc29e9d5c85014e0063c66fada8a68218c4c37be57e0f8fe6e64b6eb81"},
	}
	for _, test := range tests {
		coin := NewCoin(Bytes32{}, ones(), test.amount)
		assert.Equal(t, test.expected, coin.ID().String())
	}
}

func TestCoinSerializer(t *testing.T) {
	assert := assert.New(t)

	coin := NewCoin(ones(), Bytes32{2}, 1_000_000)
	raw := MarshalCoin(coin)
	assert.Len(raw, CoinSize)

	parsed, err := UnmarshalCoin(raw)
	assert.NoError(err)
	assert.Equal(coin, parsed)

	_, err = UnmarshalCoin(raw[1:])
	assert.ErrorIs(err, ErrInvalidCoinFormat)
}

func TestBytes32JSON(t *testing.T) {
	assert := assert.New(t)

	b, err := json.Marshal(ones())
	assert.NoError(err)
	assert.Equal(`"0x0101010101010101010101010101010101010101010101010101010101010101"`, string(b))

	var parsed Bytes32
	assert.NoError(json.Unmarshal(b, &parsed))
	assert.Equal(ones(), parsed)

	err = json.Unmarshal([]byte(`"0x0102"`), &parsed)
	var wrongLength *WrongLengthError
	assert.True(errors.As(err, &wrongLength))
	assert.Equal(32, wrongLength.Expected)
	assert.Equal(2, wrongLength.Found)
}

func newTestBundle() SpendBundle {
	return NewSpendBundle([]CoinSpend{
		NewCoinSpend(NewCoin(Bytes32{}, ones(), 1), Program{0x01}, Program{0xff, 0x80, 0x80}),
		NewCoinSpend(NewCoin(ones(), Bytes32{3}, 42), Program{0x80}, Program{0x86, 'f', 'o', 'o', 'b', 'a', 'r'}),
	}, InfinityG2)
}

func TestSpendBundleBytes(t *testing.T) {
	assert := assert.New(t)

	sb := newTestBundle()
	raw := sb.Bytes()
	assert.Len(raw, 4+2*CoinSize+1+3+1+7+96)

	parsed, err := ParseSpendBundle(raw)
	require.NoError(t, err)
	assert.Equal(sb, *parsed)
	assert.Equal(sb.Name(), parsed.Name())

	_, err = ParseSpendBundle(append(raw, 0))
	assert.ErrorIs(err, ErrTrailingBundleBytes)

	_, err = ParseSpendBundle(raw[:len(raw)-1])
	assert.Error(err)
}

func TestSpendBundleJSON(t *testing.T) {
	assert := assert.New(t)

	sb := newTestBundle()
	b, err := json.Marshal(sb)
	assert.NoError(err)
	assert.True(bytes.Contains(b, []byte(`"puzzle_reveal":"0x01"`)))

	var parsed SpendBundle
	assert.NoError(json.Unmarshal(b, &parsed))
	assert.Equal(sb, parsed)
}

type xorAggregator struct{}

func (xorAggregator) Aggregate(signatures ...Bytes96) (Bytes96, error) {
	var out Bytes96
	for _, sig := range signatures {
		for i := range out {
			out[i] ^= sig[i]
		}
	}
	return out, nil
}

func TestAggregate(t *testing.T) {
	assert := assert.New(t)

	a := newTestBundle()
	b := NewSpendBundle(nil, Bytes96{1})
	c := NewSpendBundle(nil, Bytes96{2})

	joined, err := Aggregate(nil, a, b)
	assert.NoError(err)
	assert.Len(joined.CoinSpends, 2)
	assert.Equal(Bytes96{1}, joined.AggregatedSignature)

	_, err = Aggregate(nil, b, c)
	assert.ErrorIs(err, ErrNoAggregator)

	joined, err = Aggregate(xorAggregator{}, a, b, c)
	assert.NoError(err)
	assert.Equal(Bytes96{3}, joined.AggregatedSignature)
}

func TestConstantsForNetwork(t *testing.T) {
	assert := assert.New(t)

	c, err := ConstantsForNetwork("testnet11")
	assert.NoError(err)
	assert.Equal(Testnet11Constants, c)

	_, err = ConstantsForNetwork("simnet")
	assert.Error(err)
}
