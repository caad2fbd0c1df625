// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/chiasdk/clvm"
)

// maxBundleSize bounds the buffer used when parsing a bundle.
const maxBundleSize = 1 << 26

var (
	ErrTrailingBundleBytes = errors.New("trailing bytes after spend bundle")
	ErrNoAggregator        = errors.New("no signature aggregator")
)

// Program is a serialized CLVM program.
type Program []byte

func (p Program) String() string { return "0x" + hex.EncodeToString(p) }

func (p Program) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *Program) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := ProgramFromHex(s)
	if err != nil {
		return err
	}
	*p = b
	return nil
}

// ProgramFromHex parses an optionally 0x prefixed hex string.
func ProgramFromHex(s string) (Program, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// TreeHash parses the program and returns its tree hash.
func (p Program) TreeHash() (clvm.TreeHash, error) {
	a := clvm.NewAllocator()
	n, err := a.Deserialize(p)
	if err != nil {
		return clvm.TreeHash{}, err
	}
	return a.TreeHash(n), nil
}

// CoinSpend reveals the puzzle of a coin together with the solution used to
// spend it.
type CoinSpend struct {
	Coin         Coin    `json:"coin"`
	PuzzleReveal Program `json:"puzzle_reveal"`
	Solution     Program `json:"solution"`
}

// NewCoinSpend returns a coin spend value.
func NewCoinSpend(coin Coin, puzzleReveal, solution Program) CoinSpend {
	return CoinSpend{Coin: coin, PuzzleReveal: puzzleReveal, Solution: solution}
}

// SpendBundle is a set of coin spends with one aggregated signature.
type SpendBundle struct {
	CoinSpends          []CoinSpend `json:"coin_spends"`
	AggregatedSignature Bytes96     `json:"aggregated_signature"`
}

// NewSpendBundle returns a bundle value.
func NewSpendBundle(coinSpends []CoinSpend, signature Bytes96) SpendBundle {
	return SpendBundle{CoinSpends: coinSpends, AggregatedSignature: signature}
}

// SignatureAggregator combines BLS signatures. Signature math lives outside
// of this module.
type SignatureAggregator interface {
	Aggregate(signatures ...Bytes96) (Bytes96, error)
}

// Bytes returns the streamable encoding of the bundle.
func (sb *SpendBundle) Bytes() []byte {
	size := wrappers.IntLen + len(sb.AggregatedSignature)
	for _, cs := range sb.CoinSpends {
		size += CoinSize + len(cs.PuzzleReveal) + len(cs.Solution)
	}
	p := wrappers.Packer{Bytes: make([]byte, 0, size), MaxSize: size}
	p.PackInt(uint32(len(sb.CoinSpends)))
	for _, cs := range sb.CoinSpends {
		p.PackFixedBytes(MarshalCoin(cs.Coin))
		p.PackFixedBytes(cs.PuzzleReveal)
		p.PackFixedBytes(cs.Solution)
	}
	p.PackFixedBytes(sb.AggregatedSignature[:])
	return p.Bytes
}

// Name is the hash of the streamable encoding.
func (sb *SpendBundle) Name() Bytes32 {
	return hashing.ComputeHash256Array(sb.Bytes())
}

// ParseSpendBundle decodes the streamable encoding of a bundle.
func ParseSpendBundle(b []byte) (*SpendBundle, error) {
	p := wrappers.Packer{Bytes: b, MaxSize: maxBundleSize}
	count := p.UnpackInt()
	if p.Errored() {
		return nil, fmt.Errorf("failed to read spend count: %w", p.Err)
	}

	sb := &SpendBundle{}
	for i := uint32(0); i < count; i++ {
		coin, err := UnmarshalCoin(p.UnpackFixedBytes(CoinSize))
		if p.Errored() {
			return nil, fmt.Errorf("failed to read coin %d: %w", i, p.Err)
		}
		if err != nil {
			return nil, err
		}
		puzzle, err := unpackProgram(&p)
		if err != nil {
			return nil, fmt.Errorf("failed to read puzzle reveal %d: %w", i, err)
		}
		solution, err := unpackProgram(&p)
		if err != nil {
			return nil, fmt.Errorf("failed to read solution %d: %w", i, err)
		}
		sb.CoinSpends = append(sb.CoinSpends, NewCoinSpend(coin, puzzle, solution))
	}

	copy(sb.AggregatedSignature[:], p.UnpackFixedBytes(len(sb.AggregatedSignature)))
	if p.Errored() {
		return nil, fmt.Errorf("failed to read signature: %w", p.Err)
	}
	if p.Offset != len(b) {
		return nil, ErrTrailingBundleBytes
	}
	return sb, nil
}

func unpackProgram(p *wrappers.Packer) (Program, error) {
	if p.Offset > len(p.Bytes) {
		return nil, clvm.ErrUnexpectedEOF
	}
	length, err := clvm.SerializedLength(p.Bytes[p.Offset:])
	if err != nil {
		return nil, err
	}
	program := make(Program, length)
	copy(program, p.UnpackFixedBytes(length))
	return program, p.Err
}

// Aggregate joins bundles into one. Spends keep their order and signatures
// are combined through agg. Identity signatures are skipped.
func Aggregate(agg SignatureAggregator, bundles ...SpendBundle) (SpendBundle, error) {
	var (
		spends     []CoinSpend
		signatures = make([]Bytes96, 0, len(bundles))
	)
	for _, sb := range bundles {
		spends = append(spends, sb.CoinSpends...)
		if sb.AggregatedSignature != InfinityG2 {
			signatures = append(signatures, sb.AggregatedSignature)
		}
	}
	switch {
	case len(signatures) == 0:
		return NewSpendBundle(spends, InfinityG2), nil
	case len(signatures) == 1:
		return NewSpendBundle(spends, signatures[0]), nil
	case agg == nil:
		return SpendBundle{}, ErrNoAggregator
	}
	signature, err := agg.Aggregate(signatures...)
	if err != nil {
		return SpendBundle{}, err
	}
	return NewSpendBundle(spends, signature), nil
}
