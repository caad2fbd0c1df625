// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mips

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
)

// RestrictionKind says where a restriction is applied.
type RestrictionKind uint8

const (
	// MemberCondition restrictions validate the conditions output by the
	// member puzzle.
	MemberCondition RestrictionKind = iota
	// DelegatedPuzzleHash restrictions validate the delegated puzzle hash.
	DelegatedPuzzleHash
	// DelegatedPuzzleWrapper restrictions wrap the delegated puzzle. They
	// are enforced through a single validator listing every wrapper.
	DelegatedPuzzleWrapper
)

func (k RestrictionKind) String() string {
	switch k {
	case MemberCondition:
		return "member_condition"
	case DelegatedPuzzleHash:
		return "delegated_puzzle_hash"
	case DelegatedPuzzleWrapper:
		return "delegated_puzzle_wrapper"
	default:
		return fmt.Sprintf("restriction_kind(%d)", uint8(k))
	}
}

func (k RestrictionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *RestrictionKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "member_condition":
		*k = MemberCondition
	case "delegated_puzzle_hash":
		*k = DelegatedPuzzleHash
	case "delegated_puzzle_wrapper":
		*k = DelegatedPuzzleWrapper
	default:
		return fmt.Errorf("unknown restriction kind %q", text)
	}
	return nil
}

// Restriction guards a member puzzle.
type Restriction struct {
	Kind       RestrictionKind  `json:"kind"`
	PuzzleHash protocol.Bytes32 `json:"puzzle_hash"`
}

// Buckets splits restrictions by kind, keeping their order within each kind.
type Buckets struct {
	MemberValidators          []clvm.TreeHash
	DelegatedPuzzleValidators []clvm.TreeHash
	Wrappers                  []clvm.TreeHash
}

// Bucket sorts restrictions into Buckets.
func Bucket(restrictions []Restriction) Buckets {
	var b Buckets
	for _, r := range restrictions {
		h := clvm.TreeHash(r.PuzzleHash)
		switch r.Kind {
		case MemberCondition:
			b.MemberValidators = append(b.MemberValidators, h)
		case DelegatedPuzzleHash:
			b.DelegatedPuzzleValidators = append(b.DelegatedPuzzleValidators, h)
		case DelegatedPuzzleWrapper:
			b.Wrappers = append(b.Wrappers, h)
		}
	}
	return b
}
