// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package conditions

// MessageSide selects which half of a message mode is read or written.
type MessageSide int

const (
	Sender MessageSide = iota
	Receiver
)

// MessageFlags says which parts of a coin a message commits to on one side.
type MessageFlags struct {
	Parent bool
	Puzzle bool
	Amount bool
}

var (
	FlagsNone         = MessageFlags{}
	FlagsParent       = MessageFlags{Parent: true}
	FlagsPuzzle       = MessageFlags{Puzzle: true}
	FlagsAmount       = MessageFlags{Amount: true}
	FlagsParentPuzzle = MessageFlags{Parent: true, Puzzle: true}
	FlagsParentAmount = MessageFlags{Parent: true, Amount: true}
	FlagsPuzzleAmount = MessageFlags{Puzzle: true, Amount: true}
	FlagsCoin         = MessageFlags{Parent: true, Puzzle: true, Amount: true}
)

// DecodeMessageFlags reads the flags of side from a six bit mode.
func DecodeMessageFlags(mode uint8, side MessageSide) MessageFlags {
	if side == Sender {
		mode >>= 3
	}
	return MessageFlags{
		Parent: mode&0b100 != 0,
		Puzzle: mode&0b010 != 0,
		Amount: mode&0b001 != 0,
	}
}

// Encode returns the bits of f for side.
func (f MessageFlags) Encode(side MessageSide) uint8 {
	var v uint8
	if f.Parent {
		v |= 0b100
	}
	if f.Puzzle {
		v |= 0b010
	}
	if f.Amount {
		v |= 0b001
	}
	if side == Sender {
		v <<= 3
	}
	return v
}

// MessageMode combines sender and receiver flags.
func MessageMode(sender, receiver MessageFlags) uint8 {
	return sender.Encode(Sender) | receiver.Encode(Receiver)
}
