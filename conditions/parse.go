// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package conditions

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
)

// args walks the arguments of a condition. Trailing arguments beyond the
// ones a condition reads are ignored, as consensus does.
type args struct {
	a    *clvm.Allocator
	op   int
	rest clvm.NodePtr
}

func (r *args) next() (clvm.NodePtr, error) {
	first, rest, ok := r.a.Pair(r.rest)
	if !ok {
		return clvm.Nil, fmt.Errorf("%w: opcode %d", ErrMissingArgument, r.op)
	}
	r.rest = rest
	return first, nil
}

func (r *args) bytes() ([]byte, error) {
	n, err := r.next()
	if err != nil {
		return nil, err
	}
	if !r.a.IsAtom(n) {
		return nil, fmt.Errorf("%w: opcode %d: expected atom", ErrInvalidCondition, r.op)
	}
	return append([]byte(nil), r.a.Atom(n)...), nil
}

func (r *args) bytes32() (protocol.Bytes32, error) {
	n, err := r.next()
	if err != nil {
		return protocol.Bytes32{}, err
	}
	b, err := r.a.Bytes32(n)
	if err != nil {
		return protocol.Bytes32{}, fmt.Errorf("%w: opcode %d: %v", ErrInvalidCondition, r.op, err)
	}
	return b, nil
}

func (r *args) optionalBytes32() (*protocol.Bytes32, error) {
	n, err := r.next()
	if err != nil {
		return nil, err
	}
	if r.a.IsNil(n) {
		return nil, nil
	}
	b, err := r.a.Bytes32(n)
	if err != nil {
		return nil, fmt.Errorf("%w: opcode %d: %v", ErrInvalidCondition, r.op, err)
	}
	out := protocol.Bytes32(b)
	return &out, nil
}

func (r *args) bytes48() (protocol.Bytes48, error) {
	b, err := r.bytes()
	if err != nil {
		return protocol.Bytes48{}, err
	}
	pk, err := protocol.Bytes48FromSlice(b)
	if err != nil {
		return protocol.Bytes48{}, fmt.Errorf("%w: opcode %d: %v", ErrInvalidCondition, r.op, err)
	}
	return pk, nil
}

func (r *args) uint64() (uint64, error) {
	n, err := r.next()
	if err != nil {
		return 0, err
	}
	v, err := r.a.Uint64(n)
	if err != nil {
		return 0, fmt.Errorf("%w: opcode %d: %v", ErrInvalidCondition, r.op, err)
	}
	return v, nil
}

// memos reads an optional memo list. Entries that are not atoms are
// dropped.
func (r *args) memos() ([][]byte, error) {
	n, err := r.next()
	if err != nil {
		return nil, nil
	}
	items, err := r.a.ListItems(n)
	if err != nil {
		return nil, fmt.Errorf("%w: opcode %d: memos: %v", ErrInvalidCondition, r.op, err)
	}
	memos := make([][]byte, 0, len(items))
	for _, item := range items {
		if r.a.IsAtom(item) {
			memos = append(memos, append([]byte(nil), r.a.Atom(item)...))
		}
	}
	return memos, nil
}

// Parse reads one condition. Opcodes this package does not model become
// Unknown.
func Parse(a *clvm.Allocator, n clvm.NodePtr) (Condition, error) {
	first, rest, ok := a.Pair(n)
	if !ok {
		return nil, fmt.Errorf("%w: expected pair", ErrInvalidCondition)
	}
	if !a.IsAtom(first) {
		return nil, fmt.Errorf("%w: opcode is not an atom", ErrInvalidCondition)
	}
	op64, err := a.Int64(first)
	if err != nil || op64 < -128 || op64 > 255 {
		return Unknown{Op: -1, Node: n}, nil
	}
	op := int(op64)
	r := &args{a: a, op: op, rest: rest}

	switch op {
	case OpRemark:
		return Remark{Rest: rest}, nil
	case OpAggSigParent, OpAggSigPuzzle, OpAggSigAmount, OpAggSigPuzzleAmount,
		OpAggSigParentAmount, OpAggSigParentPuzzle, OpAggSigUnsafe, OpAggSigMe:
		pk, err := r.bytes48()
		if err != nil {
			return nil, err
		}
		msg, err := r.bytes()
		if err != nil {
			return nil, err
		}
		return AggSig{Kind: op, PublicKey: pk, Message: msg}, nil
	case OpCreateCoin:
		return parseCreateCoin(r)
	case OpReserveFee:
		amount, err := r.uint64()
		if err != nil {
			return nil, err
		}
		return ReserveFee{Amount: amount}, nil
	case OpCreateCoinAnnouncement, OpCreatePuzzleAnnouncement:
		msg, err := r.bytes()
		if err != nil {
			return nil, err
		}
		if op == OpCreateCoinAnnouncement {
			return CreateCoinAnnouncement{Message: msg}, nil
		}
		return CreatePuzzleAnnouncement{Message: msg}, nil
	case OpAssertCoinAnnouncement, OpAssertPuzzleAnnouncement:
		id, err := r.bytes32()
		if err != nil {
			return nil, err
		}
		if op == OpAssertCoinAnnouncement {
			return AssertCoinAnnouncement{AnnouncementID: id}, nil
		}
		return AssertPuzzleAnnouncement{AnnouncementID: id}, nil
	case OpAssertConcurrentSpend, OpAssertConcurrentPuzzle,
		OpAssertMyCoinID, OpAssertMyParentID, OpAssertMyPuzzleHash:
		v, err := r.bytes32()
		if err != nil {
			return nil, err
		}
		return AssertBytes32{Op: op, Value: v}, nil
	case OpAssertMyAmount, OpAssertMyBirthSeconds, OpAssertMyBirthHeight,
		OpAssertSecondsRelative, OpAssertSecondsAbsolute, OpAssertHeightRelative, OpAssertHeightAbsolute,
		OpAssertBeforeSecondsRelative, OpAssertBeforeSecondsAbsolute,
		OpAssertBeforeHeightRelative, OpAssertBeforeHeightAbsolute:
		v, err := r.uint64()
		if err != nil {
			return nil, err
		}
		return AssertUint64{Op: op, Value: v}, nil
	case OpAssertEphemeral:
		return AssertEphemeral{}, nil
	case OpSendMessage, OpReceiveMessage:
		mode, err := r.uint64()
		if err != nil {
			return nil, err
		}
		if mode > 0xff {
			return nil, fmt.Errorf("%w: message mode %d", ErrInvalidCondition, mode)
		}
		msg, err := r.bytes()
		if err != nil {
			return nil, err
		}
		data, err := a.ListItems(r.rest)
		if err != nil {
			return nil, fmt.Errorf("%w: message data: %v", ErrInvalidCondition, err)
		}
		return Message{Op: op, Mode: uint8(mode), Message: msg, Data: data}, nil
	case OpSoftfork:
		cost, err := r.uint64()
		if err != nil {
			return nil, err
		}
		return Softfork{Cost: cost, Rest: r.rest}, nil
	case OpTransferNft:
		return parseTransferNft(r)
	case OpUpdateNftMetadata:
		reveal, err := r.next()
		if err != nil {
			return nil, err
		}
		solution, err := r.next()
		if err != nil {
			return nil, err
		}
		return UpdateNftMetadata{UpdaterPuzzleReveal: reveal, UpdaterSolution: solution}, nil
	case OpUpdateDataStoreMerkleRoot:
		root, err := r.bytes32()
		if err != nil {
			return nil, err
		}
		memos, err := a.ListItems(r.rest)
		if err != nil {
			return nil, fmt.Errorf("%w: memos: %v", ErrInvalidCondition, err)
		}
		c := UpdateDataStoreMerkleRoot{NewMerkleRoot: root, Memos: make([][]byte, 0, len(memos))}
		for _, memo := range memos {
			if !a.IsAtom(memo) {
				return nil, fmt.Errorf("%w: memo is not an atom", ErrInvalidCondition)
			}
			c.Memos = append(c.Memos, append([]byte(nil), a.Atom(memo)...))
		}
		return c, nil
	default:
		return Unknown{Op: op, Node: n}, nil
	}
}

func parseCreateCoin(r *args) (Condition, error) {
	phNode, err := r.next()
	if err != nil {
		return nil, err
	}
	amountNode, err := r.next()
	if err != nil {
		return nil, err
	}

	if r.a.IsNil(phNode) && bytes.Equal(r.a.Atom(amountNode), []byte{0x8f}) {
		if _, _, ok := r.a.Pair(r.rest); !ok {
			return MeltSingleton{}, nil
		}
		program, err := r.next()
		if err != nil {
			return nil, err
		}
		solution, err := r.next()
		if err != nil {
			return nil, err
		}
		return RunCatTail{Program: program, Solution: solution}, nil
	}

	ph, err := r.a.Bytes32(phNode)
	if err != nil {
		return nil, fmt.Errorf("%w: create coin puzzle hash: %v", ErrInvalidCondition, err)
	}
	amount, err := r.a.Uint64(amountNode)
	if err != nil {
		return nil, fmt.Errorf("%w: create coin amount: %v", ErrInvalidCondition, err)
	}
	c := CreateCoin{PuzzleHash: ph, Amount: amount}
	if _, _, ok := r.a.Pair(r.rest); ok {
		if c.Memos, err = r.memos(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func parseTransferNft(r *args) (Condition, error) {
	launcherID, err := r.optionalBytes32()
	if err != nil {
		return nil, err
	}
	pricesNode, err := r.next()
	if err != nil {
		return nil, err
	}
	items, err := r.a.ListItems(pricesNode)
	if err != nil {
		return nil, fmt.Errorf("%w: trade prices: %v", ErrInvalidCondition, err)
	}
	c := TransferNft{LauncherID: launcherID}
	for _, item := range items {
		price := &args{a: r.a, op: r.op, rest: item}
		amount, err := price.uint64()
		if err != nil {
			return nil, err
		}
		ph, err := price.bytes32()
		if err != nil {
			return nil, err
		}
		c.TradePrices = append(c.TradePrices, TradePrice{Amount: amount, PuzzleHash: ph})
	}
	if c.SingletonInnerPuzzleHash, err = r.optionalBytes32(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseList reads a list of conditions as returned by a puzzle.
func ParseList(a *clvm.Allocator, n clvm.NodePtr) (Conditions, error) {
	items, err := a.ListItems(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	out := make(Conditions, 0, len(items))
	for _, item := range items {
		c, err := Parse(a, item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
