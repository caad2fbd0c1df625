// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package conditions

import (
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
)

// Opcodes
const (
	OpRemark                      = 1
	OpAggSigParent                = 43
	OpAggSigPuzzle                = 44
	OpAggSigAmount                = 45
	OpAggSigPuzzleAmount          = 46
	OpAggSigParentAmount          = 47
	OpAggSigParentPuzzle          = 48
	OpAggSigUnsafe                = 49
	OpAggSigMe                    = 50
	OpCreateCoin                  = 51
	OpReserveFee                  = 52
	OpCreateCoinAnnouncement      = 60
	OpAssertCoinAnnouncement      = 61
	OpCreatePuzzleAnnouncement    = 62
	OpAssertPuzzleAnnouncement    = 63
	OpAssertConcurrentSpend       = 64
	OpAssertConcurrentPuzzle      = 65
	OpSendMessage                 = 66
	OpReceiveMessage              = 67
	OpAssertMyCoinID              = 70
	OpAssertMyParentID            = 71
	OpAssertMyPuzzleHash          = 72
	OpAssertMyAmount              = 73
	OpAssertMyBirthSeconds        = 74
	OpAssertMyBirthHeight         = 75
	OpAssertEphemeral             = 76
	OpAssertSecondsRelative       = 80
	OpAssertSecondsAbsolute       = 81
	OpAssertHeightRelative        = 82
	OpAssertHeightAbsolute        = 83
	OpAssertBeforeSecondsRelative = 84
	OpAssertBeforeSecondsAbsolute = 85
	OpAssertBeforeHeightRelative  = 86
	OpAssertBeforeHeightAbsolute  = 87
	OpSoftfork                    = 90

	// Conditions interpreted by puzzle layers rather than by consensus.
	OpTransferNft               = -10
	OpUpdateDataStoreMerkleRoot = -13
	OpUpdateNftMetadata         = -24
	MagicAmount                 = -113
)

// Condition is one entry of the list returned by a puzzle.
type Condition interface {
	Opcode() int
	ToClvm(a *clvm.Allocator) clvm.NodePtr
}

func list(a *clvm.Allocator, opcode int, args ...clvm.NodePtr) clvm.NodePtr {
	return a.NewPair(a.NewInt64(int64(opcode)), a.List(args...))
}

func listWithRest(a *clvm.Allocator, opcode int, rest clvm.NodePtr, args ...clvm.NodePtr) clvm.NodePtr {
	for i := len(args) - 1; i >= 0; i-- {
		rest = a.NewPair(args[i], rest)
	}
	return a.NewPair(a.NewInt64(int64(opcode)), rest)
}

func bytes32(a *clvm.Allocator, b protocol.Bytes32) clvm.NodePtr { return a.NewAtom(b[:]) }

func atoms(a *clvm.Allocator, values [][]byte) clvm.NodePtr {
	nodes := make([]clvm.NodePtr, len(values))
	for i, v := range values {
		nodes[i] = a.NewAtom(v)
	}
	return a.List(nodes...)
}

// Remark carries arbitrary data and has no effect.
type Remark struct {
	Rest clvm.NodePtr
}

func (Remark) Opcode() int { return OpRemark }

func (c Remark) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return a.NewPair(a.NewInt64(OpRemark), c.Rest)
}

// AggSig requires a BLS signature of PublicKey over Message. Kind is one of
// the AGG_SIG opcodes and selects what is appended to the message.
type AggSig struct {
	Kind      int
	PublicKey protocol.Bytes48
	Message   []byte
}

func (c AggSig) Opcode() int { return c.Kind }

func (c AggSig) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, c.Kind, a.NewAtom(c.PublicKey[:]), a.NewAtom(c.Message))
}

// NewAggSigMe is the usual signature requirement of wallet puzzles.
func NewAggSigMe(publicKey protocol.Bytes48, message []byte) AggSig {
	return AggSig{Kind: OpAggSigMe, PublicKey: publicKey, Message: message}
}

// CreateCoin creates a child coin. A nil Memos slice omits the memo list.
type CreateCoin struct {
	PuzzleHash protocol.Bytes32
	Amount     uint64
	Memos      [][]byte
}

// NewCreateCoin returns a CreateCoin hinted with hint, or without memos when
// hint is nil.
func NewCreateCoin(puzzleHash protocol.Bytes32, amount uint64, hint *protocol.Bytes32) CreateCoin {
	c := CreateCoin{PuzzleHash: puzzleHash, Amount: amount}
	if hint != nil {
		c.Memos = [][]byte{append([]byte(nil), hint[:]...)}
	}
	return c
}

func (CreateCoin) Opcode() int { return OpCreateCoin }

func (c CreateCoin) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	if c.Memos == nil {
		return list(a, OpCreateCoin, bytes32(a, c.PuzzleHash), a.NewUint64(c.Amount))
	}
	return list(a, OpCreateCoin, bytes32(a, c.PuzzleHash), a.NewUint64(c.Amount), atoms(a, c.Memos))
}

// Hint returns the first memo when it is 32 bytes long.
func (c CreateCoin) Hint() (protocol.Bytes32, bool) {
	if len(c.Memos) == 0 || len(c.Memos[0]) != 32 {
		return protocol.Bytes32{}, false
	}
	var hint protocol.Bytes32
	copy(hint[:], c.Memos[0])
	return hint, true
}

// Coin returns the child created by this condition under parent.
func (c CreateCoin) Coin(parent protocol.Bytes32) protocol.Coin {
	return protocol.NewCoin(parent, c.PuzzleHash, c.Amount)
}

// ReserveFee asserts that at least Amount is left over as fee.
type ReserveFee struct {
	Amount uint64
}

func (ReserveFee) Opcode() int { return OpReserveFee }

func (c ReserveFee) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpReserveFee, a.NewUint64(c.Amount))
}

type CreateCoinAnnouncement struct {
	Message []byte
}

func (CreateCoinAnnouncement) Opcode() int { return OpCreateCoinAnnouncement }

func (c CreateCoinAnnouncement) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpCreateCoinAnnouncement, a.NewAtom(c.Message))
}

type AssertCoinAnnouncement struct {
	AnnouncementID protocol.Bytes32
}

func (AssertCoinAnnouncement) Opcode() int { return OpAssertCoinAnnouncement }

func (c AssertCoinAnnouncement) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpAssertCoinAnnouncement, bytes32(a, c.AnnouncementID))
}

type CreatePuzzleAnnouncement struct {
	Message []byte
}

func (CreatePuzzleAnnouncement) Opcode() int { return OpCreatePuzzleAnnouncement }

func (c CreatePuzzleAnnouncement) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpCreatePuzzleAnnouncement, a.NewAtom(c.Message))
}

type AssertPuzzleAnnouncement struct {
	AnnouncementID protocol.Bytes32
}

func (AssertPuzzleAnnouncement) Opcode() int { return OpAssertPuzzleAnnouncement }

func (c AssertPuzzleAnnouncement) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpAssertPuzzleAnnouncement, bytes32(a, c.AnnouncementID))
}

// AssertBytes32 covers the conditions whose only argument is a 32 byte value:
// concurrent spend and puzzle, and the coin id, parent id and puzzle hash
// self assertions.
type AssertBytes32 struct {
	Op    int
	Value protocol.Bytes32
}

func (c AssertBytes32) Opcode() int { return c.Op }

func (c AssertBytes32) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, c.Op, bytes32(a, c.Value))
}

// NewAssertConcurrentSpend requires the coin with coinID to be spent in the
// same block.
func NewAssertConcurrentSpend(coinID protocol.Bytes32) AssertBytes32 {
	return AssertBytes32{Op: OpAssertConcurrentSpend, Value: coinID}
}

// NewAssertMyCoinID pins the spend to one coin.
func NewAssertMyCoinID(coinID protocol.Bytes32) AssertBytes32 {
	return AssertBytes32{Op: OpAssertMyCoinID, Value: coinID}
}

// AssertUint64 covers the conditions whose only argument is an integer: the
// amount and birth assertions and every time lock.
type AssertUint64 struct {
	Op    int
	Value uint64
}

func (c AssertUint64) Opcode() int { return c.Op }

func (c AssertUint64) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, c.Op, a.NewUint64(c.Value))
}

// AssertEphemeral requires the coin to be created in the same block.
type AssertEphemeral struct{}

func (AssertEphemeral) Opcode() int { return OpAssertEphemeral }

func (AssertEphemeral) ToClvm(a *clvm.Allocator) clvm.NodePtr { return list(a, OpAssertEphemeral) }

// Message is SEND_MESSAGE or RECEIVE_MESSAGE depending on Op.
type Message struct {
	Op      int
	Mode    uint8
	Message []byte
	Data    []clvm.NodePtr
}

func (c Message) Opcode() int { return c.Op }

func (c Message) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return listWithRest(a, c.Op, a.List(c.Data...), a.NewUint64(uint64(c.Mode)), a.NewAtom(c.Message))
}

// NewSendMessage sends message to the coin committed to by data.
func NewSendMessage(mode uint8, message []byte, data ...clvm.NodePtr) Message {
	return Message{Op: OpSendMessage, Mode: mode, Message: message, Data: data}
}

// NewReceiveMessage receives message from the coin committed to by data.
func NewReceiveMessage(mode uint8, message []byte, data ...clvm.NodePtr) Message {
	return Message{Op: OpReceiveMessage, Mode: mode, Message: message, Data: data}
}

type Softfork struct {
	Cost uint64
	Rest clvm.NodePtr
}

func (Softfork) Opcode() int { return OpSoftfork }

func (c Softfork) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return listWithRest(a, OpSoftfork, c.Rest, a.NewUint64(c.Cost))
}

// TradePrice is one entry of the trade price list paid through royalties.
type TradePrice struct {
	Amount     uint64           `json:"amount"`
	PuzzleHash protocol.Bytes32 `json:"puzzle_hash"`
}

// TransferNft is read by the NFT ownership layer. A nil LauncherID transfers
// the NFT away from any DID.
type TransferNft struct {
	LauncherID               *protocol.Bytes32
	TradePrices              []TradePrice
	SingletonInnerPuzzleHash *protocol.Bytes32
}

func (TransferNft) Opcode() int { return OpTransferNft }

func optionalBytes32(a *clvm.Allocator, b *protocol.Bytes32) clvm.NodePtr {
	if b == nil {
		return clvm.Nil
	}
	return bytes32(a, *b)
}

func tradePriceList(a *clvm.Allocator, prices []TradePrice) clvm.NodePtr {
	nodes := make([]clvm.NodePtr, len(prices))
	for i, p := range prices {
		nodes[i] = a.List(a.NewUint64(p.Amount), bytes32(a, p.PuzzleHash))
	}
	return a.List(nodes...)
}

func (c TransferNft) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpTransferNft,
		optionalBytes32(a, c.LauncherID),
		tradePriceList(a, c.TradePrices),
		optionalBytes32(a, c.SingletonInnerPuzzleHash),
	)
}

// RunCatTail runs the TAIL program of a CAT with the given solution. It is
// a CREATE_COIN with a nil puzzle hash and the magic amount.
type RunCatTail struct {
	Program  clvm.NodePtr
	Solution clvm.NodePtr
}

func (RunCatTail) Opcode() int { return OpCreateCoin }

func (c RunCatTail) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpCreateCoin, clvm.Nil, a.NewInt64(MagicAmount), c.Program, c.Solution)
}

// MeltSingleton destroys a singleton. The singleton layer only accepts it
// from the inner puzzle alongside an odd amount leaving the singleton.
type MeltSingleton struct{}

func (MeltSingleton) Opcode() int { return OpCreateCoin }

func (MeltSingleton) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpCreateCoin, clvm.Nil, a.NewInt64(MagicAmount))
}

// UpdateNftMetadata runs an updater program over the NFT metadata.
type UpdateNftMetadata struct {
	UpdaterPuzzleReveal clvm.NodePtr
	UpdaterSolution     clvm.NodePtr
}

func (UpdateNftMetadata) Opcode() int { return OpUpdateNftMetadata }

func (c UpdateNftMetadata) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return list(a, OpUpdateNftMetadata, c.UpdaterPuzzleReveal, c.UpdaterSolution)
}

type UpdateDataStoreMerkleRoot struct {
	NewMerkleRoot protocol.Bytes32
	Memos         [][]byte
}

func (UpdateDataStoreMerkleRoot) Opcode() int { return OpUpdateDataStoreMerkleRoot }

func (c UpdateDataStoreMerkleRoot) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return listWithRest(a, OpUpdateDataStoreMerkleRoot, atoms(a, c.Memos), bytes32(a, c.NewMerkleRoot))
}

// Unknown keeps a condition this package does not model. It is only valid
// in the allocator it was parsed from.
type Unknown struct {
	Op   int
	Node clvm.NodePtr
}

func (c Unknown) Opcode() int { return c.Op }

func (c Unknown) ToClvm(*clvm.Allocator) clvm.NodePtr { return c.Node }
