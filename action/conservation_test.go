// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var (
	xchFlow       = protocol.Bytes32{}
	singletonFlow = protocol.Bytes32(puzzles.SingletonTopLayerHash)
)

// valueFlow is the value entering and leaving the spends of one asset.
// extra is the supply change declared by a CAT ring.
type valueFlow struct {
	in, out uint64
	extra   int64
}

type flows struct {
	assets map[protocol.Bytes32]*valueFlow
	fee    uint64
}

func (f *flows) get(asset protocol.Bytes32) *valueFlow {
	if v, ok := f.assets[asset]; ok {
		return v
	}
	v := &valueFlow{}
	f.assets[asset] = v
	return v
}

// pendingFlows evaluates every pending spend, peeling the outer layers a
// context without a runner cannot run down to their p2 conditions.
func pendingFlows(t *testing.T, ctx *driver.SpendContext) *flows {
	t.Helper()
	f := &flows{assets: make(map[protocol.Bytes32]*valueFlow)}
	for _, p := range ctx.Pending() {
		asset, extra, conds := p2Conditions(t, ctx, p.Puzzle, p.Solution)
		v := f.get(asset)
		v.in += p.Coin.Amount
		v.extra += extra
		for _, cc := range conds.CreateCoins() {
			v.out += cc.Amount
		}
		f.fee += conds.ReservedFee()
	}
	return f
}

func p2Conditions(t *testing.T, ctx *driver.SpendContext, puzzle, solution clvm.NodePtr) (protocol.Bytes32, int64, conditions.Conditions) {
	t.Helper()
	var (
		asset = xchFlow
		extra int64
	)
	for {
		p := driver.ParsePuzzle(ctx.Allocator, puzzle)
		switch {
		case p.Is(puzzles.CatHash, 3):
			s, err := driver.ParseCatSolution(ctx.Allocator, solution)
			require.NoError(t, err)
			assetID, err := ctx.Bytes32(p.Args[1])
			require.NoError(t, err)
			asset, extra = assetID, s.ExtraDelta
			puzzle, solution = p.Args[2], s.InnerSolution
		case p.Is(puzzles.SingletonTopLayerHash, 2):
			s, err := driver.ParseSingletonSolution(ctx.Allocator, solution)
			require.NoError(t, err)
			asset = singletonFlow
			puzzle, solution = p.Args[1], s.InnerSolution
		case p.Is(puzzles.NftStateLayerHash, 4):
			inner, err := driver.ParseNftStateSolution(ctx.Allocator, solution)
			require.NoError(t, err)
			puzzle, solution = p.Args[3], inner
		case p.Is(puzzles.NftOwnershipLayerHash, 4):
			inner, err := driver.ParseNftOwnershipSolution(ctx.Allocator, solution)
			require.NoError(t, err)
			puzzle, solution = p.Args[3], inner
		case p.Hash == puzzles.SingletonLauncherHash:
			items, err := ctx.ListItems(solution)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(items), 2)
			puzzleHash, err := ctx.Bytes32(items[0])
			require.NoError(t, err)
			amount, err := ctx.Uint64(items[1])
			require.NoError(t, err)
			return singletonFlow, 0, conditions.Conditions{conditions.NewCreateCoin(puzzleHash, amount, nil)}
		default:
			conds, err := ctx.Outputs(puzzle, solution)
			require.NoError(t, err)
			return asset, extra, conds
		}
	}
}

// requireConserved checks that every CAT ring changes supply by exactly its
// declared extra delta and that all value leaving the spends is the reserved
// fee. Singleton value is not checked per asset since parents fund launchers.
func requireConserved(t *testing.T, f *flows) {
	t.Helper()
	var in, out uint64
	for asset, v := range f.assets {
		in += v.in
		out += v.out
		switch asset {
		case xchFlow, singletonFlow:
			require.Zero(t, v.extra)
		default:
			require.Equal(t, int64(v.in)-int64(v.out), v.extra, "cat %s", asset)
		}
	}
	require.Equal(t, in, out+f.fee)
}

func newTestCat(w wallet, assetID protocol.Bytes32, parent byte, amount uint64) *driver.Cat {
	info := driver.CatInfo{AssetID: assetID, P2PuzzleHash: w.puzzleHash}
	return &driver.Cat{
		Coin: protocol.NewCoin(bytes32(parent), protocol.Bytes32(info.PuzzleHash()), amount),
		LineageProof: &driver.CoinProof{
			ParentCoinInfo:  bytes32(parent + 1),
			InnerPuzzleHash: w.puzzleHash,
			Amount:          amount,
		},
		Info: info,
	}
}

func catTotal(cats []*driver.Cat) uint64 {
	var total uint64
	for _, cat := range cats {
		total += cat.Coin.Amount
	}
	return total
}

func xchTotal(coins []protocol.Coin) uint64 {
	var total uint64
	for _, coin := range coins {
		total += coin.Amount
	}
	return total
}

// requireTakeNeedsCatReveal checks that spends through the CAT layer only
// serialize once its reveal is attached, and that a failed take keeps them.
func requireTakeNeedsCatReveal(t *testing.T, ctx *driver.SpendContext) {
	t.Helper()
	pending := len(ctx.Pending())
	_, err := ctx.Take()
	require.ErrorIs(t, err, clvm.ErrMissingModReveal)
	require.Len(t, ctx.Pending(), pending)
}

func TestSendTakeConservesValue(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)
	bob := newWallet(2)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 600))
	spends.AddXch(protocol.NewCoin(bytes32(2), alice.puzzleHash, 400))

	_, err := run(t, ctx, spends, alice,
		Send{ID: Xch, PuzzleHash: bob.puzzleHash, Amount: 750},
		Fee{Amount: 25},
	)
	require.NoError(t, err)

	coinSpends, err := ctx.Take()
	require.NoError(t, err)
	assert.Len(coinSpends, 2)
	assert.Empty(ctx.Pending())

	replay := driver.NewSpendContext()
	for _, cs := range coinSpends {
		require.NoError(t, replay.Insert(cs))
	}
	f := pendingFlows(t, replay)
	requireConserved(t, f)
	assert.Equal(uint64(25), f.fee)
	assert.Equal(uint64(1000), f.get(xchFlow).in)
	assert.Equal(uint64(975), f.get(xchFlow).out)
}

func TestIssueCatConservesValue(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	tail, err := EverythingWithSignatureTail(ctx, alice.key)
	require.NoError(t, err)
	assetID := protocol.Bytes32(ctx.TreeHash(tail.Puzzle))

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000))

	outputs, err := run(t, ctx, spends, alice,
		IssueCat{Tail: &tail, Amount: 300},
		Fee{Amount: 7},
	)
	require.NoError(t, err)
	assert.Equal(uint64(300), catTotal(outputs.Cats[NewID(0)]))
	assert.Equal(uint64(693), xchTotal(outputs.Xch))

	f := pendingFlows(t, ctx)
	requireConserved(t, f)
	assert.Equal(uint64(7), f.fee)
	cat := f.get(assetID)
	assert.Equal(uint64(300), cat.in)
	assert.Equal(uint64(300), cat.out)
	assert.Zero(cat.extra)

	requireTakeNeedsCatReveal(t, ctx)
}

func TestRunTailConservesValue(t *testing.T) {
	tests := []struct {
		name        string
		supplyDelta int64
		cat         uint64
		xch         uint64
	}{
		{name: "issue", supplyDelta: 50, cat: 150, xch: 950},
		{name: "melt", supplyDelta: -30, cat: 70, xch: 1030},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			ctx := driver.NewSpendContext()
			alice := newWallet(1)

			tail, err := EverythingWithSignatureTail(ctx, alice.key)
			require.NoError(t, err)
			assetID := protocol.Bytes32(ctx.TreeHash(tail.Puzzle))

			spends := NewSpends(alice.puzzleHash)
			spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000))
			spends.AddCat(newTestCat(alice, assetID, 0x10, 100))

			outputs, err := run(t, ctx, spends, alice,
				RunTail{ID: ExistingID(assetID), Tail: tail, SupplyDelta: test.supplyDelta},
			)
			require.NoError(t, err)
			assert.Equal(test.cat, catTotal(outputs.Cats[ExistingID(assetID)]))
			assert.Equal(test.xch, xchTotal(outputs.Xch))

			f := pendingFlows(t, ctx)
			requireConserved(t, f)
			assert.Equal(-test.supplyDelta, f.get(assetID).extra)

			requireTakeNeedsCatReveal(t, ctx)
		})
	}
}

func TestMeltCatConservesValue(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	tail, err := EverythingWithSignatureTail(ctx, alice.key)
	require.NoError(t, err)
	assetID := protocol.Bytes32(ctx.TreeHash(tail.Puzzle))

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000))
	spends.AddCat(newTestCat(alice, assetID, 0x10, 60))
	spends.AddCat(newTestCat(alice, assetID, 0x20, 40))

	outputs, err := run(t, ctx, spends, alice,
		MeltCat{ID: ExistingID(assetID), Tail: tail, Amount: 75},
	)
	require.NoError(t, err)
	assert.Equal(uint64(25), catTotal(outputs.Cats[ExistingID(assetID)]))
	assert.Equal(uint64(1075), xchTotal(outputs.Xch))

	f := pendingFlows(t, ctx)
	requireConserved(t, f)
	cat := f.get(assetID)
	assert.Equal(uint64(100), cat.in)
	assert.Equal(uint64(25), cat.out)
	assert.Equal(int64(75), cat.extra)

	requireTakeNeedsCatReveal(t, ctx)
}

func TestMintNftConservesValue(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000))

	outputs, err := run(t, ctx, spends, alice,
		MintNft{Parent: Xch, Amount: 1},
		Fee{Amount: 3},
	)
	require.NoError(t, err)
	require.NotNil(t, outputs.Nfts[NewID(0)])
	assert.Equal(uint64(1), outputs.Nfts[NewID(0)].Coin.Amount)
	assert.Equal(uint64(996), xchTotal(outputs.Xch))

	f := pendingFlows(t, ctx)
	requireConserved(t, f)
	assert.Equal(uint64(3), f.fee)
	assert.Equal(uint64(1000), f.get(xchFlow).in)
	assert.Equal(uint64(996), f.get(xchFlow).out)

	// The launcher coin is empty and its parent funds the eve NFT.
	assert.Equal(uint64(1), f.get(singletonFlow).in)
	assert.Equal(uint64(2), f.get(singletonFlow).out)
}

func TestRunTailOncePerCoin(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	tail, err := EverythingWithSignatureTail(ctx, alice.key)
	require.NoError(t, err)
	assetID := protocol.Bytes32(ctx.TreeHash(tail.Puzzle))
	id := ExistingID(assetID)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000))
	spends.AddCat(newTestCat(alice, assetID, 0x10, 60))
	spends.AddCat(newTestCat(alice, assetID, 0x20, 40))

	_, err = spends.Apply(ctx, []Action{
		RunTail{ID: id, Tail: tail, SupplyDelta: 10},
		RunTail{ID: id, Tail: tail, SupplyDelta: 5},
	})
	require.NoError(t, err)

	bucket, err := spends.cat(id)
	require.NoError(t, err)
	require.Len(t, bucket.Items, 2)
	for _, item := range bucket.Items {
		kind, ok := item.Kind.(*ConditionsSpend)
		require.True(t, ok)
		assert.True(kind.RunsTail())
	}

	// Every coin of the ring already reveals the TAIL.
	_, err = spends.Apply(ctx, []Action{RunTail{ID: id, Tail: tail, SupplyDelta: 1}})
	assert.ErrorIs(err, ErrDuplicateTail)
}

func TestIssueCatThenRunTailOnEve(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	tail, err := EverythingWithSignatureTail(ctx, alice.key)
	require.NoError(t, err)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000))

	_, err = spends.Apply(ctx, []Action{
		IssueCat{Tail: &tail, Amount: 100},
		RunTail{ID: NewID(0), Tail: tail, SupplyDelta: 10},
	})
	require.ErrorIs(t, err, ErrDuplicateTail)
}

func TestConditionsSpendSingleTail(t *testing.T) {
	kind := NewConditionsSpend(OutputConstraints{})
	tail := conditions.RunCatTail{Program: clvm.Nil, Solution: clvm.Nil}

	require.ErrorIs(t, kind.AddConditions(conditions.Conditions{tail, tail}), ErrDuplicateTail)
	require.False(t, kind.RunsTail())
	require.NoError(t, kind.AddConditions(conditions.Conditions{tail}))
	require.True(t, kind.RunsTail())
	require.ErrorIs(t, kind.AddConditions(conditions.Conditions{tail}), ErrDuplicateTail)
}
