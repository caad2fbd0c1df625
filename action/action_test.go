// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
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

type wallet struct {
	key        protocol.Bytes48
	puzzleHash protocol.Bytes32
}

func newWallet(b byte) wallet {
	key := testKey(b)
	return wallet{key: key, puzzleHash: protocol.Bytes32(driver.NewStandardLayer(key).TreeHash())}
}

func (w wallet) keys() map[protocol.Bytes32]protocol.Bytes48 {
	return map[protocol.Bytes32]protocol.Bytes48{w.puzzleHash: w.key}
}

// run applies actions to spends and finishes them with w's key.
func run(t *testing.T, ctx *driver.SpendContext, spends *Spends, w wallet, actions ...Action) (*Outputs, error) {
	t.Helper()
	deltas, err := spends.Apply(ctx, actions)
	if err != nil {
		return nil, err
	}
	return spends.FinishWithKeys(ctx, deltas, w.keys())
}

func pendingOutputs(t *testing.T, ctx *driver.SpendContext, coin protocol.Coin) conditions.Conditions {
	t.Helper()
	for _, p := range ctx.Pending() {
		if p.Coin == coin {
			conds, err := ctx.Outputs(p.Puzzle, p.Solution)
			require.NoError(t, err)
			return conds
		}
	}
	require.FailNow(t, "coin was not spent")
	return nil
}

func TestCreateAndMeltDidConservesValue(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	coin := protocol.NewCoin(bytes32(1), alice.puzzleHash, 1)
	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(coin)

	actions := []Action{NewCreateDid(), MeltSingleton{ID: NewID(0), Amount: 1}}
	deltas, err := DeltasFromActions(actions)
	require.NoError(t, err)
	assert.Equal(Delta{Input: 1, Output: 1}, deltas.Get(Xch))
	assert.Equal(Delta{Input: 1, Output: 1}, deltas.Get(NewID(0)))

	outputs, err := run(t, ctx, spends, alice, actions...)
	require.NoError(t, err)

	assert.Equal([]protocol.Coin{protocol.NewCoin(coin.ID(), alice.puzzleHash, 1)}, outputs.Xch)
	assert.Empty(outputs.Dids)
	assert.Zero(outputs.Fee)

	// The coin, the launcher and the melted eve DID.
	assert.Len(ctx.Pending(), 3)
}

func TestSendWithChangeAndFee(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)
	bob := newWallet(2)

	coin := protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000)
	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(coin)

	outputs, err := run(t, ctx, spends, alice,
		Send{ID: Xch, PuzzleHash: bob.puzzleHash, Amount: 300},
		Fee{Amount: 10},
	)
	require.NoError(t, err)

	assert.Equal([]protocol.Coin{
		protocol.NewCoin(coin.ID(), bob.puzzleHash, 300),
		protocol.NewCoin(coin.ID(), alice.puzzleHash, 690),
	}, outputs.Xch)
	assert.Equal(uint64(10), outputs.Fee)

	conds := pendingOutputs(t, ctx, coin)
	assert.Equal(uint64(10), conds.ReservedFee())
	assert.Len(conds.AggSigs(), 1)
}

func TestSeparateChangePuzzleHash(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)
	change := bytes32(7)

	coin := protocol.NewCoin(bytes32(1), alice.puzzleHash, 50)
	spends := NewSpendsWithChange(alice.puzzleHash, change)
	spends.AddXch(coin)

	outputs, err := run(t, ctx, spends, alice, Fee{Amount: 20})
	require.NoError(t, err)
	assert.Equal([]protocol.Coin{protocol.NewCoin(coin.ID(), change, 30)}, outputs.Xch)
}

func TestInsufficientFunds(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 100))

	_, err := run(t, ctx, spends, alice, Send{ID: Xch, PuzzleHash: bytes32(2), Amount: 200})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestNoSourceForLauncher(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	_, err := spends.Apply(ctx, []Action{NewCreateDid()})
	require.ErrorIs(t, err, ErrNoSourceForOutput)
}

func TestNeededAssetWithoutCoins(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	deltas := NewDeltas()
	deltas.SetNeeded(ExistingID(bytes32(5)))
	assert.Equal(t, []ID{ExistingID(bytes32(5))}, deltas.IDs())

	_, err := spends.FinishWithKeys(ctx, deltas, alice.keys())
	require.ErrorIs(t, err, ErrNoSourceForOutput)
}

func TestDuplicateOutputUsesIntermediateCoin(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)
	bob := newWallet(2)

	coin := protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000)
	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(coin)

	send := Send{ID: Xch, PuzzleHash: bob.puzzleHash, Amount: 100}
	outputs, err := run(t, ctx, spends, alice, send, send)
	require.NoError(t, err)

	intermediate := protocol.NewCoin(coin.ID(), alice.puzzleHash, intermediateAmount)
	assert.ElementsMatch([]protocol.Coin{
		protocol.NewCoin(coin.ID(), bob.puzzleHash, 100),
		protocol.NewCoin(intermediate.ID(), bob.puzzleHash, 100),
		protocol.NewCoin(coin.ID(), alice.puzzleHash, 800),
	}, outputs.Xch)
	assert.Len(ctx.Pending(), 2)

	selected, err := spends.SelectedXchAmount()
	require.NoError(t, err)
	assert.Equal(uint64(1000), selected)
}

func TestSettleRequiresSettlementCoin(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 100))

	np := puzzles.NotarizedPayment{
		Nonce:    bytes32(3),
		Payments: []puzzles.Payment{{PuzzleHash: bytes32(4), Amount: 100}},
	}
	_, err := spends.Apply(ctx, []Action{Settle{ID: Xch, NotarizedPayment: np}})
	require.ErrorIs(t, err, ErrCannotSettleFromSpend)
}

func TestSettleAssertsPayment(t *testing.T) {
	settlementPH := protocol.Bytes32(puzzles.SettlementPaymentHash)
	np := puzzles.NotarizedPayment{
		Nonce:    bytes32(3),
		Payments: []puzzles.Payment{{PuzzleHash: bytes32(4), Amount: 100}},
	}

	tests := []struct {
		name          string
		disable       bool
		wantAssertion bool
	}{
		{name: "asserted", wantAssertion: true},
		{name: "disabled", disable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			ctx := driver.NewSpendContext()
			alice := newWallet(1)

			owned := protocol.NewCoin(bytes32(1), alice.puzzleHash, 10)
			locked := protocol.NewCoin(bytes32(2), settlementPH, 100)
			spends := NewSpends(alice.puzzleHash)
			spends.AddXch(owned)
			spends.AddXch(locked)
			if tt.disable {
				spends.DisableSettlementAssertions()
			}
			assert.Equal([]protocol.Bytes32{owned.ID()}, spends.NonSettlementCoinIDs())

			outputs, err := run(t, ctx, spends, alice, Settle{ID: Xch, NotarizedPayment: np})
			require.NoError(t, err)
			assert.ElementsMatch([]protocol.Coin{
				protocol.NewCoin(owned.ID(), alice.puzzleHash, 10),
				protocol.NewCoin(locked.ID(), bytes32(4), 100),
			}, outputs.Xch)

			assertion := conditions.PaymentAssertion(settlementPH, np)
			assert.Equal(tt.wantAssertion, containsCondition(pendingOutputs(t, ctx, owned), assertion))
		})
	}
}

func containsCondition(conds conditions.Conditions, want conditions.Condition) bool {
	for _, c := range conds {
		if c == want {
			return true
		}
	}
	return false
}

func TestCannotEmitConditionsFromSettlement(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(2), protocol.Bytes32(puzzles.SettlementPaymentHash), 100))

	_, err := run(t, ctx, spends, alice, Fee{Amount: 10})
	require.ErrorIs(t, err, ErrCannotEmitConditions)
}

func TestDeltasOverflow(t *testing.T) {
	_, err := DeltasFromActions([]Action{Fee{Amount: math.MaxUint64}, Fee{Amount: 1}})
	require.ErrorIs(t, err, ErrOverflow)
}

func TestEvenSingletonAmount(t *testing.T) {
	did := NewCreateDid()
	did.Amount = 2
	_, err := DeltasFromActions([]Action{did})
	require.ErrorIs(t, err, ErrEvenSingletonAmount)
}

func TestFinishTwice(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 100))

	_, err := run(t, ctx, spends, alice)
	require.NoError(t, err)
	_, err = spends.FinishWithKeys(ctx, NewDeltas(), alice.keys())
	require.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = spends.Apply(ctx, nil)
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestMissingKey(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 100))

	deltas, err := spends.Apply(ctx, nil)
	require.NoError(t, err)
	_, err = spends.FinishWithKeys(ctx, deltas, nil)
	require.ErrorIs(t, err, driver.ErrMissingKey)
}

func TestIssueSingleIssuanceCat(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	coin := protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000)
	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(coin)

	outputs, err := run(t, ctx, spends, alice, IssueCat{Amount: 100})
	require.NoError(t, err)

	assert.Equal([]protocol.Coin{protocol.NewCoin(coin.ID(), alice.puzzleHash, 900)}, outputs.Xch)

	cats := outputs.Cats[NewID(0)]
	require.Len(t, cats, 1)
	assert.Equal(protocol.Bytes32(puzzles.GenesisByCoinIDPuzzleHash(coin.ID())), cats[0].Info.AssetID)
	assert.Equal(alice.puzzleHash, cats[0].Info.P2PuzzleHash)
	assert.Equal(uint64(100), cats[0].Coin.Amount)

	// The coin and the eve CAT.
	assert.Len(ctx.Pending(), 2)
}

func TestMintAndSendNft(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)
	bob := newWallet(2)

	coin := protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000)
	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(coin)

	outputs, err := run(t, ctx, spends, alice,
		MintNft{Parent: Xch, RoyaltyPuzzleHash: alice.puzzleHash, RoyaltyBasisPoints: 300, Amount: 1},
		Send{ID: NewID(0), PuzzleHash: bob.puzzleHash, Amount: 1},
	)
	require.NoError(t, err)

	nft := outputs.Nfts[NewID(0)]
	require.NotNil(t, nft)
	assert.Equal(bob.puzzleHash, nft.Info.P2PuzzleHash)
	assert.Equal(uint16(300), nft.Info.RoyaltyBasisPoints)
	assert.Equal([]protocol.Coin{protocol.NewCoin(coin.ID(), alice.puzzleHash, 999)}, outputs.Xch)
}

func TestAssignNftToDid(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	coin := protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000)
	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(coin)

	owner := NewID(0)
	outputs, err := run(t, ctx, spends, alice,
		NewCreateDid(),
		MintNft{Parent: owner, Amount: 1},
		UpdateNft{ID: NewID(1), Owner: &owner},
	)
	require.NoError(t, err)

	did := outputs.Dids[owner]
	require.NotNil(t, did)
	nft := outputs.Nfts[NewID(1)]
	require.NotNil(t, nft)
	require.NotNil(t, nft.Info.CurrentOwner)
	assert.Equal(did.Info.ID, *nft.Info.CurrentOwner)
	assert.Equal(alice.puzzleHash, nft.Info.P2PuzzleHash)
}

func TestMeltNftFails(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	spends.AddXch(protocol.NewCoin(bytes32(1), alice.puzzleHash, 1000))

	_, err := spends.Apply(ctx, []Action{
		MintNft{Parent: Xch, Amount: 1},
		MeltSingleton{ID: NewID(0), Amount: 1},
	})
	require.ErrorIs(t, err, ErrCannotMelt)
}

func TestUnknownAsset(t *testing.T) {
	ctx := driver.NewSpendContext()
	alice := newWallet(1)

	spends := NewSpends(alice.puzzleHash)
	_, err := spends.Apply(ctx, []Action{Send{ID: ExistingID(bytes32(9)), PuzzleHash: bytes32(2), Amount: 1}})
	require.ErrorIs(t, err, ErrInvalidAssetID)
}
