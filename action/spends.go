// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// SpendFunc builds the spend of the p2 puzzle p2PuzzleHash outputting conds.
type SpendFunc func(ctx *driver.SpendContext, p2PuzzleHash protocol.Bytes32, conds conditions.Conditions) (driver.Spend, error)

// orderedMap keeps assets in the order they were first added.
type orderedMap[V any] struct {
	keys   []ID
	values map[ID]V
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{values: make(map[ID]V)}
}

func (m *orderedMap[V]) get(id ID) (V, bool) {
	v, ok := m.values[id]
	return v, ok
}

func (m *orderedMap[V]) set(id ID, v V) {
	if _, ok := m.values[id]; !ok {
		m.keys = append(m.keys, id)
	}
	m.values[id] = v
}

// Outputs are the coins left unspent by a finished set of spends.
type Outputs struct {
	Xch     []protocol.Coin
	Cats    map[ID][]*driver.Cat
	Dids    map[ID]*driver.Did
	Nfts    map[ID]*driver.Nft
	Options map[ID]*driver.OptionContract
	Fee     uint64
}

func newOutputs() *Outputs {
	return &Outputs{
		Cats:    make(map[ID][]*driver.Cat),
		Dids:    make(map[ID]*driver.Did),
		Nfts:    make(map[ID]*driver.Nft),
		Options: make(map[ID]*driver.OptionContract),
	}
}

// Spends is the set of coins being spent together and what each one does.
// It is built by adding coins, applying actions once and finishing once. It
// is not safe for concurrent use.
type Spends struct {
	xch     *FungibleSpends[xchCoin]
	cats    *orderedMap[*FungibleSpends[catCoin]]
	dids    *orderedMap[*SingletonSpends[didCoin]]
	nfts    *orderedMap[*SingletonSpends[nftCoin]]
	options *orderedMap[*SingletonSpends[optionCoin]]

	// aliases maps the ids of CATs issued into an asset that was already
	// selected to that asset.
	aliases map[ID]ID

	conditionsPuzzleHash protocol.Bytes32
	changePuzzleHash     protocol.Bytes32

	required                    conditions.Conditions
	optional                    conditions.Conditions
	disableSettlementAssertions bool

	fee       uint64
	finalized bool
}

// NewSpends returns spends whose conditions and change both go to
// puzzleHash.
func NewSpends(puzzleHash protocol.Bytes32) *Spends {
	return NewSpendsWithChange(puzzleHash, puzzleHash)
}

// NewSpendsWithChange separates the p2 puzzle preferred for emitting
// conditions from where change is sent.
func NewSpendsWithChange(conditionsPuzzleHash, changePuzzleHash protocol.Bytes32) *Spends {
	return &Spends{
		xch:                  &FungibleSpends[xchCoin]{},
		cats:                 newOrderedMap[*FungibleSpends[catCoin]](),
		dids:                 newOrderedMap[*SingletonSpends[didCoin]](),
		nfts:                 newOrderedMap[*SingletonSpends[nftCoin]](),
		options:              newOrderedMap[*SingletonSpends[optionCoin]](),
		aliases:              make(map[ID]ID),
		conditionsPuzzleHash: conditionsPuzzleHash,
		changePuzzleHash:     changePuzzleHash,
	}
}

func (s *Spends) ChangePuzzleHash() protocol.Bytes32 { return s.changePuzzleHash }

func (s *Spends) AddXch(coin protocol.Coin) {
	s.xch.add(xchCoin{coin: coin})
}

func (s *Spends) AddCat(cat *driver.Cat) {
	id := ExistingID(cat.Info.AssetID)
	bucket, ok := s.cats.get(id)
	if !ok {
		bucket = &FungibleSpends[catCoin]{}
		s.cats.set(id, bucket)
	}
	bucket.add(catCoin{cat: cat})
}

func (s *Spends) AddDid(did *driver.Did) {
	asset := didCoin{did: did}
	s.dids.set(ExistingID(did.Info.ID), newSingletonSpends(asset, newSpendKind(asset.P2PuzzleHash(), true), false))
}

func (s *Spends) AddNft(nft *driver.Nft) {
	asset := nftCoin{nft: nft}
	s.nfts.set(ExistingID(nft.Info.ID), newSingletonSpends(asset, newSpendKind(asset.P2PuzzleHash(), true), false))
}

func (s *Spends) AddOption(option *driver.OptionContract) {
	asset := optionCoin{option: option}
	s.options.set(ExistingID(option.Info.ID), newSingletonSpends(asset, newSpendKind(asset.P2PuzzleHash(), true), false))
}

// AddRequiredCondition must be output by one of the spends.
func (s *Spends) AddRequiredCondition(c conditions.Condition) {
	s.required = append(s.required, c)
}

// AddOptionalCondition is output when any spend can emit conditions.
func (s *Spends) AddOptionalCondition(c conditions.Condition) {
	s.optional = append(s.optional, c)
}

// DisableSettlementAssertions stops the spends asserting the settlement
// payments they make, as when a taker completes an offer.
func (s *Spends) DisableSettlementAssertions() {
	s.disableSettlementAssertions = true
}

func (s *Spends) SelectedXchAmount() (uint64, error) { return s.xch.SelectedAmount() }

// SelectedAssetIDs returns the asset id of every CAT that has selected
// coins.
func (s *Spends) SelectedAssetIDs() []protocol.Bytes32 {
	var ids []protocol.Bytes32
	for _, id := range s.cats.keys {
		if assetID, ok := id.AsExisting(); ok {
			ids = append(ids, assetID)
		}
	}
	return ids
}

func (s *Spends) SelectedCatAmount(assetID protocol.Bytes32) (uint64, error) {
	bucket, ok := s.cats.get(ExistingID(assetID))
	if !ok {
		return 0, nil
	}
	return bucket.SelectedAmount()
}

// P2PuzzleHashes returns the p2 puzzle hash of every coin, in spend order.
func (s *Spends) P2PuzzleHashes() []protocol.Bytes32 {
	var hashes []protocol.Bytes32
	for _, item := range s.xch.Items {
		hashes = append(hashes, item.Asset.P2PuzzleHash())
	}
	for _, id := range s.cats.keys {
		for _, item := range s.cats.values[id].Items {
			hashes = append(hashes, item.Asset.P2PuzzleHash())
		}
	}
	for _, id := range s.dids.keys {
		for _, item := range s.dids.values[id].Lineage {
			hashes = append(hashes, item.Asset.P2PuzzleHash())
		}
	}
	for _, id := range s.nfts.keys {
		for _, item := range s.nfts.values[id].Lineage {
			hashes = append(hashes, item.Asset.P2PuzzleHash())
		}
	}
	for _, id := range s.options.keys {
		for _, item := range s.options.values[id].Lineage {
			hashes = append(hashes, item.Asset.P2PuzzleHash())
		}
	}
	return hashes
}

// NonSettlementCoinIDs returns the ids of selected coins spent by their
// owner. Offers use them as their nonce.
func (s *Spends) NonSettlementCoinIDs() []protocol.Bytes32 {
	var ids []protocol.Bytes32
	add := func(asset Asset, kind SpendKind) {
		if _, ok := kind.(*ConditionsSpend); ok {
			ids = append(ids, asset.CoinID())
		}
	}
	for _, item := range s.xch.Items {
		if !item.Ephemeral {
			add(item.Asset, item.Kind)
		}
	}
	for _, id := range s.cats.keys {
		for _, item := range s.cats.values[id].Items {
			if !item.Ephemeral {
				add(item.Asset, item.Kind)
			}
		}
	}
	for _, id := range s.dids.keys {
		if singleton := s.dids.values[id]; !singleton.Ephemeral {
			add(singleton.Lineage[0].Asset, singleton.Lineage[0].Kind)
		}
	}
	for _, id := range s.nfts.keys {
		if singleton := s.nfts.values[id]; !singleton.Ephemeral {
			add(singleton.Lineage[0].Asset, singleton.Lineage[0].Kind)
		}
	}
	for _, id := range s.options.keys {
		if singleton := s.options.values[id]; !singleton.Ephemeral {
			add(singleton.Lineage[0].Asset, singleton.Lineage[0].Kind)
		}
	}
	return ids
}

func (s *Spends) resolve(id ID) ID {
	if alias, ok := s.aliases[id]; ok {
		return alias
	}
	return id
}

func (s *Spends) cat(id ID) (*FungibleSpends[catCoin], error) {
	bucket, ok := s.cats.get(s.resolve(id))
	if !ok {
		return nil, fmt.Errorf("%w: no cat %s", ErrInvalidAssetID, id)
	}
	return bucket, nil
}

func (s *Spends) did(id ID) (*SingletonSpends[didCoin], error) {
	singleton, ok := s.dids.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: no did %s", ErrInvalidAssetID, id)
	}
	return singleton, nil
}

func (s *Spends) nft(id ID) (*SingletonSpends[nftCoin], error) {
	singleton, ok := s.nfts.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: no nft %s", ErrInvalidAssetID, id)
	}
	return singleton, nil
}

func (s *Spends) option(id ID) (*SingletonSpends[optionCoin], error) {
	singleton, ok := s.options.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: no option %s", ErrInvalidAssetID, id)
	}
	return singleton, nil
}

// Apply computes the deltas of actions and then applies each of them.
func (s *Spends) Apply(ctx *driver.SpendContext, actions []Action) (*Deltas, error) {
	if s.finalized {
		return nil, ErrAlreadyFinalized
	}
	deltas, err := DeltasFromActions(actions)
	if err != nil {
		return nil, err
	}
	for i, a := range actions {
		if err := a.Spend(ctx, s, i); err != nil {
			return nil, fmt.Errorf("action %d (%T): %w", i, a, err)
		}
	}
	return deltas, nil
}

// checkNeeded fails when an asset that must act as a source has no coins.
func (s *Spends) checkNeeded(deltas *Deltas) error {
	for _, id := range deltas.IDs() {
		if !deltas.IsNeeded(id) {
			continue
		}
		var ok bool
		switch {
		case id.IsXch():
			ok = len(s.xch.Items) != 0
		default:
			resolved := s.resolve(id)
			_, isCat := s.cats.get(resolved)
			_, isDid := s.dids.get(resolved)
			_, isNft := s.nfts.get(resolved)
			_, isOption := s.options.get(resolved)
			ok = isCat || isDid || isNft || isOption
		}
		if !ok {
			return fmt.Errorf("%w: %s has no coins", ErrNoSourceForOutput, id)
		}
	}
	return nil
}

// catDelta sums the deltas of every id that names the asset at id.
func (s *Spends) catDelta(deltas *Deltas, id ID) (Delta, error) {
	total := deltas.Get(id)
	for alias, target := range s.aliases {
		if target != id {
			continue
		}
		var err error
		if total, err = total.Add(deltas.Get(alias)); err != nil {
			return Delta{}, err
		}
	}
	return total, nil
}

func (s *Spends) createChange(ctx *driver.SpendContext, deltas *Deltas) error {
	if err := s.xch.CreateChange(ctx, deltas.Get(Xch), s.changePuzzleHash); err != nil {
		return fmt.Errorf("xch change: %w", err)
	}
	for _, id := range s.cats.keys {
		delta, err := s.catDelta(deltas, id)
		if err != nil {
			return err
		}
		if err := s.cats.values[id].CreateChange(ctx, delta, s.changePuzzleHash); err != nil {
			return fmt.Errorf("cat %s change: %w", id, err)
		}
	}
	for _, id := range s.dids.keys {
		if err := s.dids.values[id].Finalize(ctx, s.changePuzzleHash); err != nil {
			return fmt.Errorf("did %s: %w", id, err)
		}
	}
	for _, id := range s.nfts.keys {
		if err := s.nfts.values[id].Finalize(ctx, s.changePuzzleHash); err != nil {
			return fmt.Errorf("nft %s: %w", id, err)
		}
	}
	for _, id := range s.options.keys {
		if err := s.options.values[id].Finalize(ctx, s.changePuzzleHash); err != nil {
			return fmt.Errorf("option %s: %w", id, err)
		}
	}
	return nil
}

type kindedAsset struct {
	asset Asset
	kind  SpendKind
}

// emitters lists every coin that will be spent, owner controlled coins of
// conditionsPuzzleHash first.
func (s *Spends) emitters() []kindedAsset {
	var all []kindedAsset
	for _, item := range s.xch.Items {
		all = append(all, kindedAsset{item.Asset, item.Kind})
	}
	for _, id := range s.cats.keys {
		for _, item := range s.cats.values[id].Items {
			all = append(all, kindedAsset{item.Asset, item.Kind})
		}
	}
	for _, id := range s.dids.keys {
		for _, item := range s.dids.values[id].Lineage {
			all = append(all, kindedAsset{item.Asset, item.Kind})
		}
	}
	for _, id := range s.nfts.keys {
		for _, item := range s.nfts.values[id].Lineage {
			all = append(all, kindedAsset{item.Asset, item.Kind})
		}
	}
	for _, id := range s.options.keys {
		for _, item := range s.options.values[id].Lineage {
			all = append(all, kindedAsset{item.Asset, item.Kind})
		}
	}

	var preferred, rest []kindedAsset
	for _, ka := range all {
		if _, ok := ka.kind.(*ConditionsSpend); !ok {
			continue
		}
		if ka.asset.P2PuzzleHash() == s.conditionsPuzzleHash {
			preferred = append(preferred, ka)
		} else {
			rest = append(rest, ka)
		}
	}
	return append(preferred, rest...)
}

func (s *Spends) paymentAssertions() conditions.Conditions {
	var out conditions.Conditions
	out = out.Extend(s.xch.PaymentAssertions)
	for _, id := range s.cats.keys {
		out = out.Extend(s.cats.values[id].PaymentAssertions)
	}
	for _, id := range s.nfts.keys {
		for _, item := range s.nfts.values[id].Lineage {
			out = out.Extend(item.PaymentAssertions)
		}
	}
	for _, id := range s.options.keys {
		for _, item := range s.options.values[id].Lineage {
			out = out.Extend(item.PaymentAssertions)
		}
	}
	return out
}

// emitConditions attaches required and optional conditions to the first
// owner controlled spend.
func (s *Spends) emitConditions() error {
	required := append(conditions.Conditions(nil), s.required...)
	if s.fee != 0 {
		required = required.With(conditions.ReserveFee{Amount: s.fee})
	}
	if !s.disableSettlementAssertions {
		required = required.Extend(s.paymentAssertions())
	}

	emitters := s.emitters()
	if len(emitters) == 0 {
		if len(required) != 0 {
			return ErrCannotEmitConditions
		}
		return nil
	}
	return addConditions(emitters[0].kind, required.Extend(s.optional))
}

// Finish creates change, decides every singleton's child and records the
// spend of every coin in ctx. f builds the spends of owner controlled coins;
// settlement coins are spent directly.
func (s *Spends) Finish(ctx *driver.SpendContext, deltas *Deltas, f SpendFunc) (*Outputs, error) {
	if s.finalized {
		return nil, ErrAlreadyFinalized
	}
	s.finalized = true

	if err := s.checkNeeded(deltas); err != nil {
		return nil, err
	}
	if err := s.createChange(ctx, deltas); err != nil {
		return nil, err
	}
	if err := s.emitConditions(); err != nil {
		return nil, err
	}

	outputs := newOutputs()
	outputs.Fee = s.fee
	var created []protocol.Coin

	for _, item := range s.xch.Items {
		inner, err := innerSpend(ctx, item.Asset, item.Kind, f)
		if err != nil {
			return nil, err
		}
		ctx.Spend(item.Asset.coin, inner)
		children, err := ctx.Children(item.Asset.coin, inner.Puzzle, inner.Solution)
		if err != nil {
			return nil, err
		}
		created = append(created, children...)
	}

	for _, id := range s.cats.keys {
		cats, err := finishCats(ctx, s.cats.values[id], f)
		if err != nil {
			return nil, fmt.Errorf("cat %s: %w", id, err)
		}
		outputs.Cats[id] = cats
	}

	for _, id := range s.dids.keys {
		child, coins, err := finishSingleton(ctx, s.dids.values[id], f)
		if err != nil {
			return nil, fmt.Errorf("did %s: %w", id, err)
		}
		created = append(created, coins...)
		if child != nil {
			outputs.Dids[id] = child.did
		}
	}
	for _, id := range s.nfts.keys {
		child, coins, err := finishSingleton(ctx, s.nfts.values[id], f)
		if err != nil {
			return nil, fmt.Errorf("nft %s: %w", id, err)
		}
		created = append(created, coins...)
		if child != nil {
			outputs.Nfts[id] = child.nft
		}
	}
	for _, id := range s.options.keys {
		child, coins, err := finishSingleton(ctx, s.options.values[id], f)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", id, err)
		}
		created = append(created, coins...)
		if child != nil {
			outputs.Options[id] = child.option
		}
	}

	spent := make(map[protocol.Bytes32]bool)
	for _, p := range ctx.Pending() {
		spent[p.Coin.ID()] = true
	}
	for _, coin := range created {
		if !spent[coin.ID()] {
			outputs.Xch = append(outputs.Xch, coin)
		}
	}
	for id, cats := range outputs.Cats {
		var unspent []*driver.Cat
		for _, cat := range cats {
			if !spent[cat.Coin.ID()] {
				unspent = append(unspent, cat)
			}
		}
		if len(unspent) == 0 {
			delete(outputs.Cats, id)
			continue
		}
		outputs.Cats[id] = unspent
	}

	log.Debug("finished spends", "coinSpends", len(ctx.Pending()), "xchOutputs", len(outputs.Xch))
	return outputs, nil
}

// FinishWithKeys finishes with standard puzzle spends, looking up the
// synthetic key of each p2 puzzle hash.
func (s *Spends) FinishWithKeys(ctx *driver.SpendContext, deltas *Deltas, syntheticKeys map[protocol.Bytes32]protocol.Bytes48) (*Outputs, error) {
	return s.Finish(ctx, deltas, func(ctx *driver.SpendContext, p2PuzzleHash protocol.Bytes32, conds conditions.Conditions) (driver.Spend, error) {
		key, ok := syntheticKeys[p2PuzzleHash]
		if !ok {
			return driver.Spend{}, fmt.Errorf("%w: %s", driver.ErrMissingKey, p2PuzzleHash)
		}
		return driver.NewStandardLayer(key).SpendWithConditions(ctx, conds)
	})
}

// innerSpend builds the spend of the p2 puzzle of asset.
func innerSpend(ctx *driver.SpendContext, asset Asset, kind SpendKind, f SpendFunc) (driver.Spend, error) {
	switch k := kind.(type) {
	case *ConditionsSpend:
		return f(ctx, asset.P2PuzzleHash(), k.Conditions())
	case *SettlementSpend:
		settlement := driver.SettlementLayer{}
		puzzle, err := settlement.ConstructPuzzle(ctx)
		if err != nil {
			return driver.Spend{}, err
		}
		return driver.NewSpend(puzzle, settlement.ConstructSolution(ctx, k.NotarizedPayments())), nil
	default:
		panic(fmt.Sprintf("unknown spend kind %T", kind))
	}
}

// finishCats spends one CAT ring. A supply change is carried by the coin
// that runs the TAIL.
func finishCats(ctx *driver.SpendContext, bucket *FungibleSpends[catCoin], f SpendFunc) ([]*driver.Cat, error) {
	var (
		spends   = make([]driver.CatSpend, 0, len(bucket.Items))
		children []*driver.Cat
		input    uint64
		output   uint64
		tail     = -1
	)
	for i, item := range bucket.Items {
		inner, err := innerSpend(ctx, item.Asset, item.Kind, f)
		if err != nil {
			return nil, err
		}
		conds, err := ctx.Outputs(inner.Puzzle, inner.Solution)
		if err != nil {
			return nil, err
		}
		for _, cond := range conds {
			switch c := cond.(type) {
			case conditions.CreateCoin:
				if output, err = add64(output, c.Amount); err != nil {
					return nil, err
				}
				children = append(children, item.Asset.cat.Child(c.PuzzleHash, c.Amount))
			case conditions.RunCatTail:
				if tail == -1 {
					tail = i
				}
			}
		}
		if input, err = add64(input, item.Asset.Amount()); err != nil {
			return nil, err
		}
		spends = append(spends, driver.CatSpend{Cat: item.Asset.cat, InnerSpend: inner})
	}

	if input != output {
		if tail == -1 {
			return nil, fmt.Errorf("%w: input %d, output %d", ErrUnbalancedCat, input, output)
		}
		extra, err := signedDifference(input, output)
		if err != nil {
			return nil, err
		}
		spends[tail].ExtraDelta = extra
	}
	if err := driver.SpendAllCats(ctx, spends); err != nil {
		return nil, err
	}
	return children, nil
}

func signedDifference(a, b uint64) (int64, error) {
	if a >= b {
		if a-b > 1<<63-1 {
			return 0, fmt.Errorf("%w: supply change", ErrOverflow)
		}
		return int64(a - b), nil
	}
	if b-a > 1<<63 {
		return 0, fmt.Errorf("%w: supply change", ErrOverflow)
	}
	return -int64(b - a), nil
}

// finishSingleton spends a lineage in order. It returns the final child,
// nil when melted, and the plain coins the spends create.
func finishSingleton[A SingletonAsset[A]](ctx *driver.SpendContext, s *SingletonSpends[A], f SpendFunc) (*A, []protocol.Coin, error) {
	var coins []protocol.Coin
	for _, item := range s.Lineage {
		inner, err := innerSpend(ctx, item.Asset, item.Kind, f)
		if err != nil {
			return nil, nil, err
		}
		if err := item.Asset.spend(ctx, inner); err != nil {
			return nil, nil, err
		}
		conds, err := ctx.Outputs(inner.Puzzle, inner.Solution)
		if err != nil {
			return nil, nil, err
		}
		parent := item.Asset.CoinID()
		for _, cc := range conds.CreateCoins() {
			if cc.Amount%2 == 0 {
				coins = append(coins, cc.Coin(parent))
			}
		}
	}
	last := s.Lineage[len(s.Lineage)-1]
	child, ok := last.child()
	if !ok {
		return nil, coins, nil
	}
	return &child, coins, nil
}
