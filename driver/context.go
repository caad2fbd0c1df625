// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// PendingSpend is a coin spend that has been built but not serialized yet.
type PendingSpend struct {
	Coin     protocol.Coin
	Puzzle   clvm.NodePtr
	Solution clvm.NodePtr
}

// SpendContext owns the allocator used while building one set of spends. It
// is not safe for concurrent use.
//
// Spends are serialized only when they are taken, so a spend may reference
// templates whose reveal is supplied later through LoadMod.
type SpendContext struct {
	*clvm.Allocator

	runner  clvm.Runner
	maxCost uint64
	mods    map[clvm.TreeHash]clvm.NodePtr
	pending []PendingSpend
}

// NewSpendContext returns an empty context without a runner.
func NewSpendContext() *SpendContext {
	return &SpendContext{
		Allocator: clvm.NewAllocator(),
		maxCost:   clvm.MaxBlockCost,
		mods:      make(map[clvm.TreeHash]clvm.NodePtr),
	}
}

// SetRunner installs the CLVM runner used by Run and Outputs.
func (ctx *SpendContext) SetRunner(runner clvm.Runner, maxCost uint64) {
	ctx.runner = runner
	ctx.maxCost = maxCost
}

// Mod returns the template registered as name. Templates known only by hash
// are allocated as pruned nodes.
func (ctx *SpendContext) Mod(name string) (clvm.NodePtr, error) {
	m, ok := puzzles.Lookup(name)
	if !ok {
		return clvm.Nil, fmt.Errorf("%w: %s", puzzles.ErrUnknownMod, name)
	}
	return ctx.mod(m)
}

// ModByHash returns the template with the given tree hash.
func (ctx *SpendContext) ModByHash(hash clvm.TreeHash) (clvm.NodePtr, error) {
	m, ok := puzzles.LookupHash(hash)
	if !ok {
		return clvm.Nil, fmt.Errorf("%w: %s", puzzles.ErrUnknownMod, hash)
	}
	return ctx.mod(m)
}

func (ctx *SpendContext) mod(m *puzzles.Mod) (clvm.NodePtr, error) {
	if n, ok := ctx.mods[m.Hash]; ok && (!ctx.IsPruned(n) || !m.HasReveal()) {
		return n, nil
	}
	if !m.HasReveal() {
		n := ctx.NewPruned(m.Hash)
		ctx.mods[m.Hash] = n
		return n, nil
	}
	n, err := ctx.Allocator.Deserialize(m.Reveal)
	if err != nil {
		return clvm.Nil, fmt.Errorf("couldn't load %s: %w", m.Name, err)
	}
	ctx.mods[m.Hash] = n
	return n, nil
}

// LoadMod supplies the reveal of a template known only by hash. The reveal
// must hash to a registered template.
func (ctx *SpendContext) LoadMod(reveal []byte) (clvm.NodePtr, error) {
	m, err := puzzles.Attach(reveal)
	if err != nil {
		return clvm.Nil, err
	}
	delete(ctx.mods, m.Hash)
	return ctx.mod(m)
}

// Curry binds args to the template registered as name.
func (ctx *SpendContext) Curry(name string, args ...clvm.NodePtr) (clvm.NodePtr, error) {
	mod, err := ctx.Mod(name)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Allocator.Curry(mod, args...), nil
}

// NewBytes32 allocates b as an atom.
func (ctx *SpendContext) NewBytes32(b protocol.Bytes32) clvm.NodePtr {
	return ctx.NewAtom(b[:])
}

// NewOptionalBytes32 allocates b, or nil when b is nil.
func (ctx *SpendContext) NewOptionalBytes32(b *protocol.Bytes32) clvm.NodePtr {
	if b == nil {
		return clvm.Nil
	}
	return ctx.NewBytes32(*b)
}

// NewTreeHash allocates h as an atom.
func (ctx *SpendContext) NewTreeHash(h clvm.TreeHash) clvm.NodePtr {
	return ctx.NewAtom(h[:])
}

// Hint returns the memo list hinting a coin to puzzleHash.
func (ctx *SpendContext) Hint(puzzleHash protocol.Bytes32) [][]byte {
	return [][]byte{append([]byte(nil), puzzleHash[:]...)}
}

// Serialize serializes n. Pruned templates must have been revealed first.
func (ctx *SpendContext) Serialize(n clvm.NodePtr) (protocol.Program, error) {
	b, err := ctx.Allocator.Serialize(n)
	if err != nil {
		return nil, err
	}
	return protocol.Program(b), nil
}

// Deserialize parses program into the context. Curried templates that are
// registered by hash only have their reveal learned from it.
func (ctx *SpendContext) Deserialize(program []byte) (clvm.NodePtr, error) {
	n, err := ctx.Allocator.Deserialize(program)
	if err != nil {
		return clvm.Nil, err
	}
	ctx.learnMods(n)
	return n, nil
}

func (ctx *SpendContext) learnMods(n clvm.NodePtr) {
	mod, args, err := ctx.Uncurry(n)
	if err != nil {
		return
	}
	if !ctx.IsPruned(mod) {
		hash := ctx.TreeHash(mod)
		if m, ok := puzzles.LookupHash(hash); ok && !m.HasReveal() {
			if reveal, err := ctx.Allocator.Serialize(mod); err == nil {
				if _, err := puzzles.Attach(reveal); err == nil {
					log.Debug("learned mod reveal", "mod", m.Name, "hash", hash)
					delete(ctx.mods, hash)
				}
			}
		}
	}
	for _, arg := range args {
		ctx.learnMods(arg)
	}
}

// Spend records a coin spend.
func (ctx *SpendContext) Spend(coin protocol.Coin, spend Spend) {
	ctx.pending = append(ctx.pending, PendingSpend{
		Coin:     coin,
		Puzzle:   spend.Puzzle,
		Solution: spend.Solution,
	})
}

// Insert records a coin spend that is already serialized.
func (ctx *SpendContext) Insert(cs protocol.CoinSpend) error {
	puzzle, err := ctx.Deserialize(cs.PuzzleReveal)
	if err != nil {
		return fmt.Errorf("puzzle reveal of %s: %w", cs.Coin.ID(), err)
	}
	solution, err := ctx.Allocator.Deserialize(cs.Solution)
	if err != nil {
		return fmt.Errorf("solution of %s: %w", cs.Coin.ID(), err)
	}
	ctx.Spend(cs.Coin, NewSpend(puzzle, solution))
	return nil
}

// Pending returns the recorded spends in order.
func (ctx *SpendContext) Pending() []PendingSpend {
	out := make([]PendingSpend, len(ctx.pending))
	copy(out, ctx.pending)
	return out
}

// Take serializes and removes every recorded spend. Nothing is removed if
// any spend fails to serialize.
func (ctx *SpendContext) Take() ([]protocol.CoinSpend, error) {
	spends := make([]protocol.CoinSpend, 0, len(ctx.pending))
	for _, p := range ctx.pending {
		puzzle, err := ctx.Serialize(p.Puzzle)
		if err != nil {
			return nil, fmt.Errorf("puzzle reveal of %s: %w", p.Coin.ID(), err)
		}
		solution, err := ctx.Serialize(p.Solution)
		if err != nil {
			return nil, fmt.Errorf("solution of %s: %w", p.Coin.ID(), err)
		}
		spends = append(spends, protocol.NewCoinSpend(p.Coin, puzzle, solution))
	}
	ctx.pending = nil
	return spends, nil
}

// Run evaluates puzzle with solution through the configured runner.
func (ctx *SpendContext) Run(puzzle, solution clvm.NodePtr) (clvm.NodePtr, error) {
	if ctx.runner == nil {
		return clvm.Nil, clvm.ErrNoRunner
	}
	out, _, err := ctx.runner.Run(ctx.Allocator, puzzle, solution, ctx.maxCost)
	return out, err
}
