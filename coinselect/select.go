// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coinselect picks which coins to spend for an amount.
package coinselect

import (
	"math/rand"
	"sort"

	"github.com/ava-labs/chiasdk/protocol"
)

const (
	// MaxCoins is the most coins a selection may contain.
	MaxCoins = 500

	knapsackIterations = 1000
	knapsackSeed       = 0
)

// SelectCoins selects coins adding up to at least amount, trying in order:
// a single coin of exactly amount, every smaller coin when they sum to
// exactly amount, the smallest coin above amount, a knapsack search and
// finally the largest coins.
//
// The knapsack search is seeded, so the same input always selects the same
// coins.
func SelectCoins(coins []protocol.Coin, amount uint64) ([]protocol.Coin, error) {
	if len(coins) == 0 {
		return nil, ErrNoSpendableCoins
	}

	var total sum
	for _, coin := range coins {
		total = total.add(coin.Amount)
	}
	if total.cmp(amount) < 0 {
		return nil, InsufficientBalanceError{Balance: total.lo}
	}

	sorted := make([]protocol.Coin, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})

	for _, coin := range sorted {
		if coin.Amount == amount {
			return []protocol.Coin{coin}, nil
		}
	}

	smaller := newCoinSet()
	var smallerSum sum
	for _, coin := range sorted {
		if coin.Amount < amount && smaller.add(coin) {
			smallerSum = smallerSum.add(coin.Amount)
		}
	}

	switch c := smallerSum.cmp(amount); {
	case c == 0 && smaller.len() < MaxCoins && amount != 0:
		return smaller.coins(), nil
	case c < 0:
		coin, _ := smallestCoinAbove(sorted, amount)
		return []protocol.Coin{coin}, nil
	case c > 0:
		rng := rand.New(rand.NewSource(knapsackSeed)) //nolint:gosec
		if selected, ok := knapsack(rng, sorted, amount, MaxCoins); ok {
			return selected, nil
		}
		largest := sumLargestCoins(sorted, amount)
		if len(largest) <= MaxCoins {
			return largest, nil
		}
		return nil, ErrExceededMaxCoins
	}

	if coin, ok := smallestCoinAbove(sorted, amount); ok {
		return []protocol.Coin{coin}, nil
	}
	return nil, ErrExceededMaxCoins
}

// sorted must be in descending order and hold at least amount in total.
func sumLargestCoins(sorted []protocol.Coin, amount uint64) []protocol.Coin {
	selected := newCoinSet()
	var selectedSum sum
	for _, coin := range sorted {
		if selected.add(coin) {
			selectedSum = selectedSum.add(coin.Amount)
		}
		if selectedSum.cmp(amount) >= 0 {
			break
		}
	}
	return selected.coins()
}

func smallestCoinAbove(sorted []protocol.Coin, amount uint64) (protocol.Coin, bool) {
	if sorted[0].Amount < amount {
		return protocol.Coin{}, false
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Amount >= amount {
			return sorted[i], true
		}
	}
	return protocol.Coin{}, false
}

// knapsack runs randomized passes over the coins looking for an exact
// match, remembering the smallest overshoot otherwise.
func knapsack(rng *rand.Rand, coins []protocol.Coin, amount uint64, maxCoins int) ([]protocol.Coin, bool) {
	best := sum{hi: ^uint64(0), lo: ^uint64(0)}
	var bestCoins []protocol.Coin

	for i := 0; i < knapsackIterations; i++ {
		selected := newCoinSet()
		var selectedSum sum
		targetReached := false

		for pass := 0; pass < 2 && !targetReached; pass++ {
			for _, coin := range coins {
				// The first pass includes each coin with even odds, the second
				// tops up with whatever was left out.
				skipFirst := pass != 0 || rng.Intn(2) == 0
				skipSecond := pass != 1 || selected.contains(coin)
				if skipFirst && skipSecond {
					continue
				}
				if selected.len() > maxCoins {
					break
				}

				if selected.add(coin) {
					selectedSum = selectedSum.add(coin.Amount)
				}
				switch selectedSum.cmp(amount) {
				case 0:
					return selected.coins(), true
				case 1:
					targetReached = true
					if selectedSum.less(best) {
						best = selectedSum
						bestCoins = selected.coins()

						selectedSum = selectedSum.sub(coin.Amount)
						selected.remove(coin)
					}
				}
			}
		}
	}
	return bestCoins, bestCoins != nil
}

// coinSet is a set of coins that remembers insertion order.
type coinSet struct {
	order []protocol.Coin
	index map[protocol.Coin]struct{}
}

func newCoinSet() *coinSet {
	return &coinSet{index: make(map[protocol.Coin]struct{})}
}

func (s *coinSet) add(coin protocol.Coin) bool {
	if _, ok := s.index[coin]; ok {
		return false
	}
	s.index[coin] = struct{}{}
	s.order = append(s.order, coin)
	return true
}

func (s *coinSet) remove(coin protocol.Coin) {
	if _, ok := s.index[coin]; !ok {
		return
	}
	delete(s.index, coin)
	for i, c := range s.order {
		if c == coin {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *coinSet) contains(coin protocol.Coin) bool {
	_, ok := s.index[coin]
	return ok
}

func (s *coinSet) len() int { return len(s.order) }

func (s *coinSet) coins() []protocol.Coin {
	out := make([]protocol.Coin, len(s.order))
	copy(out, s.order)
	return out
}
