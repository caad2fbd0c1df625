// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var (
	_ SpendKind = &ConditionsSpend{}
	_ SpendKind = &SettlementSpend{}
)

// SpendKind is how the p2 puzzle of a coin is spent: either a
// *ConditionsSpend authorized by its owner or a *SettlementSpend paying out
// notarized payments. No other implementations exist.
type SpendKind interface {
	Outputs() *OutputSet
	// Child returns an empty kind of the same variant, for a coin this one
	// creates to its own p2 puzzle hash.
	Child() SpendKind

	isSpendKind()
}

// Output is a created coin, identified within one parent by puzzle hash and
// amount.
type Output struct {
	PuzzleHash protocol.Bytes32
	Amount     uint64
}

// OutputConstraints are the rules a parent places on the coins it creates.
type OutputConstraints struct {
	// Singleton parents reserve odd amounts for the singleton child.
	Singleton bool
	// Settlement parents can only create payments.
	Settlement bool
}

// OutputSet tracks the coins a spend creates. A parent cannot create two
// coins with the same puzzle hash and amount.
type OutputSet struct {
	constraints OutputConstraints
	seen        map[Output]struct{}
}

func NewOutputSet(constraints OutputConstraints) *OutputSet {
	return &OutputSet{constraints: constraints, seen: make(map[Output]struct{})}
}

func (s *OutputSet) Constraints() OutputConstraints { return s.constraints }

func (s *OutputSet) IsAllowed(o Output) bool {
	if s.constraints.Singleton && o.Amount%2 == 1 {
		return false
	}
	_, ok := s.seen[o]
	return !ok
}

func (s *OutputSet) insert(o Output) error {
	if !s.IsAllowed(o) {
		return fmt.Errorf("%w: %s %d", ErrDuplicateOutput, o.PuzzleHash, o.Amount)
	}
	s.seen[o] = struct{}{}
	return nil
}

// LauncherAmount is the smallest launcher amount this spend can still
// create. Settlement spends cannot create launchers.
func (s *OutputSet) LauncherAmount() (uint64, bool) {
	if s.constraints.Settlement {
		return 0, false
	}
	launcherPH := protocol.Bytes32(puzzles.SingletonLauncherHash)
	for amount := uint64(0); ; amount++ {
		if s.IsAllowed(Output{PuzzleHash: launcherPH, Amount: amount}) {
			return amount, true
		}
	}
}

// ConditionsSpend is spent by its owner outputting a condition list.
type ConditionsSpend struct {
	conditions conditions.Conditions
	outputs    *OutputSet
}

func NewConditionsSpend(constraints OutputConstraints) *ConditionsSpend {
	return &ConditionsSpend{outputs: NewOutputSet(constraints)}
}

func (s *ConditionsSpend) Outputs() *OutputSet { return s.outputs }

func (s *ConditionsSpend) Child() SpendKind { return NewConditionsSpend(s.outputs.constraints) }

func (*ConditionsSpend) isSpendKind() {}

// AddConditions appends conds, registering every coin they create. The odd
// coin of a singleton is its child and is not registered. A spend reveals
// at most one TAIL.
func (s *ConditionsSpend) AddConditions(conds conditions.Conditions) error {
	if tails := countTails(conds); tails > 1 || (tails == 1 && s.RunsTail()) {
		return ErrDuplicateTail
	}
	for _, cc := range conds.CreateCoins() {
		if s.outputs.constraints.Singleton && cc.Amount%2 == 1 {
			continue
		}
		if err := s.outputs.insert(Output{PuzzleHash: cc.PuzzleHash, Amount: cc.Amount}); err != nil {
			return err
		}
	}
	s.conditions = s.conditions.Extend(conds)
	return nil
}

// RunsTail reports whether the spend already reveals a TAIL.
func (s *ConditionsSpend) RunsTail() bool { return countTails(s.conditions) > 0 }

func countTails(conds conditions.Conditions) int {
	n := 0
	for _, cond := range conds {
		if _, ok := cond.(conditions.RunCatTail); ok {
			n++
		}
	}
	return n
}

// Conditions returns a copy of the condition list.
func (s *ConditionsSpend) Conditions() conditions.Conditions {
	return append(conditions.Conditions(nil), s.conditions...)
}

// SettlementSpend is a coin locked to the settlement puzzle. Anyone can spend
// it by naming the notarized payments it makes.
type SettlementSpend struct {
	notarized []puzzles.NotarizedPayment
	outputs   *OutputSet
}

func NewSettlementSpend(constraints OutputConstraints) *SettlementSpend {
	constraints.Settlement = true
	return &SettlementSpend{outputs: NewOutputSet(constraints)}
}

func (s *SettlementSpend) Outputs() *OutputSet { return s.outputs }

func (s *SettlementSpend) Child() SpendKind { return NewSettlementSpend(s.outputs.constraints) }

func (*SettlementSpend) isSpendKind() {}

// AddNotarizedPayment adds np. The odd payment of a singleton is its child
// and is not registered as an output.
func (s *SettlementSpend) AddNotarizedPayment(np puzzles.NotarizedPayment) error {
	for _, p := range np.Payments {
		if s.outputs.constraints.Singleton && p.Amount%2 == 1 {
			continue
		}
		if err := s.outputs.insert(Output{PuzzleHash: p.PuzzleHash, Amount: p.Amount}); err != nil {
			return err
		}
	}
	s.notarized = append(s.notarized, np)
	return nil
}

// addPayment adds a payment nobody asserts, grouped under the zero nonce.
func (s *SettlementSpend) addPayment(p puzzles.Payment) error {
	if err := s.outputs.insert(Output{PuzzleHash: p.PuzzleHash, Amount: p.Amount}); err != nil {
		return err
	}
	for i := range s.notarized {
		if s.notarized[i].Nonce.IsZero() {
			s.notarized[i].Payments = append(s.notarized[i].Payments, p)
			return nil
		}
	}
	s.notarized = append(s.notarized, puzzles.NotarizedPayment{Payments: []puzzles.Payment{p}})
	return nil
}

// NotarizedPayments returns a copy of the payments.
func (s *SettlementSpend) NotarizedPayments() []puzzles.NotarizedPayment {
	return append([]puzzles.NotarizedPayment(nil), s.notarized...)
}

// newSpendKind picks the kind of a coin from its p2 puzzle hash.
func newSpendKind(p2PuzzleHash protocol.Bytes32, singleton bool) SpendKind {
	constraints := OutputConstraints{Singleton: singleton}
	if p2PuzzleHash == protocol.Bytes32(puzzles.SettlementPaymentHash) {
		return NewSettlementSpend(constraints)
	}
	return NewConditionsSpend(constraints)
}

// addConditions emits conds from kind. Settlement spends cannot emit
// arbitrary conditions.
func addConditions(kind SpendKind, conds conditions.Conditions) error {
	switch k := kind.(type) {
	case *ConditionsSpend:
		return k.AddConditions(conds)
	case *SettlementSpend:
		return ErrCannotEmitConditions
	default:
		panic(fmt.Sprintf("unknown spend kind %T", kind))
	}
}

// createCoin makes kind create a coin.
func createCoin(kind SpendKind, puzzleHash protocol.Bytes32, amount uint64, memos [][]byte) error {
	switch k := kind.(type) {
	case *ConditionsSpend:
		return k.AddConditions(conditions.Conditions{
			conditions.CreateCoin{PuzzleHash: puzzleHash, Amount: amount, Memos: memos},
		})
	case *SettlementSpend:
		return k.addPayment(puzzles.Payment{PuzzleHash: puzzleHash, Amount: amount, Memos: memos})
	default:
		panic(fmt.Sprintf("unknown spend kind %T", kind))
	}
}
