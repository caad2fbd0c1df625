// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	safemath "github.com/ava-labs/avalanchego/utils/math"
)

// Delta is the value an action set moves into and out of one asset.
type Delta struct {
	Input  uint64 `json:"input"`
	Output uint64 `json:"output"`
}

// Add sums two deltas. Overflow is an error rather than wrapping around.
func (d Delta) Add(other Delta) (Delta, error) {
	input, err := add64(d.Input, other.Input)
	if err != nil {
		return Delta{}, fmt.Errorf("delta input: %w", err)
	}
	output, err := add64(d.Output, other.Output)
	if err != nil {
		return Delta{}, fmt.Errorf("delta output: %w", err)
	}
	return Delta{Input: input, Output: output}, nil
}

func add64(a, b uint64) (uint64, error) {
	sum, err := safemath.Add64(a, b)
	if err != nil {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}

// Neg swaps input and output.
func (d Delta) Neg() Delta { return Delta{Input: d.Output, Output: d.Input} }

// Deltas is the balance ledger of a set of actions, keyed by asset.
type Deltas struct {
	items  map[ID]Delta
	order  []ID
	needed map[ID]bool
}

func NewDeltas() *Deltas {
	return &Deltas{
		items:  make(map[ID]Delta),
		needed: make(map[ID]bool),
	}
}

// DeltasFromActions runs CalculateDelta for every action in order.
func DeltasFromActions(actions []Action) (*Deltas, error) {
	deltas := NewDeltas()
	for i, a := range actions {
		if err := a.CalculateDelta(deltas, i); err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
	}
	return deltas, nil
}

// Update adds delta to the entry of id.
func (d *Deltas) Update(id ID, delta Delta) error {
	current, ok := d.items[id]
	if !ok {
		d.order = append(d.order, id)
	}
	sum, err := current.Add(delta)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	d.items[id] = sum
	return nil
}

func (d *Deltas) AddInput(id ID, amount uint64) error {
	return d.Update(id, Delta{Input: amount})
}

func (d *Deltas) AddOutput(id ID, amount uint64) error {
	return d.Update(id, Delta{Output: amount})
}

// Get returns the zero delta for assets no action touched.
func (d *Deltas) Get(id ID) Delta { return d.items[id] }

// SetNeeded marks id as requiring a spent coin to act as a source.
func (d *Deltas) SetNeeded(id ID) {
	if _, ok := d.items[id]; !ok {
		d.items[id] = Delta{}
		d.order = append(d.order, id)
	}
	d.needed[id] = true
}

func (d *Deltas) IsNeeded(id ID) bool { return d.needed[id] }

// IDs returns every asset with an entry, in first-touched order.
func (d *Deltas) IDs() []ID {
	ids := make([]ID, len(d.order))
	copy(ids, d.order)
	return ids
}
