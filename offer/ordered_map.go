// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"github.com/ava-labs/chiasdk/protocol"
)

// OrderedMap is keyed by asset id, launcher id or puzzle hash and iterates in
// insertion order. The zero value is empty and ready to use.
type OrderedMap[V any] struct {
	keys   []protocol.Bytes32
	values map[protocol.Bytes32]V
}

func (m *OrderedMap[V]) Get(key protocol.Bytes32) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores v under key and reports whether key was already present. An
// existing key keeps its position.
func (m *OrderedMap[V]) Set(key protocol.Bytes32, v V) bool {
	if m.values == nil {
		m.values = make(map[protocol.Bytes32]V)
	}
	_, ok := m.values[key]
	if !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []protocol.Bytes32 {
	return append([]protocol.Bytes32(nil), m.keys...)
}

func (m *OrderedMap[V]) Len() int { return len(m.keys) }

// Range calls f for every entry in order until f returns false.
func (m *OrderedMap[V]) Range(f func(key protocol.Bytes32, v V) bool) {
	for _, key := range m.keys {
		if !f(key, m.values[key]) {
			return
		}
	}
}

// Shift removes and returns the first entry.
func (m *OrderedMap[V]) Shift() (protocol.Bytes32, V, bool) {
	var zero V
	if len(m.keys) == 0 {
		return protocol.Bytes32{}, zero, false
	}
	key := m.keys[0]
	v := m.values[key]
	m.keys = m.keys[1:]
	delete(m.values, key)
	return key, v, true
}

// appendTo adds items to the slice stored under key.
func appendTo[T any](m *OrderedMap[[]T], key protocol.Bytes32, items ...T) {
	existing, _ := m.Get(key)
	m.Set(key, append(existing, items...))
}
