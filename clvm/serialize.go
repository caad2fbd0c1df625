// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

import (
	"bytes"
)

const (
	consBoxMarker = 0xff
	backrefMarker = 0xfe
	maxAtomLength = 1 << 34
)

// Serialize encodes n in the canonical CLVM serialization.
func (a *Allocator) Serialize(n NodePtr) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.serialize(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Allocator) serialize(buf *bytes.Buffer, n NodePtr) error {
	stack := []NodePtr{n}
	for len(stack) > 0 {
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.kind() {
		case prunedKind:
			return ErrMissingModReveal
		case pairKind:
			first, rest, _ := a.Pair(n)
			buf.WriteByte(consBoxMarker)
			stack = append(stack, rest, first)
		default:
			if err := writeAtom(buf, a.Atom(n)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAtom(buf *bytes.Buffer, atom []byte) error {
	size := len(atom)
	switch {
	case size == 0:
		buf.WriteByte(0x80)
		return nil
	case size == 1 && atom[0] <= 0x7f:
		buf.WriteByte(atom[0])
		return nil
	case size < 0x40:
		buf.WriteByte(0x80 | byte(size))
	case size < 0x2000:
		buf.Write([]byte{0xc0 | byte(size>>8), byte(size)})
	case size < 0x100000:
		buf.Write([]byte{0xe0 | byte(size>>16), byte(size >> 8), byte(size)})
	case size < 0x8000000:
		buf.Write([]byte{0xf0 | byte(size>>24), byte(size >> 16), byte(size >> 8), byte(size)})
	case size < maxAtomLength:
		buf.Write([]byte{0xf8 | byte(size>>32), byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)})
	default:
		return ErrAtomTooLarge
	}
	buf.Write(atom)
	return nil
}

// decodeSize reads an atom length prefix starting at b[0] and returns the
// length of the prefix and of the atom body.
func decodeSize(b []byte) (int, int, error) {
	first := b[0]
	var prefix int
	for mask := byte(0x80); mask != 0 && first&mask != 0; mask >>= 1 {
		prefix++
	}
	if prefix == 0 || prefix > 6 {
		return 0, 0, ErrAtomTooLarge
	}
	if len(b) < prefix {
		return 0, 0, ErrUnexpectedEOF
	}
	size := int(first & (0xff >> (prefix + 1)))
	for i := 1; i < prefix; i++ {
		size = size<<8 | int(b[i])
	}
	if size >= maxAtomLength {
		return 0, 0, ErrAtomTooLarge
	}
	return prefix, size, nil
}

// SerializedLength returns the length of the first serialized program in b.
// It is used to split programs out of a larger stream.
func SerializedLength(b []byte) (int, error) {
	offset := 0
	pending := 1
	for pending > 0 {
		if offset >= len(b) {
			return 0, ErrUnexpectedEOF
		}
		pending--
		switch c := b[offset]; {
		case c == consBoxMarker:
			offset++
			pending += 2
		case c == backrefMarker:
			offset++
			if offset >= len(b) {
				return 0, ErrUnexpectedEOF
			}
			prefix, size, err := atomHeader(b[offset:])
			if err != nil {
				return 0, err
			}
			offset += prefix + size
		default:
			prefix, size, err := atomHeader(b[offset:])
			if err != nil {
				return 0, err
			}
			offset += prefix + size
		}
		if offset > len(b) {
			return 0, ErrUnexpectedEOF
		}
	}
	return offset, nil
}

func atomHeader(b []byte) (int, int, error) {
	if b[0] <= 0x7f || b[0] == 0x80 {
		return 1, 0, nil
	}
	return decodeSize(b)
}

// Deserialize parses a serialized program, including back references.
func (a *Allocator) Deserialize(b []byte) (NodePtr, error) {
	n, read, err := a.deserialize(b)
	if err != nil {
		return Nil, err
	}
	if read != len(b) {
		return Nil, ErrTrailingBytes
	}
	return n, nil
}

// DeserializePrefix parses the first program in b and reports how many bytes
// it used.
func (a *Allocator) DeserializePrefix(b []byte) (NodePtr, int, error) {
	return a.deserialize(b)
}

const (
	stepParse = iota
	stepCons
)

func (a *Allocator) deserialize(b []byte) (NodePtr, int, error) {
	var (
		values []NodePtr
		ops    = []int{stepParse}
		offset int
	)
	for len(ops) > 0 {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]

		if op == stepCons {
			rest := values[len(values)-1]
			first := values[len(values)-2]
			values = values[:len(values)-2]
			values = append(values, a.NewPair(first, rest))
			continue
		}

		if offset >= len(b) {
			return Nil, 0, ErrUnexpectedEOF
		}
		switch c := b[offset]; {
		case c == consBoxMarker:
			offset++
			ops = append(ops, stepCons, stepParse, stepParse)
		case c == backrefMarker:
			offset++
			if offset >= len(b) {
				return Nil, 0, ErrUnexpectedEOF
			}
			path, read, err := readAtom(b[offset:])
			if err != nil {
				return Nil, 0, err
			}
			offset += read
			n, err := a.traverseBackref(values, path)
			if err != nil {
				return Nil, 0, err
			}
			values = append(values, n)
		default:
			atom, read, err := readAtom(b[offset:])
			if err != nil {
				return Nil, 0, err
			}
			offset += read
			values = append(values, a.NewAtom(atom))
		}
	}
	return values[0], offset, nil
}

func readAtom(b []byte) ([]byte, int, error) {
	c := b[0]
	if c == 0x80 {
		return nil, 1, nil
	}
	if c <= 0x7f {
		return b[:1], 1, nil
	}
	prefix, size, err := decodeSize(b)
	if err != nil {
		return nil, 0, err
	}
	if len(b) < prefix+size {
		return nil, 0, ErrUnexpectedEOF
	}
	return b[prefix : prefix+size], prefix + size, nil
}

// traverseBackref follows a path atom over the stack of parsed values. The
// stack is treated as a list whose head is the most recently parsed value.
func (a *Allocator) traverseBackref(values []NodePtr, path []byte) (NodePtr, error) {
	if len(path) == 0 {
		return Nil, ErrInvalidBackref
	}
	stack := Nil
	for _, v := range values {
		stack = a.NewPair(v, stack)
	}
	node := stack
	for i := len(path) - 1; i >= 0; i-- {
		b := path[i]
		for bit := 0; bit < 8; bit++ {
			if i == 0 && b>>bit == 1 {
				return node, nil
			}
			first, rest, ok := a.Pair(node)
			if !ok {
				return Nil, ErrInvalidBackref
			}
			if (b>>bit)&1 == 1 {
				node = rest
			} else {
				node = first
			}
		}
	}
	return Nil, ErrInvalidBackref
}
