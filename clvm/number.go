// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

import (
	"math/big"
)

// EncodeUint64 returns the minimal signed big-endian encoding of v. Zero
// encodes as the empty atom.
func EncodeUint64(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [9]byte
	for i := 8; i > 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	start := 0
	for start < 8 && buf[start] == 0 && buf[start+1]&0x80 == 0 {
		start++
	}
	out := make([]byte, 9-start)
	copy(out, buf[start:])
	return out
}

// EncodeInt64 returns the minimal two's complement encoding of v.
func EncodeInt64(v int64) []byte {
	return EncodeBigInt(big.NewInt(v))
}

// EncodeBigInt returns the minimal two's complement big-endian encoding.
func EncodeBigInt(v *big.Int) []byte {
	switch v.Sign() {
	case 0:
		return nil
	case 1:
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// two's complement of a negative value over the minimal byte width
	n := new(big.Int).Neg(v)
	size := len(n.Bytes())
	mod := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
	tc := new(big.Int).Add(mod, v)
	b := tc.Bytes()
	for len(b) < size {
		b = append([]byte{0}, b...)
	}
	if b[0]&0x80 == 0 {
		b = append([]byte{0xff}, b...)
	}
	// strip redundant leading 0xff bytes
	for len(b) > 1 && b[0] == 0xff && b[1]&0x80 != 0 {
		b = b[1:]
	}
	return b
}

// DecodeBigInt interprets b as a two's complement big-endian integer.
func DecodeBigInt(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		v.Sub(v, mod)
	}
	return v
}

// DecodeUint64 reads a non-negative integer atom that fits in 64 bits.
func DecodeUint64(b []byte) (uint64, error) {
	v := DecodeBigInt(b)
	if v.Sign() < 0 {
		return 0, ErrNegativeInteger
	}
	if !v.IsUint64() {
		return 0, ErrIntegerOverflow
	}
	return v.Uint64(), nil
}

// NewUint64 allocates an integer atom.
func (a *Allocator) NewUint64(v uint64) NodePtr {
	return a.NewAtom(EncodeUint64(v))
}

// NewInt64 allocates a signed integer atom.
func (a *Allocator) NewInt64(v int64) NodePtr {
	return a.NewAtom(EncodeInt64(v))
}

// NewBigInt allocates an arbitrary precision integer atom.
func (a *Allocator) NewBigInt(v *big.Int) NodePtr {
	return a.NewAtom(EncodeBigInt(v))
}

// Uint64 reads an atom as an unsigned 64-bit integer.
func (a *Allocator) Uint64(n NodePtr) (uint64, error) {
	if !a.IsAtom(n) {
		return 0, ErrExpectedAtom
	}
	return DecodeUint64(a.Atom(n))
}

// Int64 reads an atom as a signed 64-bit integer.
func (a *Allocator) Int64(n NodePtr) (int64, error) {
	if !a.IsAtom(n) {
		return 0, ErrExpectedAtom
	}
	v := DecodeBigInt(a.Atom(n))
	if !v.IsInt64() {
		return 0, ErrIntegerOverflow
	}
	return v.Int64(), nil
}

// BigInt reads an atom as an arbitrary precision integer.
func (a *Allocator) BigInt(n NodePtr) (*big.Int, error) {
	if !a.IsAtom(n) {
		return nil, ErrExpectedAtom
	}
	return DecodeBigInt(a.Atom(n)), nil
}

// Bytes32 reads a 32 byte atom.
func (a *Allocator) Bytes32(n NodePtr) ([32]byte, error) {
	var out [32]byte
	if !a.IsAtom(n) {
		return out, ErrExpectedAtom
	}
	b := a.Atom(n)
	if len(b) != 32 {
		return out, ErrInvalidHash
	}
	copy(out[:], b)
	return out, nil
}
