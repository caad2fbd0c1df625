// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// WrongLengthError is returned when a fixed size value is built from a slice
// of the wrong length.
type WrongLengthError struct {
	Expected int
	Found    int
}

func (e *WrongLengthError) Error() string {
	return fmt.Sprintf("wrong length, expected %d bytes, found %d", e.Expected, e.Found)
}

// Bytes32 is a puzzle hash, coin id or asset id.
type Bytes32 [32]byte

// Bytes48 is a serialized BLS public key.
type Bytes48 [48]byte

// Bytes96 is a serialized BLS signature.
type Bytes96 [96]byte

func decodeFixed(s string, out []byte) error {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return err
	}
	return copyFixed(b, out)
}

func copyFixed(b []byte, out []byte) error {
	if len(b) != len(out) {
		return &WrongLengthError{Expected: len(out), Found: len(b)}
	}
	copy(out, b)
	return nil
}

func encodeFixed(b []byte) string { return "0x" + hex.EncodeToString(b) }

func marshalFixed(b []byte) ([]byte, error) { return json.Marshal(encodeFixed(b)) }

func unmarshalFixed(data []byte, out []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return decodeFixed(s, out)
}

// Bytes32FromSlice copies b into a Bytes32.
func Bytes32FromSlice(b []byte) (Bytes32, error) {
	var out Bytes32
	err := copyFixed(b, out[:])
	return out, err
}

// Bytes32FromHex parses an optionally 0x prefixed hex string.
func Bytes32FromHex(s string) (Bytes32, error) {
	var out Bytes32
	err := decodeFixed(s, out[:])
	return out, err
}

func (b Bytes32) String() string                   { return encodeFixed(b[:]) }
func (b Bytes32) MarshalJSON() ([]byte, error)     { return marshalFixed(b[:]) }
func (b *Bytes32) UnmarshalJSON(data []byte) error { return unmarshalFixed(data, b[:]) }

// IsZero reports whether every byte is zero.
func (b Bytes32) IsZero() bool { return b == Bytes32{} }

// Bytes48FromSlice copies b into a Bytes48.
func Bytes48FromSlice(b []byte) (Bytes48, error) {
	var out Bytes48
	err := copyFixed(b, out[:])
	return out, err
}

func (b Bytes48) String() string                   { return encodeFixed(b[:]) }
func (b Bytes48) MarshalJSON() ([]byte, error)     { return marshalFixed(b[:]) }
func (b *Bytes48) UnmarshalJSON(data []byte) error { return unmarshalFixed(data, b[:]) }

// Bytes96FromSlice copies b into a Bytes96.
func Bytes96FromSlice(b []byte) (Bytes96, error) {
	var out Bytes96
	err := copyFixed(b, out[:])
	return out, err
}

func (b Bytes96) String() string                   { return encodeFixed(b[:]) }
func (b Bytes96) MarshalJSON() ([]byte, error)     { return marshalFixed(b[:]) }
func (b *Bytes96) UnmarshalJSON(data []byte) error { return unmarshalFixed(data, b[:]) }

// InfinityG2 is the identity signature, used when a bundle needs no
// signatures.
var InfinityG2 = func() Bytes96 {
	var sig Bytes96
	sig[0] = 0xc0
	return sig
}()

// InfinityG1 is the identity public key. Nothing can be signed for it.
var InfinityG1 = func() Bytes48 {
	var key Bytes48
	key[0] = 0xc0
	return key
}()
