// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/klauspost/compress/zlib"

	"github.com/ava-labs/chiasdk/puzzles"
)

const (
	// CompressionVersion is written before every compressed offer. Older
	// versions are read with the same dictionary.
	CompressionVersion uint16 = 6

	compressionLevel = 6
	versionLen       = 2

	// Hrp is the human readable part of an encoded offer.
	Hrp = "offer"
)

// dictionaryMods are concatenated, in order, into the zlib dictionary.
var dictionaryMods = []string{
	puzzles.Standard,
	puzzles.CatV1,
	puzzles.SettlementPaymentV1,
	puzzles.SingletonTopLayer,
	puzzles.NftStateLayer,
	puzzles.NftOwnershipLayer,
	puzzles.NftMetadataUpdater,
	puzzles.NftRoyaltyTransfer,
	puzzles.Cat,
	puzzles.SettlementPayment,
}

// Dictionary returns the zlib dictionary. Templates that ship without a
// reveal must be supplied through puzzles.Attach or puzzles.LoadDir first.
func Dictionary() ([]byte, error) {
	var dict []byte
	for _, name := range dictionaryMods {
		m, ok := puzzles.Lookup(name)
		if !ok || !m.HasReveal() {
			return nil, fmt.Errorf("%w: %s", ErrMissingDictionaryMod, name)
		}
		dict = append(dict, m.Reveal...)
	}
	return dict, nil
}

// CompressBytes compresses a serialized offer bundle.
func CompressBytes(b []byte) ([]byte, error) {
	dict, err := Dictionary()
	if err != nil {
		return nil, err
	}
	return compress(b, dict)
}

// DecompressBytes reverses CompressBytes.
func DecompressBytes(b []byte) ([]byte, error) {
	dict, err := Dictionary()
	if err != nil {
		return nil, err
	}
	return decompress(b, dict)
}

func compress(b, dict []byte) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, versionLen, versionLen+len(b)))
	binary.BigEndian.PutUint16(out.Bytes(), CompressionVersion)

	w, err := zlib.NewWriterLevelDict(out, compressionLevel, dict)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decompress(b, dict []byte) ([]byte, error) {
	if len(b) < versionLen {
		return nil, ErrMissingVersionPrefix
	}
	if version := binary.BigEndian.Uint16(b); version > CompressionVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	stream := b[versionLen:]

	// A stream that inflates without the dictionary was never compressed
	// with it.
	r, err := zlib.NewReader(bytes.NewReader(stream))
	switch {
	case err == nil:
		_ = r.Close()
		return nil, ErrNotCompressed
	case !errors.Is(err, zlib.ErrDictionary):
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	r, err = zlib.NewReaderDict(bytes.NewReader(stream), dict)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return out, nil
}

// EncodeBytes encodes b as bech32m with the offer prefix. Offers are far
// longer than the usual bech32 limit.
func EncodeBytes(b []byte) (string, error) {
	data, err := bech32.ConvertBits(b, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(Hrp, data)
}

// DecodeBytes reverses EncodeBytes.
func DecodeBytes(text string) ([]byte, error) {
	hrp, data, version, err := bech32.DecodeNoLimitWithVersion(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if version != bech32.VersionM {
		return nil, ErrInvalidFormat
	}
	if hrp != Hrp {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrefix, hrp)
	}
	out, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return out, nil
}
