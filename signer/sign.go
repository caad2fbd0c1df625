// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// Signer signs messages with the secret key behind a public key.
type Signer interface {
	Sign(publicKey protocol.Bytes48, message []byte) (protocol.Bytes96, error)
}

// Sign produces one signature per required signature and aggregates them.
// No required signatures yields the identity signature.
func Sign(s Signer, agg protocol.SignatureAggregator, required []RequiredSignature) (protocol.Bytes96, error) {
	if len(required) == 0 {
		return protocol.InfinityG2, nil
	}
	if s == nil {
		return protocol.Bytes96{}, ErrNoSigner
	}
	signatures := make([]protocol.Bytes96, 0, len(required))
	for _, r := range required {
		sig, err := s.Sign(r.PublicKey, r.Message())
		if err != nil {
			return protocol.Bytes96{}, err
		}
		signatures = append(signatures, sig)
	}
	if len(signatures) == 1 {
		return signatures[0], nil
	}
	if agg == nil {
		return protocol.Bytes96{}, protocol.ErrNoAggregator
	}
	return agg.Aggregate(signatures...)
}

// SignBundle signs coin spends into a spend bundle.
func SignBundle(
	ctx *driver.SpendContext,
	spends []protocol.CoinSpend,
	constants AggSigConstants,
	s Signer,
	agg protocol.SignatureAggregator,
) (protocol.SpendBundle, error) {
	required, err := FromCoinSpends(ctx, spends, constants)
	if err != nil {
		return protocol.SpendBundle{}, err
	}
	sig, err := Sign(s, agg, required)
	if err != nil {
		return protocol.SpendBundle{}, err
	}
	return protocol.NewSpendBundle(spends, sig), nil
}
