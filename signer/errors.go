// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import "errors"

var (
	ErrInfinityPublicKey = errors.New("signature required for the infinity public key")
	ErrUnknownAggSigKind = errors.New("unknown agg sig kind")
	ErrNoSigner          = errors.New("no signer configured")
)
