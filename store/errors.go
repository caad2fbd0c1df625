// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import "errors"

var (
	ErrWrongVersion    = errors.New("wrong version")
	ErrNotInitialized  = errors.New("store is not initialized")
	ErrNetworkMismatch = errors.New("store belongs to a different network")
	ErrPuzzleMismatch  = errors.New("puzzle reveal does not match its hash")
)
