// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import "errors"

var (
	ErrBannedPeer     = errors.New("peer is banned")
	ErrUnknownNetwork = errors.New("unknown network")
)
