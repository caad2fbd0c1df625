// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mips

import "errors"

var (
	ErrInvalidRequired = errors.New("invalid number of required members")
	ErrUnknownCoreMod  = errors.New("not a member puzzle template")
)
