// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package conditions

import "errors"

var (
	ErrInvalidCondition = errors.New("invalid condition")
	ErrMissingArgument  = errors.New("missing condition argument")
)
