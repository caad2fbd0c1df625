// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/protocol"
)

type idKind uint8

const (
	xchKind idKind = iota
	newKind
	existingKind
)

// ID names an asset within one set of spends. The zero value is XCH.
type ID struct {
	kind    idKind
	index   int
	assetID protocol.Bytes32
}

// Xch is the native asset.
var Xch = ID{}

// NewID is the asset created by the action at index.
func NewID(index int) ID { return ID{kind: newKind, index: index} }

// ExistingID is a CAT asset id or singleton launcher id.
func ExistingID(assetID protocol.Bytes32) ID { return ID{kind: existingKind, assetID: assetID} }

func (id ID) IsXch() bool { return id.kind == xchKind }

// AsNew returns the action index of an asset created by this set of spends.
func (id ID) AsNew() (int, bool) { return id.index, id.kind == newKind }

// AsExisting returns the asset id of an asset that already exists.
func (id ID) AsExisting() (protocol.Bytes32, bool) { return id.assetID, id.kind == existingKind }

func (id ID) String() string {
	switch id.kind {
	case newKind:
		return fmt.Sprintf("new(%d)", id.index)
	case existingKind:
		return id.assetID.String()
	default:
		return "xch"
	}
}
