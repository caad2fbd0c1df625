// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package conditions

import (
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// AnnouncementID is the id asserted for an announcement made by from, which
// is a coin id or a puzzle hash depending on the announcement kind.
func AnnouncementID(from protocol.Bytes32, message []byte) protocol.Bytes32 {
	buf := make([]byte, 0, len(from)+len(message))
	buf = append(buf, from[:]...)
	buf = append(buf, message...)
	return hashing.ComputeHash256Array(buf)
}

// PaymentAssertion asserts that the settlement coin with puzzleHash pays np.
func PaymentAssertion(puzzleHash protocol.Bytes32, np puzzles.NotarizedPayment) AssertPuzzleAnnouncement {
	message := np.TreeHash()
	return AssertPuzzleAnnouncement{AnnouncementID: AnnouncementID(puzzleHash, message[:])}
}
