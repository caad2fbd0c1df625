// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

// RateLimit bounds one message type over a period.
type RateLimit struct {
	Frequency float64
	MaxSize   float64

	// MaxTotalSize defaults to Frequency * MaxSize when zero.
	MaxTotalSize float64
}

func newRateLimit(frequency, maxSize float64) RateLimit {
	return RateLimit{Frequency: frequency, MaxSize: maxSize}
}

func newRateLimitTotal(frequency, maxSize, maxTotalSize float64) RateLimit {
	return RateLimit{Frequency: frequency, MaxSize: maxSize, MaxTotalSize: maxTotalSize}
}

func (l RateLimit) totalSize() float64 {
	if l.MaxTotalSize == 0 {
		return l.Frequency * l.MaxSize
	}
	return l.MaxTotalSize
}

// RateLimits is a table of per message limits. Messages in Other also count
// towards the shared non transaction limits. Messages in neither table use
// Default.
type RateLimits struct {
	Default           RateLimit
	NonTxFrequency    float64
	NonTxMaxTotalSize float64
	Tx                map[MessageType]RateLimit
	Other             map[MessageType]RateLimit
}

// Extend overrides r with the settings of other.
func (r *RateLimits) Extend(other RateLimits) {
	r.Default = other.Default
	r.NonTxFrequency = other.NonTxFrequency
	r.NonTxMaxTotalSize = other.NonTxMaxTotalSize
	if r.Tx == nil {
		r.Tx = make(map[MessageType]RateLimit, len(other.Tx))
	}
	for k, v := range other.Tx {
		r.Tx[k] = v
	}
	if r.Other == nil {
		r.Other = make(map[MessageType]RateLimit, len(other.Other))
	}
	for k, v := range other.Other {
		r.Other[k] = v
	}
}

// Limit returns the limit of msgType and whether it is a non transaction
// message.
func (r *RateLimits) Limit(msgType MessageType) (RateLimit, bool) {
	if l, ok := r.Tx[msgType]; ok {
		return l, false
	}
	if l, ok := r.Other[msgType]; ok {
		return l, true
	}
	return r.Default, false
}

const mib = 1 << 20

var defaultRateLimit = newRateLimitTotal(100, mib, 100*mib)

// V1RateLimits returns a fresh copy of the original limits table.
func V1RateLimits() RateLimits {
	return RateLimits{
		Default:           defaultRateLimit,
		NonTxFrequency:    1000,
		NonTxMaxTotalSize: 100 * mib,
		Tx: map[MessageType]RateLimit{
			NewTransaction:     newRateLimitTotal(5000, 100, 5000*100),
			RequestTransaction: newRateLimitTotal(5000, 100, 5000*100),
			RespondTransaction: newRateLimitTotal(5000, mib, 20*mib),
			SendTransaction:    newRateLimit(5000, mib),
			TransactionAck:     newRateLimit(5000, 2048),
		},
		Other: map[MessageType]RateLimit{
			Handshake:                         newRateLimitTotal(5, 10*1024, 5*10*1024),
			HarvesterHandshake:                newRateLimit(5, mib),
			NewSignagePointHarvester:          newRateLimit(100, 4886),
			NewProofOfSpace:                   newRateLimit(100, 2048),
			RequestSignatures:                 newRateLimit(100, 2048),
			RespondSignatures:                 newRateLimit(100, 2048),
			NewSignagePoint:                   newRateLimit(200, 2048),
			DeclareProofOfSpace:               newRateLimit(100, 10*1024),
			RequestSignedValues:               newRateLimit(100, 10*1024),
			FarmingInfo:                       newRateLimit(100, 1024),
			SignedValues:                      newRateLimit(100, 1024),
			NewPeakTimelord:                   newRateLimit(100, 20*1024),
			NewUnfinishedBlockTimelord:        newRateLimit(100, 10*1024),
			NewSignagePointVdf:                newRateLimit(100, 100*1024),
			NewInfusionPointVdf:               newRateLimit(100, 100*1024),
			NewEndOfSubSlotVdf:                newRateLimit(100, 100*1024),
			RequestCompactProofOfTime:         newRateLimit(100, 10*1024),
			RespondCompactProofOfTime:         newRateLimit(100, 100*1024),
			NewPeak:                           newRateLimit(200, 512),
			RequestProofOfWeight:              newRateLimit(5, 100),
			RespondProofOfWeight:              newRateLimitTotal(5, 50*mib, 100*mib),
			RequestBlock:                      newRateLimit(200, 100),
			RejectBlock:                       newRateLimit(200, 100),
			RequestBlocks:                     newRateLimit(500, 100),
			RespondBlocks:                     newRateLimitTotal(100, 50*mib, 5*50*mib),
			RejectBlocks:                      newRateLimit(100, 100),
			RespondBlock:                      newRateLimitTotal(200, 2*mib, 10*2*mib),
			NewUnfinishedBlock:                newRateLimit(200, 100),
			RequestUnfinishedBlock:            newRateLimit(200, 100),
			NewUnfinishedBlock2:               newRateLimit(200, 100),
			RequestUnfinishedBlock2:           newRateLimit(200, 100),
			RespondUnfinishedBlock:            newRateLimitTotal(200, 2*mib, 10*2*mib),
			NewSignagePointOrEndOfSubSlot:     newRateLimit(200, 200),
			RequestSignagePointOrEndOfSubSlot: newRateLimit(200, 200),
			RespondSignagePoint:               newRateLimit(200, 50*1024),
			RespondEndOfSubSlot:               newRateLimit(100, 50*1024),
			RequestMempoolTransactions:        newRateLimit(5, mib),
			RequestCompactVDF:                 newRateLimit(200, 1024),
			RespondCompactVDF:                 newRateLimit(200, 100*1024),
			NewCompactVDF:                     newRateLimit(100, 1024),
			RequestPeers:                      newRateLimit(10, 100),
			RespondPeers:                      newRateLimit(10, mib),
			RequestPuzzleSolution:             newRateLimit(1000, 100),
			RespondPuzzleSolution:             newRateLimit(1000, mib),
			RejectPuzzleSolution:              newRateLimit(1000, 100),
			NewPeakWallet:                     newRateLimit(200, 300),
			RequestBlockHeader:                newRateLimit(500, 100),
			RespondBlockHeader:                newRateLimit(500, 500*1024),
			RejectHeaderRequest:               newRateLimit(500, 100),
			RequestRemovals:                   newRateLimitTotal(500, 50*1024, 10*mib),
			RespondRemovals:                   newRateLimitTotal(500, mib, 10*mib),
			RejectRemovalsRequest:             newRateLimit(500, 100),
			RequestAdditions:                  newRateLimitTotal(500, mib, 10*mib),
			RespondAdditions:                  newRateLimitTotal(500, mib, 10*mib),
			RejectAdditionsRequest:            newRateLimit(500, 100),
			RequestHeaderBlocks:               newRateLimit(500, 100),
			RejectHeaderBlocks:                newRateLimit(100, 100),
			RespondHeaderBlocks:               newRateLimitTotal(500, 2*mib, 100*mib),
			RequestPeersIntroducer:            newRateLimit(100, 100),
			RespondPeersIntroducer:            newRateLimit(100, mib),
			FarmNewBlock:                      newRateLimit(200, 200),
			RequestPlots:                      newRateLimit(10, 10*mib),
			RespondPlots:                      newRateLimit(10, 100*mib),
			PlotSyncStart:                     newRateLimit(1000, 100*mib),
			PlotSyncLoaded:                    newRateLimit(1000, 100*mib),
			PlotSyncRemoved:                   newRateLimit(1000, 100*mib),
			PlotSyncInvalid:                   newRateLimit(1000, 100*mib),
			PlotSyncKeysMissing:               newRateLimit(1000, 100*mib),
			PlotSyncDuplicates:                newRateLimit(1000, 100*mib),
			PlotSyncDone:                      newRateLimit(1000, 100*mib),
			PlotSyncResponse:                  newRateLimit(3000, 100*mib),
			CoinStateUpdate:                   newRateLimit(1000, 100*mib),
			RegisterForPhUpdates:              newRateLimit(1000, 100*mib),
			RespondToPhUpdates:                newRateLimit(1000, 100*mib),
			RegisterForCoinUpdates:            newRateLimit(1000, 100*mib),
			RespondToCoinUpdates:              newRateLimit(1000, 100*mib),
			RequestRemovePuzzleSubscriptions:  newRateLimit(1000, 100*mib),
			RespondRemovePuzzleSubscriptions:  newRateLimit(1000, 100*mib),
			RequestRemoveCoinSubscriptions:    newRateLimit(1000, 100*mib),
			RespondRemoveCoinSubscriptions:    newRateLimit(1000, 100*mib),
			RequestPuzzleState:                newRateLimit(1000, 100*mib),
			RespondPuzzleState:                newRateLimit(1000, 100*mib),
			RejectPuzzleState:                 newRateLimit(200, 100),
			RequestCoinState:                  newRateLimit(1000, 100*mib),
			RespondCoinState:                  newRateLimit(1000, 100*mib),
			RejectCoinState:                   newRateLimit(200, 100),
			RequestChildren:                   newRateLimit(2000, mib),
			RespondChildren:                   newRateLimit(2000, mib),
		},
	}
}

func v2RateLimitChanges() RateLimits {
	return RateLimits{
		Default:           defaultRateLimit,
		NonTxFrequency:    1000,
		NonTxMaxTotalSize: 100 * mib,
		Tx: map[MessageType]RateLimit{
			RequestBlockHeader:     newRateLimit(500, 100),
			RespondBlockHeader:     newRateLimit(500, 500*1024),
			RejectHeaderRequest:    newRateLimit(500, 100),
			RequestRemovals:        newRateLimitTotal(5000, 50*1024, 10*mib),
			RespondRemovals:        newRateLimitTotal(5000, mib, 10*mib),
			RejectRemovalsRequest:  newRateLimit(500, 100),
			RequestAdditions:       newRateLimit(50000, 100*mib),
			RespondAdditions:       newRateLimit(50000, 100*mib),
			RejectAdditionsRequest: newRateLimit(500, 100),
			RejectHeaderBlocks:     newRateLimit(1000, 100),
			RespondHeaderBlocks:    newRateLimit(5000, 2*mib),
			RequestBlockHeaders:    newRateLimit(5000, 100),
			RejectBlockHeaders:     newRateLimit(1000, 100),
			RespondBlockHeaders:    newRateLimit(5000, 2*mib),
			RequestChildren:        newRateLimit(2000, mib),
			RespondChildren:        newRateLimit(2000, mib),
			RequestPuzzleSolution:  newRateLimit(5000, 100),
			RespondPuzzleSolution:  newRateLimit(5000, mib),
			RejectPuzzleSolution:   newRateLimit(5000, 100),
			NoneResponse:           newRateLimit(500, 100),
		},
		Other: map[MessageType]RateLimit{
			RequestHeaderBlocks: newRateLimit(5000, 100),
		},
	}
}

// V2RateLimits returns the V1 table with the V2 changes applied. Several
// wallet messages move to the transaction table.
func V2RateLimits() RateLimits {
	limits := V1RateLimits()
	limits.Extend(v2RateLimitChanges())
	return limits
}
