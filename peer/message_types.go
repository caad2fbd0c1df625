// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

// MessageType identifies a peer protocol message.
type MessageType uint8

const (
	Handshake MessageType = 1

	HarvesterHandshake MessageType = 3
	NewProofOfSpace    MessageType = 5
	RequestSignatures  MessageType = 6
	RespondSignatures  MessageType = 7

	NewSignagePoint     MessageType = 8
	DeclareProofOfSpace MessageType = 9
	RequestSignedValues MessageType = 10
	SignedValues        MessageType = 11
	FarmingInfo         MessageType = 12
	NewPeakTimelord     MessageType = 13

	NewUnfinishedBlockTimelord MessageType = 14
	NewInfusionPointVdf        MessageType = 15
	NewSignagePointVdf         MessageType = 16
	NewEndOfSubSlotVdf         MessageType = 17
	RequestCompactProofOfTime  MessageType = 18
	RespondCompactProofOfTime  MessageType = 19

	NewPeak                           MessageType = 20
	NewTransaction                    MessageType = 21
	RequestTransaction                MessageType = 22
	RespondTransaction                MessageType = 23
	RequestProofOfWeight              MessageType = 24
	RespondProofOfWeight              MessageType = 25
	RequestBlock                      MessageType = 26
	RespondBlock                      MessageType = 27
	RejectBlock                       MessageType = 28
	RequestBlocks                     MessageType = 29
	RespondBlocks                     MessageType = 30
	RejectBlocks                      MessageType = 31
	NewUnfinishedBlock                MessageType = 32
	RequestUnfinishedBlock            MessageType = 33
	RespondUnfinishedBlock            MessageType = 34
	NewSignagePointOrEndOfSubSlot     MessageType = 35
	RequestSignagePointOrEndOfSubSlot MessageType = 36
	RespondSignagePoint               MessageType = 37
	RespondEndOfSubSlot               MessageType = 38
	RequestMempoolTransactions        MessageType = 39
	RequestCompactVDF                 MessageType = 40
	RespondCompactVDF                 MessageType = 41
	NewCompactVDF                     MessageType = 42
	RequestPeers                      MessageType = 43
	RespondPeers                      MessageType = 44

	RequestPuzzleSolution    MessageType = 45
	RespondPuzzleSolution    MessageType = 46
	RejectPuzzleSolution     MessageType = 47
	SendTransaction          MessageType = 48
	TransactionAck           MessageType = 49
	NewPeakWallet            MessageType = 50
	RequestBlockHeader       MessageType = 51
	RespondBlockHeader       MessageType = 52
	RejectHeaderRequest      MessageType = 53
	RequestRemovals          MessageType = 54
	RespondRemovals          MessageType = 55
	RejectRemovalsRequest    MessageType = 56
	RequestAdditions         MessageType = 57
	RespondAdditions         MessageType = 58
	RejectAdditionsRequest   MessageType = 59
	RequestHeaderBlocks      MessageType = 60
	RejectHeaderBlocks       MessageType = 61
	RespondHeaderBlocks      MessageType = 62
	RequestPeersIntroducer   MessageType = 63
	RespondPeersIntroducer   MessageType = 64
	FarmNewBlock             MessageType = 65
	NewSignagePointHarvester MessageType = 66
	RequestPlots             MessageType = 67
	RespondPlots             MessageType = 68

	CoinStateUpdate        MessageType = 69
	RegisterForPhUpdates   MessageType = 70
	RespondToPhUpdates     MessageType = 71
	RegisterForCoinUpdates MessageType = 72
	RespondToCoinUpdates   MessageType = 73
	RequestChildren        MessageType = 74
	RespondChildren        MessageType = 75
	RequestSesHashes       MessageType = 76
	RespondSesHashes       MessageType = 77

	PlotSyncStart       MessageType = 78
	PlotSyncLoaded      MessageType = 79
	PlotSyncRemoved     MessageType = 80
	PlotSyncInvalid     MessageType = 81
	PlotSyncKeysMissing MessageType = 82
	PlotSyncDuplicates  MessageType = 83
	PlotSyncDone        MessageType = 84
	PlotSyncResponse    MessageType = 85

	RequestBlockHeaders MessageType = 86
	RejectBlockHeaders  MessageType = 87
	RespondBlockHeaders MessageType = 88
	RequestFeeEstimates MessageType = 89
	RespondFeeEstimates MessageType = 90
	NoneResponse        MessageType = 91

	NewUnfinishedBlock2     MessageType = 92
	RequestUnfinishedBlock2 MessageType = 93

	RequestRemovePuzzleSubscriptions MessageType = 94
	RespondRemovePuzzleSubscriptions MessageType = 95
	RequestRemoveCoinSubscriptions   MessageType = 96
	RespondRemoveCoinSubscriptions   MessageType = 97
	RequestPuzzleState               MessageType = 98
	RespondPuzzleState               MessageType = 99
	RejectPuzzleState                MessageType = 100
	RequestCoinState                 MessageType = 101
	RespondCoinState                 MessageType = 102
	RejectCoinState                  MessageType = 103
)
