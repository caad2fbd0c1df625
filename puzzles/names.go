// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package puzzles

import (
	"github.com/ava-labs/chiasdk/clvm"
)

// Names of the templates shipped with the module.
const (
	SingletonTopLayer        = "singleton_top_layer_v1_1"
	SingletonLauncher        = "singleton_launcher"
	Standard                 = "p2_delegated_puzzle_or_hidden"
	SettlementPayment        = "settlement_payment"
	SettlementPaymentV1      = "settlement_payment_v1"
	CatV1                    = "cat_v1"
	DidInner                 = "did_innerpuz"
	NftStateLayer            = "nft_state_layer"
	NftOwnershipLayer        = "nft_ownership_layer"
	NftIntermediateLauncher  = "nft_intermediate_launcher"
	GenesisByCoinID          = "genesis_by_coin_id"
	EverythingWithSignature  = "everything_with_signature"
	OptionContract           = "option_contract"
	Restrictions             = "restrictions"
	DelegatedFeeder          = "delegated_feeder"
	P2MOfNDelegateDirect     = "p2_m_of_n_delegate_direct"
	StateScheduler           = "state_scheduler"
	ActionLayer              = "action_layer"
	DefaultFinalizer         = "default_finalizer"
	NonceWrapper             = "nonce_wrapper"
	P2SingletonMessage       = "p2_singleton_message"
	P2DelegatedSingleton     = "p2_delegated_singleton"
	P2ConditionsOptions      = "p2_conditions_options"
	AnyMetadataUpdater       = "any_metadata_updater"
	P2DelegatedSingletonMsg  = "p2_delegated_singleton_message"
	UniquenessPrelauncher    = "uniqueness_prelauncher"
	ReserveFinalizer         = "reserve_finalizer"
	DelegatedStateAction     = "delegated_state_action"
	Slot                     = "slot"
	VerificationLayer        = "verification_layer"
	PrecommitLayer           = "precommit_layer"
	RevocableCatMaker        = "revocable_cat_maker"
	DefaultCatMaker          = "default_cat_maker"
	P2ControllerPuzzle       = "p2_controller_puzzle"
	CustomP2                 = "custom_p2"
	DelegationLayer          = "delegation_layer"
	RecoveryRestriction      = "recovery"
	PasskeyMember            = "passkey_member"
	P2Eip712Message          = "p2_eip712_message"
	CatalogRegister          = "catalog_register"
	XchandlesRegister        = "xchandles_register"
	RewardDistributorStake   = "reward_distributor_stake"
	RewardDistributorUnstake = "reward_distributor_unstake"

	// Templates known only by hash. Their reveals are attached at runtime,
	// from spends seen on chain or through LoadDir.
	Cat                = "cat_v2"
	NftRoyaltyTransfer = "nft_ownership_transfer_program_one_way_claim_with_royalties"
	NftMetadataUpdater = "nft_metadata_updater_default"

	// Templates with neither hash nor reveal shipped. They must be provided
	// through Register before use.
	IndexWrapper                   = "index_wrapper"
	OneOfN                         = "1_of_n"
	MOfN                           = "m_of_n"
	NOfN                           = "n_of_n"
	EnforceDelegatedPuzzleWrappers = "enforce_delegated_puzzle_wrappers"
	AddDelegatedPuzzleWrapper      = "add_delegated_puzzle_wrapper"
	SingletonMember                = "singleton_member"
	AugmentedCondition             = "augmented_condition"
	P2OneOfMany                    = "p2_1_of_n"
)

var hashOnlyMods = map[string]clvm.TreeHash{
	Cat:                clvm.MustTreeHash("37bef360ee858133b69d595a906dc45d01af50379dad515eb9518abb7c1d2a7a"),
	NftRoyaltyTransfer: clvm.MustTreeHash("025dee0fb1e9fa110302a7e9bfb6e381ca09618e2778b0184fa5c6b275cfce1f"),
	NftMetadataUpdater: clvm.MustTreeHash("fe8a4b4e27a2e29a4d3fc7ce9d527adbcaccbab6ada3903ccf3ba9a769d2d78b"),
}

// Tree hashes of the templates used when deriving puzzle hashes.
var (
	SingletonTopLayerHash       = clvm.MustTreeHash("7faa3253bfddd1e0decb0906b2dc6247bbc4cf608f58345d173adb63e8b47c9f")
	SingletonLauncherHash       = clvm.MustTreeHash("eff07522495060c066f66f32acc2a77e3a3e737aca8baea4d1a64ea4cdc13da9")
	StandardHash                = clvm.MustTreeHash("e9aaa49f45bad5c889b86ee3341550c155cfdd10c3a6757de618d20612fffd52")
	SettlementPaymentHash       = clvm.MustTreeHash("cfbfdeed5c4ca2de3d0bf520b9cb4bb7743a359bd2e6a188d19ce7dffc21d3e7")
	SettlementPaymentV1Hash     = clvm.MustTreeHash("bae24162efbd568f89bc7a340798a6118df0189eb9e3f8697bcea27af99f8f79")
	CatV1Hash                   = clvm.MustTreeHash("72dec062874cd4d3aab892a0906688a1ae412b0109982e1797a170add88bdcdc")
	CatHash                     = hashOnlyMods[Cat]
	DidInnerHash                = clvm.MustTreeHash("33143d2bef64f14036742673afd158126b94284b4530a28c354fac202b0c910e")
	NftStateLayerHash           = clvm.MustTreeHash("a04d9f57764f54a43e4030befb4d80026e870519aaa66334aef8304f5d0393c2")
	NftOwnershipLayerHash       = clvm.MustTreeHash("c5abea79afaa001b5427dfa0c8cf42ca6f38f5841b78f9b3c252733eb2de2726")
	NftRoyaltyTransferHash      = hashOnlyMods[NftRoyaltyTransfer]
	NftMetadataUpdaterHash      = hashOnlyMods[NftMetadataUpdater]
	NftIntermediateLauncherHash = clvm.MustTreeHash("7a32d2d9571d3436791c0ad3d7fcfdb9c43ace2b0f0ff13f98d29f0cc093f445")
	GenesisByCoinIDHash         = clvm.MustTreeHash("493afb89eed93ab86741b2aa61b8f5de495d33ff9b781dfc8919e602b2afa150")
	EverythingWithSignatureHash = clvm.MustTreeHash("1720d13250a7c16988eaf530331cefa9dd57a76b2c82236bec8bbbff91499b89")
	OptionContractHash          = clvm.MustTreeHash("5a084d1786fc0fe43c30bc5fc0233cc1a791cfde3a25580a9ca4883878f0ba63")
	RestrictionsHash            = clvm.MustTreeHash("a28d59d39f964a93159c986b1914694f6f2f1c9901178f91e8b0ba4045980eef")
	DelegatedFeederHash         = clvm.MustTreeHash("9db33d93853179903d4dd272a00345ee6630dc94907dbcdd96368df6931060fd")
	P2MOfNDelegateDirectHash    = clvm.MustTreeHash("0f199d5263ac1a62b077c159404a71abd3f9691cc57520bf1d4c5cb501504457")
	StateSchedulerHash          = clvm.MustTreeHash("13fe7833751a6fe582caa09d48978d8d1b016d224cb0c10e538184ab22df9c13")
	ActionLayerHash             = clvm.MustTreeHash("45dee8d1a78d7509b7cb46e4593e430a54d598e708b677eba33c36eda29aa707")
	DefaultFinalizerHash        = clvm.MustTreeHash("34b1f957ca3ba935921c32625cd432316ae71344977d96b4ffc5243c7d08d781")
	NonceWrapperHash            = clvm.MustTreeHash("847d971ef523417d555ea9854b1612837155d34d453298defcd310774305f657")
	P2SingletonMessageHash      = clvm.MustTreeHash("bd31c364428099b3049fd406ce88d2eef3fb877dfcb3495cb1a9e878f25aa669")
	P2DelegatedSingletonHash    = clvm.MustTreeHash("2cadfbf73f1ff120d708ad2fefad1c78eefb8d874231bc87eac7c2df5eeb904a")
	P2ConditionsOptionsHash     = clvm.MustTreeHash("e82e42b272a903ddd9c279d291487655e4e08883829dbb8086af91bd9b8afc3e")
	AnyMetadataUpdaterHash      = clvm.MustTreeHash("9f28d55242a3bd2b3661c38ba8647392c26bb86594050ea6d33aad1725ca3eea")

	// DefaultHiddenPuzzleHash is the hidden puzzle used by standard wallets.
	DefaultHiddenPuzzleHash = clvm.MustTreeHash("711d6c4e32c92e53179b199484cf8c897542bc57f2b22582799f9d657eec4699")
)
