// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package puzzles

import (
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
)

// The helpers below derive puzzle hashes from curried arguments without
// allocating any CLVM. Each mirrors the argument order of its template.

func atomHash(b protocol.Bytes32) clvm.TreeHash { return clvm.HashAtom(b[:]) }

func optionalAtomHash(b *protocol.Bytes32) clvm.TreeHash {
	if b == nil {
		return clvm.NilHash()
	}
	return atomHash(*b)
}

// SingletonStructHash hashes (mod_hash . (launcher_id . launcher_puzzle_hash)).
func SingletonStructHash(launcherID protocol.Bytes32) clvm.TreeHash {
	return clvm.HashPair(
		clvm.HashAtom(SingletonTopLayerHash[:]),
		clvm.HashPair(atomHash(launcherID), clvm.HashAtom(SingletonLauncherHash[:])),
	)
}

// SingletonPuzzleHash wraps an inner puzzle hash in the singleton top layer.
func SingletonPuzzleHash(launcherID protocol.Bytes32, inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(SingletonTopLayerHash, SingletonStructHash(launcherID), inner)
}

// StandardPuzzleHash is the standard wallet puzzle of a synthetic key.
func StandardPuzzleHash(syntheticKey protocol.Bytes48) clvm.TreeHash {
	return clvm.CurryTreeHash(StandardHash, clvm.HashAtom(syntheticKey[:]))
}

// CatPuzzleHash wraps an inner puzzle hash in the CAT layer.
func CatPuzzleHash(assetID protocol.Bytes32, inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(CatHash, clvm.HashAtom(CatHash[:]), atomHash(assetID), inner)
}

// GenesisByCoinIDPuzzleHash is the TAIL that allows a single issuance from
// the given coin. Its hash is the asset id.
func GenesisByCoinIDPuzzleHash(genesisCoinID protocol.Bytes32) clvm.TreeHash {
	return clvm.CurryTreeHash(GenesisByCoinIDHash, atomHash(genesisCoinID))
}

// EverythingWithSignaturePuzzleHash is the TAIL controlled by a public key.
func EverythingWithSignaturePuzzleHash(publicKey protocol.Bytes48) clvm.TreeHash {
	return clvm.CurryTreeHash(EverythingWithSignatureHash, clvm.HashAtom(publicKey[:]))
}

// DidInnerPuzzleHash is the DID inner puzzle. A nil recovery list hash
// curries nil.
func DidInnerPuzzleHash(
	inner clvm.TreeHash,
	recoveryListHash *protocol.Bytes32,
	numVerificationsRequired uint64,
	launcherID protocol.Bytes32,
	metadata clvm.TreeHash,
) clvm.TreeHash {
	return clvm.CurryTreeHash(
		DidInnerHash,
		inner,
		optionalAtomHash(recoveryListHash),
		clvm.TreeHashUint64(numVerificationsRequired),
		SingletonStructHash(launcherID),
		metadata,
	)
}

// NftStatePuzzleHash wraps an inner puzzle hash in the NFT state layer.
func NftStatePuzzleHash(metadata clvm.TreeHash, updaterPuzzleHash protocol.Bytes32, inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(
		NftStateLayerHash,
		clvm.HashAtom(NftStateLayerHash[:]),
		metadata,
		atomHash(updaterPuzzleHash),
		inner,
	)
}

// NftOwnershipPuzzleHash wraps an inner puzzle hash in the NFT ownership
// layer. A nil owner curries nil.
func NftOwnershipPuzzleHash(currentOwner *protocol.Bytes32, transferProgram, inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(
		NftOwnershipLayerHash,
		clvm.HashAtom(NftOwnershipLayerHash[:]),
		optionalAtomHash(currentOwner),
		transferProgram,
		inner,
	)
}

// RoyaltyTransferPuzzleHash is the transfer program paying royalties.
func RoyaltyTransferPuzzleHash(launcherID, royaltyPuzzleHash protocol.Bytes32, royaltyBasisPoints uint16) clvm.TreeHash {
	return clvm.CurryTreeHash(
		NftRoyaltyTransferHash,
		SingletonStructHash(launcherID),
		atomHash(royaltyPuzzleHash),
		clvm.TreeHashUint64(uint64(royaltyBasisPoints)),
	)
}

// NftIntermediateLauncherPuzzleHash is the coin created per mint in a bulk
// mint; it creates the real launcher.
func NftIntermediateLauncherPuzzleHash(mintNumber, mintTotal uint64) clvm.TreeHash {
	return clvm.CurryTreeHash(
		NftIntermediateLauncherHash,
		clvm.HashAtom(SingletonLauncherHash[:]),
		clvm.TreeHashUint64(mintNumber),
		clvm.TreeHashUint64(mintTotal),
	)
}

// OptionContractPuzzleHash wraps an inner puzzle hash in the option layer.
func OptionContractPuzzleHash(underlyingCoinID, underlyingDelegatedPuzzleHash protocol.Bytes32, inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(
		OptionContractHash,
		clvm.HashAtom(OptionContractHash[:]),
		atomHash(underlyingCoinID),
		atomHash(underlyingDelegatedPuzzleHash),
		inner,
	)
}

// RestrictionsPuzzleHash wraps an inner puzzle hash with member and
// delegated puzzle validators.
func RestrictionsPuzzleHash(memberValidators, delegatedPuzzleValidators []clvm.TreeHash, inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(
		RestrictionsHash,
		clvm.HashList(memberValidators...),
		clvm.HashList(delegatedPuzzleValidators...),
		inner,
	)
}

// DelegatedFeederPuzzleHash wraps the top level member puzzle.
func DelegatedFeederPuzzleHash(inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(DelegatedFeederHash, inner)
}

// NonceWrapperPuzzleHash makes otherwise identical puzzles distinct.
func NonceWrapperPuzzleHash(nonce clvm.TreeHash, inner clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(NonceWrapperHash, nonce, inner)
}

// P2MOfNDelegateDirectPuzzleHash is the m-of-n multisig used by action layer
// singletons.
func P2MOfNDelegateDirectPuzzleHash(m uint64, publicKeys []protocol.Bytes48) clvm.TreeHash {
	keys := make([]clvm.TreeHash, len(publicKeys))
	for i, pk := range publicKeys {
		keys[i] = clvm.HashAtom(pk[:])
	}
	return clvm.CurryTreeHash(P2MOfNDelegateDirectHash, clvm.TreeHashUint64(m), clvm.HashList(keys...))
}

// StateSchedulerPuzzleHash sends message to a receiver singleton before
// handing control to inner.
func StateSchedulerPuzzleHash(receiverLauncherID protocol.Bytes32, message, inner clvm.TreeHash) clvm.TreeHash {
	receiver := SingletonStructHash(receiverLauncherID)
	return clvm.CurryTreeHash(
		StateSchedulerHash,
		clvm.HashAtom(SingletonTopLayerHash[:]),
		clvm.HashAtom(receiver[:]),
		message,
		inner,
	)
}

// ActionLayerPuzzleHash commits to a finalizer, a merkle root of action
// puzzle hashes and the current state.
func ActionLayerPuzzleHash(finalizer clvm.TreeHash, merkleRoot protocol.Bytes32, state clvm.TreeHash) clvm.TreeHash {
	return clvm.CurryTreeHash(ActionLayerHash, finalizer, atomHash(merkleRoot), state)
}

// DefaultFinalizerPuzzleHash is the default finalizer, curried twice so that
// it knows its own hash.
func DefaultFinalizerPuzzleHash(hint protocol.Bytes32) clvm.TreeHash {
	first := clvm.CurryTreeHash(DefaultFinalizerHash, clvm.HashAtom(ActionLayerHash[:]), atomHash(hint))
	return clvm.CurryTreeHash(first, clvm.HashAtom(first[:]))
}

// P2DelegatedSingletonPuzzleHash lets the singleton with launcherID spend
// the coin with a delegated puzzle.
func P2DelegatedSingletonPuzzleHash(launcherID protocol.Bytes32) clvm.TreeHash {
	return clvm.CurryTreeHash(
		P2DelegatedSingletonHash,
		clvm.HashAtom(SingletonTopLayerHash[:]),
		atomHash(launcherID),
		clvm.HashAtom(SingletonLauncherHash[:]),
	)
}

// P2SingletonMessagePuzzleHash lets the singleton with launcherID spend the
// coin by sending it a message.
func P2SingletonMessagePuzzleHash(launcherID protocol.Bytes32) clvm.TreeHash {
	structHash := SingletonStructHash(launcherID)
	return clvm.CurryTreeHash(
		P2SingletonMessageHash,
		clvm.HashAtom(SingletonTopLayerHash[:]),
		clvm.HashAtom(structHash[:]),
	)
}
