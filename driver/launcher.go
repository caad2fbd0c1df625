// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// Launcher creates a singleton. The parent coin must output Conditions for
// the launcher to be valid.
type Launcher struct {
	coin            protocol.Coin
	conditions      conditions.Conditions
	singletonAmount uint64
}

// LauncherFromCoin wraps an existing launcher coin. conds are the
// conditions still owed by its parent.
func LauncherFromCoin(coin protocol.Coin, conds conditions.Conditions) *Launcher {
	return &Launcher{coin: coin, conditions: conds, singletonAmount: coin.Amount}
}

// NewLauncher returns a launcher created by parentCoinID with amount.
func NewLauncher(parentCoinID protocol.Bytes32, amount uint64) *Launcher {
	launcherPH := protocol.Bytes32(puzzles.SingletonLauncherHash)
	return LauncherFromCoin(
		protocol.NewCoin(parentCoinID, launcherPH, amount),
		conditions.Conditions{conditions.NewCreateCoin(launcherPH, amount, nil)},
	)
}

// WithSingletonAmount sets the amount of the eve singleton, which may differ
// from the launcher amount when the parent funds the difference.
func (l *Launcher) WithSingletonAmount(amount uint64) *Launcher {
	l.singletonAmount = amount
	return l
}

func (l *Launcher) Coin() protocol.Coin { return l.coin }

func (l *Launcher) LauncherID() protocol.Bytes32 { return l.coin.ID() }

func (l *Launcher) SingletonAmount() uint64 { return l.singletonAmount }

// Spend records the launcher spend. It returns the conditions the parent
// must output and the eve singleton coin.
func (l *Launcher) Spend(
	ctx *SpendContext,
	singletonInnerPuzzleHash clvm.TreeHash,
	keyValueList clvm.NodePtr,
) (conditions.Conditions, protocol.Coin, error) {
	launcherID := l.coin.ID()
	singletonPH := protocol.Bytes32(puzzles.SingletonPuzzleHash(launcherID, singletonInnerPuzzleHash))

	puzzle, err := ctx.Mod(puzzles.SingletonLauncher)
	if err != nil {
		return nil, protocol.Coin{}, err
	}
	solution := ctx.List(ctx.NewBytes32(singletonPH), ctx.NewUint64(l.singletonAmount), keyValueList)
	ctx.Spend(l.coin, NewSpend(puzzle, solution))

	message := ctx.TreeHash(solution)
	conds := append(conditions.Conditions(nil), l.conditions...)
	conds = conds.With(conditions.AssertCoinAnnouncement{
		AnnouncementID: conditions.AnnouncementID(launcherID, message[:]),
	})
	return conds, protocol.NewCoin(launcherID, singletonPH, l.singletonAmount), nil
}

// eveProof is the lineage proof of the singleton this launcher creates.
func (l *Launcher) eveProof() Proof {
	return EveProof(l.coin.ParentCoinInfo, l.coin.Amount)
}
