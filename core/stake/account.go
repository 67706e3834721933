// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stake implements the three stake subsystems of spec.md §4.D:
// direct account stake, the per-subnet delegate-stake pool, and the
// per-(subnet, node) node-delegate-stake pool, all backed by
// core/sharepool and core/unbonding.
package stake

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/core/unbonding"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

var (
	// ErrMinStakeNotReached is returned when a remove_stake would bring
	// the hotkey's remaining stake in the subnet below
	// SubnetMinStakeBalance, whether or not the hotkey runs an active node.
	ErrMinStakeNotReached = errors.New("stake: minimum stake not reached")
	// ErrNotEnoughStakeToWithdraw is returned when an account attempts to
	// remove more stake than it holds.
	ErrNotEnoughStakeToWithdraw = errors.New("stake: not enough stake to withdraw")
)

type accountKey struct {
	Hotkey   ids.Hotkey
	SubnetID ids.SubnetID
}

// AccountLedger is AccountSubnetStake + TotalSubnetStake + TotalStake
// from spec.md §3.
type AccountLedger struct {
	perAccount       map[accountKey]*uint256.Int
	totalPerSubnet   map[ids.SubnetID]*uint256.Int
	totalStake       *uint256.Int
}

// NewAccountLedger constructs an empty account-stake ledger.
func NewAccountLedger() *AccountLedger {
	return &AccountLedger{
		perAccount:     make(map[accountKey]*uint256.Int),
		totalPerSubnet: make(map[ids.SubnetID]*uint256.Int),
		totalStake:     uint256.NewInt(0),
	}
}

// Balance returns the hotkey's stake in subnetID.
func (l *AccountLedger) Balance(hotkey ids.Hotkey, subnetID ids.SubnetID) *uint256.Int {
	amt, ok := l.perAccount[accountKey{hotkey, subnetID}]
	if !ok {
		return uint256.NewInt(0)
	}
	return amt.Clone()
}

// TotalSubnetStake returns TotalSubnetStake(subnetID).
func (l *AccountLedger) TotalSubnetStake(subnetID ids.SubnetID) *uint256.Int {
	amt, ok := l.totalPerSubnet[subnetID]
	if !ok {
		return uint256.NewInt(0)
	}
	return amt.Clone()
}

// TotalStake returns the global TotalStake.
func (l *AccountLedger) TotalStake() *uint256.Int {
	return l.totalStake.Clone()
}

// Add credits amount to hotkey's stake in subnetID, e.g. from add_stake
// or as a reward-pipeline payout (spec.md §4.I step 5's "remainder goes
// to node hotkey stake").
func (l *AccountLedger) Add(hotkey ids.Hotkey, subnetID ids.SubnetID, amount *uint256.Int) {
	key := accountKey{hotkey, subnetID}
	l.perAccount[key] = fixedpoint.SatAdd(l.Balance(hotkey, subnetID), amount)
	l.totalPerSubnet[subnetID] = fixedpoint.SatAdd(l.TotalSubnetStake(subnetID), amount)
	l.totalStake = fixedpoint.SatAdd(l.totalStake, amount)
}

// Remove debits amount from hotkey's stake in subnetID. The caller
// (extrinsic handler) is responsible for the spec.md §4.D.1 preconditions
// (min-active-node-epochs gate, minimum-remaining-balance gate) before
// calling Remove; Remove itself only enforces that the account has
// enough balance.
func (l *AccountLedger) Remove(hotkey ids.Hotkey, subnetID ids.SubnetID, amount *uint256.Int) error {
	bal := l.Balance(hotkey, subnetID)
	if bal.Cmp(amount) < 0 {
		return ErrNotEnoughStakeToWithdraw
	}
	key := accountKey{hotkey, subnetID}
	l.perAccount[key] = fixedpoint.SatSub(bal, amount)
	l.totalPerSubnet[subnetID] = fixedpoint.SatSub(l.TotalSubnetStake(subnetID), amount)
	l.totalStake = fixedpoint.SatSub(l.totalStake, amount)
	return nil
}

// Slash removes amount from hotkey's stake without crediting an
// unbonding entry (spec.md §4.I step 1: validator stake slash on
// attestation-ratio gate failure). Returns the amount actually slashed,
// which may be less than requested if the balance is insufficient.
func (l *AccountLedger) Slash(hotkey ids.Hotkey, subnetID ids.SubnetID, amount *uint256.Int) *uint256.Int {
	bal := l.Balance(hotkey, subnetID)
	actual := fixedpoint.Min256(bal, amount)
	if actual.IsZero() {
		return actual
	}
	key := accountKey{hotkey, subnetID}
	l.perAccount[key] = fixedpoint.SatSub(bal, actual)
	l.totalPerSubnet[subnetID] = fixedpoint.SatSub(l.TotalSubnetStake(subnetID), actual)
	l.totalStake = fixedpoint.SatSub(l.totalStake, actual)
	return actual
}

// RemainingAfter returns the projected balance after removing amount,
// used by the caller to check against SubnetMinStakeBalance before
// committing the removal.
func (l *AccountLedger) RemainingAfter(hotkey ids.Hotkey, subnetID ids.SubnetID, amount *uint256.Int) *uint256.Int {
	return fixedpoint.SatSub(l.Balance(hotkey, subnetID), amount)
}

// RemoveStake implements remove_stake (spec.md §4.D.1) end to end: if
// hotkey's node is still active, current_epoch must be at least
// nodeStartEpoch + minActiveNodeStakeEpochs
// (coreerrors.ErrMinActiveNodeStakeEpochs otherwise); the balance left
// after removal must not fall below subnetMinStakeBalance
// (ErrMinStakeNotReached otherwise). Only once both gates pass is amount
// debited from the account and credited to unbondingLedger at the
// stake-cooldown release block. The ledger's capacity is checked before
// the account is debited, so a full unbonding ledger leaves the account
// balance untouched (spec.md §8 property 5).
func (l *AccountLedger) RemoveStake(
	hotkey ids.Hotkey, subnetID ids.SubnetID, amount *uint256.Int,
	nodeActive bool, nodeStartEpoch, currentEpoch ids.SubnetEpoch,
	minActiveNodeStakeEpochs uint64,
	subnetMinStakeBalance *uint256.Int,
	unbondingLedger *unbonding.Ledger,
	currentBlock ids.Block, stakeCooldownEpochs, epochLength uint64,
) error {
	if nodeActive && currentEpoch < nodeStartEpoch+ids.SubnetEpoch(minActiveNodeStakeEpochs) {
		return coreerrors.ErrMinActiveNodeStakeEpochs
	}
	if l.RemainingAfter(hotkey, subnetID, amount).Cmp(subnetMinStakeBalance) < 0 {
		return ErrMinStakeNotReached
	}

	release := unbonding.ReleaseBlock(currentBlock, stakeCooldownEpochs, epochLength)
	if !unbondingLedger.CanInsert(release) {
		return unbonding.ErrMaxUnlockingsReached
	}
	if err := l.Remove(hotkey, subnetID, amount); err != nil {
		return err
	}
	return unbondingLedger.Insert(release, amount)
}
