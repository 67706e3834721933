// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package unbonding implements the per-account unbonding ledger (spec.md
// §4.C): a bounded map of release-block to amount, with same-block
// coalescing and cooldown-gated claiming.
package unbonding

import (
	"errors"
	"sort"

	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/ids"
)

// ErrMaxUnlockingsReached is returned when inserting a new, distinct
// release-block entry would exceed MaxUnbondings (spec.md §3 invariant 7).
var ErrMaxUnlockingsReached = errors.New("unbonding: max unlockings reached")

// ErrNoStakeUnbondingsOrCooldownNotMet is returned by Claim when nothing
// is yet releasable.
var ErrNoStakeUnbondingsOrCooldownNotMet = errors.New("unbonding: no stake unbondings or cooldown not met")

// Kind distinguishes the three cooldown classes named in spec.md §4.C,
// each with its own configured cooldown length.
type Kind uint8

const (
	KindStake Kind = iota
	KindDelegateStake
	KindNodeDelegateStake
)

// Ledger is StakeUnbondingLedger(coldkey) from spec.md §3: an ordered map
// of release block to amount, capped at MaxUnbondings entries.
type Ledger struct {
	entries map[ids.Block]*uint256.Int
	max     int
}

// NewLedger constructs an empty ledger bounded at maxEntries.
func NewLedger(maxEntries int) *Ledger {
	return &Ledger{entries: make(map[ids.Block]*uint256.Int), max: maxEntries}
}

// Len reports the number of distinct release-block entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Insert adds amount to be released at releaseBlock, coalescing with any
// existing entry at the same block (spec.md §4.C: "coalescing same-block
// entries"). A brand-new entry that would push Len() to l.max+1 is
// rejected with ErrMaxUnlockingsReached (spec.md §3 invariant 7: "a
// remove_stake that would exceed it fails").
func (l *Ledger) Insert(releaseBlock ids.Block, amount *uint256.Int) error {
	if existing, ok := l.entries[releaseBlock]; ok {
		l.entries[releaseBlock] = new(uint256.Int).Add(existing, amount)
		return nil
	}
	if len(l.entries) >= l.max {
		return ErrMaxUnlockingsReached
	}
	l.entries[releaseBlock] = new(uint256.Int).Set(amount)
	return nil
}

// CanInsert reports whether Insert(releaseBlock, ...) would succeed
// without mutating the ledger, so a caller can check feasibility before
// debiting a source balance (spec.md §8 property 5: no partial side
// effects on failure).
func (l *Ledger) CanInsert(releaseBlock ids.Block) bool {
	if _, ok := l.entries[releaseBlock]; ok {
		return true
	}
	return len(l.entries) < l.max
}

// Claim releases every entry whose release block is <= currentBlock,
// returning the total released amount. If nothing is claimable it fails
// with ErrNoStakeUnbondingsOrCooldownNotMet and leaves the ledger
// untouched (spec.md §8 property 5: idempotent, no partial side effects
// on failure).
func (l *Ledger) Claim(currentBlock ids.Block) (*uint256.Int, error) {
	var releasable []ids.Block
	for block := range l.entries {
		if block <= currentBlock {
			releasable = append(releasable, block)
		}
	}
	if len(releasable) == 0 {
		return nil, ErrNoStakeUnbondingsOrCooldownNotMet
	}

	sort.Slice(releasable, func(i, j int) bool { return releasable[i] < releasable[j] })

	total := uint256.NewInt(0)
	for _, block := range releasable {
		total = new(uint256.Int).Add(total, l.entries[block])
		delete(l.entries, block)
	}
	return total, nil
}

// Pending returns a snapshot of the unreleased entries, sorted by release
// block, for RPC/read paths.
func (l *Ledger) Pending() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for block, amount := range l.entries {
		out = append(out, Entry{ReleaseBlock: block, Amount: amount.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReleaseBlock < out[j].ReleaseBlock })
	return out
}

// Entry is a single release-block -> amount pair.
type Entry struct {
	ReleaseBlock ids.Block
	Amount       *uint256.Int
}

// CooldownEpochs selects the configured cooldown length for kind out of
// the three independent constants spec.md §4.C names.
func CooldownEpochs(kind Kind, stakeCooldown, delegateCooldown, nodeDelegateCooldown uint64) uint64 {
	switch kind {
	case KindDelegateStake:
		return delegateCooldown
	case KindNodeDelegateStake:
		return nodeDelegateCooldown
	default:
		return stakeCooldown
	}
}

// ReleaseBlock computes release_epoch = current_epoch + cooldown_epochs *
// epoch_length, expressed directly in blocks as spec.md §4.C specifies.
func ReleaseBlock(currentBlock ids.Block, cooldownEpochs, epochLength uint64) ids.Block {
	return currentBlock + ids.Block(cooldownEpochs*epochLength)
}
