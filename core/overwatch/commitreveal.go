// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package overwatch

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/codec"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// Phase is which half of an overwatch epoch the current block falls in.
type Phase uint8

const (
	PhaseCommit Phase = iota
	PhaseReveal
)

// CurrentEpoch computes ow_epoch = floor(current_block / (L *
// OverwatchEpochLengthMultiplier)), spec.md §4.K.
func CurrentEpoch(currentBlock ids.Block, epochLength uint64, lengthMultiplier uint64) ids.Epoch {
	span := epochLength * lengthMultiplier
	if span == 0 {
		return 0
	}
	return ids.Epoch(uint64(currentBlock) / span)
}

// CurrentPhase reports whether currentBlock falls in the commit or reveal
// half of its overwatch epoch: the first commitCutoffPercent of the span
// is commit phase, the remainder is reveal phase (spec.md §4.K).
func CurrentPhase(currentBlock ids.Block, epochLength, lengthMultiplier uint64, commitCutoffPercent *uint256.Int) Phase {
	span := epochLength * lengthMultiplier
	if span == 0 {
		return PhaseReveal
	}
	offset := uint64(currentBlock) % span
	cutoff := fixedpoint.PercentMul(uint256.NewInt(span), commitCutoffPercent)
	if uint256.NewInt(offset).Cmp(cutoff) < 0 {
		return PhaseCommit
	}
	return PhaseReveal
}

type commitKey struct {
	Epoch    ids.Epoch
	NodeID   ids.OverwatchNodeID
	SubnetID ids.SubnetID
}

type revealKey struct {
	Epoch    ids.Epoch
	SubnetID ids.SubnetID
	NodeID   ids.OverwatchNodeID
}

// CommitItem is one `{sid, hash}` entry of a commit(ow_id, [...]) call.
type CommitItem struct {
	SubnetID ids.SubnetID
	Hash     [16]byte
}

// RevealItem is one `{sid, weight, salt}` entry of a reveal(ow_id, [...])
// call.
type RevealItem struct {
	SubnetID ids.SubnetID
	Weight   *uint256.Int
	Salt     []byte
}

// Ballots is OverwatchCommits + OverwatchReveals from spec.md §3: the
// per-overwatch-epoch commit/reveal stores, kept separate from Registry
// since they are indexed by epoch rather than by node.
type Ballots struct {
	commits map[commitKey][16]byte
	reveals map[revealKey]*uint256.Int
}

// NewBallots constructs an empty commit/reveal store.
func NewBallots() *Ballots {
	return &Ballots{
		commits: make(map[commitKey][16]byte),
		reveals: make(map[revealKey]*uint256.Int),
	}
}

// Commit records a salted weight-hash ballot for every item, spec.md
// §4.K: the caller's hotkey must own ownerID, its coldkey must not be
// blacklisted, items must be non-empty, and each (epoch, ownerID, sid)
// triple may be committed at most once.
func (b *Ballots) Commit(registry *Registry, epoch ids.Epoch, hotkey ids.Hotkey, ownerID ids.OverwatchNodeID, items []CommitItem) error {
	n := registry.Get(ownerID)
	if n == nil {
		return ErrNodeNotExist
	}
	if n.Hotkey != hotkey {
		return ErrNotKeyOwner
	}
	if registry.IsBlacklisted(n.Coldkey) {
		return coreerrors.ErrColdkeyBlacklisted
	}
	if len(items) == 0 {
		return coreerrors.ErrCommitsEmpty
	}

	for _, item := range items {
		key := commitKey{Epoch: epoch, NodeID: ownerID, SubnetID: item.SubnetID}
		if _, exists := b.commits[key]; exists {
			return coreerrors.ErrAlreadyCommitted
		}
	}
	for _, item := range items {
		key := commitKey{Epoch: epoch, NodeID: ownerID, SubnetID: item.SubnetID}
		b.commits[key] = item.Hash
	}
	return nil
}

// Reveal validates and stores every item's weight against its stored
// commit hash, spec.md §4.K: phase must be reveal, a commit must exist,
// blake2_128(weight ∥ salt) must equal the stored hash, and weight must
// lie in [0, PF].
func (b *Ballots) Reveal(registry *Registry, epoch ids.Epoch, hotkey ids.Hotkey, ownerID ids.OverwatchNodeID, phase Phase, items []RevealItem) error {
	n := registry.Get(ownerID)
	if n == nil {
		return ErrNodeNotExist
	}
	if n.Hotkey != hotkey {
		return ErrNotKeyOwner
	}
	if phase != PhaseReveal {
		return coreerrors.ErrNotRevealPeriod
	}

	for _, item := range items {
		if item.Weight.Cmp(fixedpoint.PFUint256()) > 0 {
			return coreerrors.ErrInvalidValues
		}
		ckey := commitKey{Epoch: epoch, NodeID: ownerID, SubnetID: item.SubnetID}
		hash, ok := b.commits[ckey]
		if !ok {
			return coreerrors.ErrNoCommitFound
		}
		if bindingHash(item.Weight, item.Salt) != hash {
			return coreerrors.ErrRevealMismatch
		}
	}

	for _, item := range items {
		rkey := revealKey{Epoch: epoch, SubnetID: item.SubnetID, NodeID: ownerID}
		b.reveals[rkey] = item.Weight.Clone()
	}
	return nil
}

// bindingHash is the blake2_128(weight ∥ salt) commitment binding spec.md
// §4.K names.
func bindingHash(weight *uint256.Int, salt []byte) [16]byte {
	buf := make([]byte, 0, 32+len(salt))
	buf = append(buf, weight.Bytes32()[:]...)
	buf = append(buf, salt...)
	return codec.Blake2_128(buf)
}

// CommitHash is the helper a caller uses off-chain to produce the hash
// passed into Commit, so the exact same binding is computed on both
// sides.
func CommitHash(weight *uint256.Int, salt []byte) [16]byte {
	return bindingHash(weight, salt)
}

// reveal is one stored (nodeID, subnetID, weight) entry, the shape
// Aggregate consumes.
type reveal struct {
	NodeID   ids.OverwatchNodeID
	SubnetID ids.SubnetID
	Weight   *uint256.Int
}

// revealsFor returns every reveal recorded for epoch, used by Aggregate.
func (b *Ballots) revealsFor(epoch ids.Epoch) []reveal {
	var out []reveal
	for key, w := range b.reveals {
		if key.Epoch != epoch {
			continue
		}
		out = append(out, reveal{NodeID: key.NodeID, SubnetID: key.SubnetID, Weight: w})
	}
	return out
}
