// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity implements coldkey/hotkey ownership and reputation
// tracking (spec.md §4.E): HotkeyOwner, ColdkeyHotkeys, ColdkeyReputation,
// and the per-node reputation curve built on internal/fixedpoint.
package identity

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// ColdkeyReputation tracks the lifetime metrics spec.md §4.E names:
// "total active nodes, success history".
type ColdkeyReputation struct {
	Score            *uint256.Int
	TotalActiveNodes uint32
	SuccessCount     uint64
	FailureCount     uint64
}

func newReputation() *ColdkeyReputation {
	return &ColdkeyReputation{Score: fixedpoint.PFUint256()}
}

// Registry is HotkeyOwner + ColdkeyHotkeys + ColdkeyReputation, keyed as
// spec.md §4.E describes.
type Registry struct {
	hotkeyOwner    map[ids.Hotkey]ids.Coldkey
	coldkeyHotkeys map[ids.Coldkey]mapset.Set[ids.Hotkey]
	reputation     map[ids.Coldkey]*ColdkeyReputation
}

// NewRegistry constructs an empty identity registry.
func NewRegistry() *Registry {
	return &Registry{
		hotkeyOwner:    make(map[ids.Hotkey]ids.Coldkey),
		coldkeyHotkeys: make(map[ids.Coldkey]mapset.Set[ids.Hotkey]),
		reputation:     make(map[ids.Coldkey]*ColdkeyReputation),
	}
}

// RegisterHotkey binds hotkey to coldkey, set once per hotkey (spec.md
// §4.E: "HotkeyOwner(hotkey) → coldkey set once per hotkey").
func (r *Registry) RegisterHotkey(coldkey ids.Coldkey, hotkey ids.Hotkey) error {
	if coldkey == hotkey {
		return coreerrors.ErrColdkeyMatchesHotkey
	}
	if owner, ok := r.hotkeyOwner[hotkey]; ok && owner != coldkey {
		return coreerrors.ErrHotkeyHasOwner
	}
	r.hotkeyOwner[hotkey] = coldkey
	set, ok := r.coldkeyHotkeys[coldkey]
	if !ok {
		set = mapset.NewSet[ids.Hotkey]()
		r.coldkeyHotkeys[coldkey] = set
	}
	set.Add(hotkey)
	if _, ok := r.reputation[coldkey]; !ok {
		r.reputation[coldkey] = newReputation()
	}
	return nil
}

// Owner returns the coldkey owning hotkey, or the zero address if unset.
func (r *Registry) Owner(hotkey ids.Hotkey) (ids.Coldkey, bool) {
	owner, ok := r.hotkeyOwner[hotkey]
	return owner, ok
}

// RequireOwner validates that coldkey owns hotkey, for extrinsic
// preconditions (spec.md §4.D.1: "signer owns hotkey via HotkeyOwner").
func (r *Registry) RequireOwner(coldkey ids.Coldkey, hotkey ids.Hotkey) error {
	owner, ok := r.hotkeyOwner[hotkey]
	if !ok || owner != coldkey {
		return coreerrors.ErrNotKeyOwner
	}
	return nil
}

// Hotkeys returns the set of hotkeys owned by coldkey.
func (r *Registry) Hotkeys(coldkey ids.Coldkey) mapset.Set[ids.Hotkey] {
	set, ok := r.coldkeyHotkeys[coldkey]
	if !ok {
		return mapset.NewSet[ids.Hotkey]()
	}
	return set.Clone()
}

// Reputation returns the coldkey's reputation record, creating a fresh
// one (score == PF) if none yet exists.
func (r *Registry) Reputation(coldkey ids.Coldkey) *ColdkeyReputation {
	rep, ok := r.reputation[coldkey]
	if !ok {
		rep = newReputation()
		r.reputation[coldkey] = rep
	}
	return rep
}

// RecordSuccess bumps a coldkey's reputation on a reward-path success
// (spec.md §4.E: "incremented ... on reward ... paths"), weighted by the
// attestation ratio that produced this reward.
func (r *Registry) RecordSuccess(coldkey ids.Coldkey, factor, attestationRatio *uint256.Int) {
	rep := r.Reputation(coldkey)
	rep.Score = fixedpoint.IncreaseReputation(rep.Score, factor, attestationRatio)
	rep.SuccessCount++
}

// RecordFailure decays a coldkey's reputation on a slashing path
// (spec.md §4.E: "decremented ... on ... slashing paths").
func (r *Registry) RecordFailure(coldkey ids.Coldkey, factor *uint256.Int) {
	rep := r.Reputation(coldkey)
	rep.Score = fixedpoint.DecreaseReputation(rep.Score, factor)
	rep.FailureCount++
}
