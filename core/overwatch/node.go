// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package overwatch implements the salted commit-reveal subnet-weight
// ballot of spec.md §4.K: overwatch node registration, the per-epoch
// commit/reveal stores, and the epoch-boundary aggregation that derives
// OverwatchSubnetWeights and OverwatchNodeWeights and pays the revealing
// nodes out of their own overwatch stake.
package overwatch

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

var (
	// ErrNotKeyOwner is returned when the caller's hotkey does not own the
	// overwatch node id it is acting on behalf of.
	ErrNotKeyOwner = errors.New("overwatch: not key owner")
	// ErrNodeNotExist is returned for operations on an unknown overwatch
	// node id.
	ErrNodeNotExist = errors.New("overwatch: node does not exist")
)

// Node is the Overwatch Node of spec.md §3: `{ id, hotkey }` plus its own
// stake and penalty counter. Coldkey is tracked alongside hotkey purely to
// check the blacklist at commit time (spec.md §4.K's "hotkey's coldkey not
// blacklisted").
type Node struct {
	ID        ids.OverwatchNodeID
	Hotkey    ids.Hotkey
	Coldkey   ids.Coldkey
	Penalties uint32
}

// Registry owns every overwatch node, its stake, and the coldkey
// blacklist, mirroring core/node's SubnetRegistry shape one level up
// (network-wide rather than per-subnet, since overwatch nodes are not
// scoped to a subnet).
type Registry struct {
	nodes        map[ids.OverwatchNodeID]*Node
	hotkeyToNode map[ids.Hotkey]ids.OverwatchNodeID
	stake        map[ids.OverwatchNodeID]*uint256.Int
	totalStake   *uint256.Int
	blacklist    map[ids.Coldkey]bool

	nextID uint32
}

// NewRegistry constructs an empty overwatch-node registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:        make(map[ids.OverwatchNodeID]*Node),
		hotkeyToNode: make(map[ids.Hotkey]ids.OverwatchNodeID),
		stake:        make(map[ids.OverwatchNodeID]*uint256.Int),
		totalStake:   uint256.NewInt(0),
		blacklist:    make(map[ids.Coldkey]bool),
	}
}

// Register enrolls hotkey (owned by coldkey) as a new overwatch node with
// an initial stake deposit, the precompile's register_overwatch_node
// shape. Coldkey must equal hotkey for single-key accounts or be the
// distinct controlling key; either way it must not be blacklisted.
func (r *Registry) Register(hotkey ids.Hotkey, coldkey ids.Coldkey, stakeToAdd *uint256.Int) (*Node, error) {
	if _, exists := r.hotkeyToNode[hotkey]; exists {
		return nil, coreerrors.ErrHotkeyHasOwner
	}
	if r.blacklist[coldkey] {
		return nil, coreerrors.ErrColdkeyBlacklisted
	}

	r.nextID++
	id := ids.OverwatchNodeID(r.nextID)
	n := &Node{ID: id, Hotkey: hotkey, Coldkey: coldkey}

	r.nodes[id] = n
	r.hotkeyToNode[hotkey] = id
	r.stake[id] = stakeToAdd.Clone()
	r.totalStake = fixedpoint.SatAdd(r.totalStake, stakeToAdd)

	return n, nil
}

// Remove deletes an overwatch node and its stake bookkeeping, the
// precompile's remove_overwatch_node / anyone_remove_overwatch_node
// shape (the caller enforces whichever authorization rule applies —
// self-removal vs. permissionless removal after max penalties).
func (r *Registry) Remove(id ids.OverwatchNodeID) error {
	n, ok := r.nodes[id]
	if !ok {
		return ErrNodeNotExist
	}
	r.totalStake = fixedpoint.SatSub(r.totalStake, r.stake[id])
	delete(r.stake, id)
	delete(r.hotkeyToNode, n.Hotkey)
	delete(r.nodes, id)
	return nil
}

// Get returns id's node record, or nil if it does not exist.
func (r *Registry) Get(id ids.OverwatchNodeID) *Node {
	return r.nodes[id]
}

// NodeOf returns the overwatch node id owned by hotkey, if any.
func (r *Registry) NodeOf(hotkey ids.Hotkey) (ids.OverwatchNodeID, bool) {
	id, ok := r.hotkeyToNode[hotkey]
	return id, ok
}

// IDs returns every registered overwatch node id, the knownNodeIDs
// population Aggregate penalizes non-revealers against.
func (r *Registry) IDs() []ids.OverwatchNodeID {
	out := make([]ids.OverwatchNodeID, 0, len(r.nodes))
	for id := range r.nodes {
		out = append(out, id)
	}
	return out
}

// Stake returns id's current overwatch stake balance.
func (r *Registry) Stake(id ids.OverwatchNodeID) *uint256.Int {
	bal, ok := r.stake[id]
	if !ok {
		return uint256.NewInt(0)
	}
	return bal.Clone()
}

// TotalStake returns TotalOverwatchStake.
func (r *Registry) TotalStake() *uint256.Int {
	return r.totalStake.Clone()
}

// CreditStake adds amount to id's overwatch stake, the
// increase_account_overwatch_stake step of reward distribution.
func (r *Registry) CreditStake(id ids.OverwatchNodeID, amount *uint256.Int) {
	r.stake[id] = fixedpoint.SatAdd(r.Stake(id), amount)
	r.totalStake = fixedpoint.SatAdd(r.totalStake, amount)
}

// Blacklist marks coldkey as ineligible to own an overwatch node or
// commit/reveal through one (spec.md §7's ColdkeyBlacklisted).
func (r *Registry) Blacklist(coldkey ids.Coldkey) {
	r.blacklist[coldkey] = true
}

// IsBlacklisted reports whether coldkey is on the blacklist.
func (r *Registry) IsBlacklisted(coldkey ids.Coldkey) bool {
	return r.blacklist[coldkey]
}

// BumpPenalty increments id's penalty count, removing the node once the
// count exceeds maxPenaltyCount — "malicious or absent overwatch nodes
// accrue penalties; removal rules follow the same max-penalty threshold
// pattern as subnet nodes" (spec.md §4.K). Reports whether the node was
// removed.
func (r *Registry) BumpPenalty(id ids.OverwatchNodeID, maxPenaltyCount uint32) (bool, error) {
	n, ok := r.nodes[id]
	if !ok {
		return false, ErrNodeNotExist
	}
	n.Penalties++
	if n.Penalties > maxPenaltyCount {
		_ = r.Remove(id)
		return true, nil
	}
	return false, nil
}
