// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package election implements the per-subnet-epoch validator draw of
// spec.md §4.L: a deterministic, block-derived random index into a
// subnet's election-slot list.
package election

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/core/node"
	"github.com/hypercore-net/hypercore/ids"
)

type electionKey struct {
	SubnetID    ids.SubnetID
	SubnetEpoch ids.SubnetEpoch
}

// Store is SubnetElectedValidator from spec.md §3: the chosen validator
// per (subnet, subnet_epoch), elected at most once.
type Store struct {
	elected map[electionKey]ids.NodeID
}

// NewStore constructs an empty election store.
func NewStore() *Store {
	return &Store{elected: make(map[electionKey]ids.NodeID)}
}

// Get returns the node elected for (subnetID, epoch), if any.
func (s *Store) Get(subnetID ids.SubnetID, epoch ids.SubnetEpoch) (ids.NodeID, bool) {
	n, ok := s.elected[electionKey{subnetID, epoch}]
	return n, ok
}

// Elect draws `idx = random_number(seed) mod election_slots.len()` and
// records slot idx's occupant as SubnetElectedValidator(subnetID, epoch),
// spec.md §4.L. Idempotent: a second call for the same (subnetID, epoch)
// returns the already-elected node without redrawing. seed is the
// caller-supplied deterministic randomness for the current block (a VRF
// output or block hash — spec.md §4.L's "must be deterministic across
// implementations"); Elect itself never touches block or chain state.
func (s *Store) Elect(registry *node.SubnetRegistry, subnetID ids.SubnetID, epoch ids.SubnetEpoch, seed common.Hash) (ids.NodeID, error) {
	key := electionKey{subnetID, epoch}
	if existing, ok := s.elected[key]; ok {
		return existing, nil
	}

	count := registry.ElectionSlotCount()
	if count == 0 {
		return 0, coreerrors.ErrNoAvailableSlots
	}

	idx := seedToIndex(seed, count)
	chosen := registry.SlotAt(idx)
	s.elected[key] = chosen
	return chosen, nil
}

// seedToIndex reduces a 256-bit seed to a slot index in [0, count) via
// big.Int modulo, giving every slot an equal share of the seed space
// (a masked/truncated read of only part of the hash would not).
func seedToIndex(seed common.Hash, count int) int {
	n := new(big.Int).SetBytes(seed[:])
	m := n.Mod(n, big.NewInt(int64(count)))
	return int(m.Int64())
}
