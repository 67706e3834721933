// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package subnet

import "github.com/hypercore-net/hypercore/core/coreerrors"

// SlotAllocator is the bijection subnet_id <-> slot in [2, L) described by
// spec.md §3 ("SubnetSlot"): slots 0 and 1 are reserved for the global
// preliminaries and weight-computation blocks, so subnets start at slot 2.
// Assignment always picks the smallest free slot; removal frees it again.
type SlotAllocator struct {
	epochLength uint64
	assigned    map[uint64]bool
}

// NewSlotAllocator constructs an allocator over slots [2, epochLength).
func NewSlotAllocator(epochLength uint64) *SlotAllocator {
	return &SlotAllocator{epochLength: epochLength, assigned: make(map[uint64]bool)}
}

// Assign returns the smallest free slot and marks it taken, or
// ErrNoAvailableSlots if none remain.
func (a *SlotAllocator) Assign() (uint64, error) {
	for s := uint64(2); s < a.epochLength; s++ {
		if !a.assigned[s] {
			a.assigned[s] = true
			return s, nil
		}
	}
	return 0, coreerrors.ErrNoAvailableSlots
}

// Free releases slot s back to the pool, e.g. on subnet removal.
func (a *SlotAllocator) Free(s uint64) {
	delete(a.assigned, s)
}

// IsAssigned reports whether slot s is currently taken.
func (a *SlotAllocator) IsAssigned(s uint64) bool {
	return a.assigned[s]
}
