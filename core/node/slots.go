// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import "github.com/hypercore-net/hypercore/ids"

// InsertIntoSlot appends nodeID to the election-slot list and records its
// position in the inverse index, grounded on insert_node_into_slot. It is
// a no-op if nodeID already holds a slot.
func (sr *SubnetRegistry) InsertIntoSlot(nodeID ids.NodeID) {
	if _, ok := sr.slotIndex[nodeID]; ok {
		return
	}
	sr.slotIndex[nodeID] = len(sr.electionSlots)
	sr.electionSlots = append(sr.electionSlots, nodeID)
}

// removeFromSlot evicts nodeID from the election-slot list in O(1) by
// swapping it with the last entry before truncating, grounded on
// remove_node_from_slot.
func (sr *SubnetRegistry) removeFromSlot(nodeID ids.NodeID) {
	i, ok := sr.slotIndex[nodeID]
	if !ok {
		return
	}
	last := len(sr.electionSlots) - 1
	moved := sr.electionSlots[last]
	sr.electionSlots[i] = moved
	sr.slotIndex[moved] = i
	sr.electionSlots = sr.electionSlots[:last]
	delete(sr.slotIndex, nodeID)
}

// ElectionSlotCount reports how many nodes currently hold an election slot.
func (sr *SubnetRegistry) ElectionSlotCount() int {
	return len(sr.electionSlots)
}

// SlotAt returns the node id occupying slot index i (used by core/election
// to draw a block-derived random index without scanning a map).
func (sr *SubnetRegistry) SlotAt(i int) ids.NodeID {
	return sr.electionSlots[i]
}
