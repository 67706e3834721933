// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import "github.com/hypercore-net/hypercore/ids"

// GraduateIdleNode promotes nodeID from Idle to Included if it is past its
// classification window (spec.md §4.G: "class == Idle ∧
// current_subnet_epoch > start_epoch + IdleClassificationEpochs"),
// evaluated during reward distribution. It reports whether a promotion
// happened.
func (sr *SubnetRegistry) GraduateIdleNode(nodeID ids.NodeID, currentSubnetEpoch ids.SubnetEpoch, idleClassificationEpochs uint64) bool {
	n, ok := sr.active[nodeID]
	if !ok || n.Classification.Class != ClassIdle {
		return false
	}
	if currentSubnetEpoch <= n.Classification.StartEpoch+ids.SubnetEpoch(idleClassificationEpochs) {
		return false
	}
	n.Classification = Classification{
		Class:      ClassIncluded,
		StartEpoch: currentSubnetEpoch,
	}
	n.ConsecutiveIncludedEpochs = 0
	return true
}

// GraduateIdle sweeps every Idle node, promoting each past its
// classification window to Included. It returns the promoted node ids.
func (sr *SubnetRegistry) GraduateIdle(currentSubnetEpoch ids.SubnetEpoch, idleClassificationEpochs uint64) []ids.NodeID {
	var promoted []ids.NodeID
	for nodeID, n := range sr.active {
		if n.Classification.Class != ClassIdle {
			continue
		}
		if sr.GraduateIdleNode(nodeID, currentSubnetEpoch, idleClassificationEpochs) {
			promoted = append(promoted, nodeID)
		}
	}
	return promoted
}

// PromoteToValidator promotes nodeID from Included to Validator once it is
// penalty-free and has accrued IncludedClassificationEpochs consecutive
// included epochs, minting it an election slot and resetting its counter
// (spec.md §4.G). It reports whether a promotion happened.
func (sr *SubnetRegistry) PromoteToValidator(nodeID ids.NodeID, includedClassificationEpochs uint32, currentSubnetEpoch ids.SubnetEpoch) bool {
	n, ok := sr.active[nodeID]
	if !ok || n.Classification.Class != ClassIncluded {
		return false
	}
	if n.Penalties > 0 {
		return false
	}
	if n.ConsecutiveIncludedEpochs < includedClassificationEpochs {
		return false
	}

	n.Classification = Classification{
		Class:      ClassValidator,
		StartEpoch: currentSubnetEpoch,
	}
	n.ConsecutiveIncludedEpochs = 0
	sr.InsertIntoSlot(nodeID)
	return true
}

// RecordIncludedEpoch increments nodeID's consecutive-included streak; call
// once per epoch in which the node has a score in the consensus
// submission's data. An epoch with no score for the node resets the
// streak via ResetIncludedStreak instead.
func (sr *SubnetRegistry) RecordIncludedEpoch(nodeID ids.NodeID) {
	if n, ok := sr.active[nodeID]; ok && n.Classification.Class == ClassIncluded {
		n.ConsecutiveIncludedEpochs++
	}
}

// ResetIncludedStreak zeroes nodeID's consecutive-included counter.
func (sr *SubnetRegistry) ResetIncludedStreak(nodeID ids.NodeID) {
	if n, ok := sr.active[nodeID]; ok {
		n.ConsecutiveIncludedEpochs = 0
	}
}

// Get returns nodeID's record from whichever stage holds it, or nil.
func (sr *SubnetRegistry) Get(nodeID ids.NodeID) *Node {
	if n, ok := sr.active[nodeID]; ok {
		return n
	}
	if n, ok := sr.queued[nodeID]; ok {
		return n
	}
	return sr.deactivated[nodeID]
}

// RemoveIfOverPenalized removes nodeID if its stored penalty count
// already exceeds maxSubnetNodePenalties (spec.md §4.I step 5: "If
// penalties > max_penalties, remove node and continue" — a check against
// the count accrued in prior epochs, not an increment). It reports
// whether the node was removed.
func (sr *SubnetRegistry) RemoveIfOverPenalized(nodeID ids.NodeID, maxSubnetNodePenalties uint32) (bool, error) {
	n := sr.Get(nodeID)
	if n == nil || n.Penalties <= maxSubnetNodePenalties {
		return false, nil
	}
	return true, sr.Remove(nodeID)
}

// IncrementPenalty bumps nodeID's penalty counter by one without
// evaluating removal (spec.md §4.I step 5's score-ratio and
// missing-attestation branches: "penalties++ ... penalty applies to
// future epochs").
func (sr *SubnetRegistry) IncrementPenalty(nodeID ids.NodeID) {
	if n := sr.Get(nodeID); n != nil {
		n.Penalties++
	}
}

// DecrementPenalty lowers nodeID's penalty counter by one, floored at
// zero (spec.md §4.I step 5: "Else if penalties > 0: penalties -= 1").
func (sr *SubnetRegistry) DecrementPenalty(nodeID ids.NodeID) {
	if n := sr.Get(nodeID); n != nil && n.Penalties > 0 {
		n.Penalties--
	}
}

// ApplyPenalty increments nodeID's penalty counter and, if it now exceeds
// maxSubnetNodePenalties, removes the node entirely (spec.md §4.G: "Any →
// removed: if SubnetNodePenalties(sid, nid) > MaxSubnetNodePenalties(sid)").
// It reports whether the node was removed.
func (sr *SubnetRegistry) ApplyPenalty(nodeID ids.NodeID, maxSubnetNodePenalties uint32) (bool, error) {
	n, ok := sr.active[nodeID]
	if !ok {
		n, ok = sr.queued[nodeID]
	}
	if !ok {
		return false, nil
	}
	n.Penalties++
	if n.Penalties > maxSubnetNodePenalties {
		return true, sr.Remove(nodeID)
	}
	return false, nil
}
