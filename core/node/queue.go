// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import "github.com/hypercore-net/hypercore/ids"

// queueEntry is the registration queue's btree item, ordered by
// non-decreasing start_epoch with nodeID as a tie-breaker.
type queueEntry struct {
	startEpoch ids.SubnetEpoch
	nodeID     ids.NodeID
}

func (e *queueEntry) Less(other *queueEntry) bool {
	if e.startEpoch != other.startEpoch {
		return e.startEpoch < other.startEpoch
	}
	return e.nodeID < other.nodeID
}

func (sr *SubnetRegistry) deleteQueueEntry(e *queueEntry) {
	sr.queueOrder.Delete(e)
	delete(sr.queueEntries, e.nodeID)
}

// HandleRegistrationQueue activates as many front-of-queue nodes as the
// churn budget and the subnet's node capacity allow, promoting each to
// Idle; no election slot is granted here. It mirrors handle_registration_queue:
// the budget is min(churnLimit, maxSubnetNodes-totalActive), and the walk
// stops at the first node whose readiness epoch
// (start_epoch + subnetNodeQueueEpochs) has not yet arrived, since
// queueOrder is a btree kept sorted by non-decreasing start_epoch.
func (sr *SubnetRegistry) HandleRegistrationQueue(
	currentSubnetEpoch ids.SubnetEpoch,
	subnetNodeQueueEpochs uint64,
	churnLimit, maxSubnetNodes uint32,
) []ids.NodeID {
	if maxSubnetNodes <= sr.totalActive {
		return nil
	}
	budget := maxSubnetNodes - sr.totalActive
	if churnLimit < budget {
		budget = churnLimit
	}

	activated := make([]ids.NodeID, 0, budget)
	for uint32(len(activated)) < budget {
		entry, ok := sr.queueOrder.Min()
		if !ok {
			break
		}
		n, ok := sr.queued[entry.nodeID]
		if !ok {
			sr.deleteQueueEntry(entry)
			continue
		}

		readyEpoch := n.Classification.StartEpoch + ids.SubnetEpoch(subnetNodeQueueEpochs)
		if readyEpoch >= currentSubnetEpoch {
			break
		}

		sr.deleteQueueEntry(entry)
		delete(sr.queued, entry.nodeID)

		n.Classification = Classification{
			Class:      ClassIdle,
			StartEpoch: currentSubnetEpoch + 1,
		}
		sr.active[entry.nodeID] = n
		sr.totalActive++
		// Election slots are minted only on later promotion to Validator
		// (classification.go's PromoteToValidator), not here.
		activated = append(activated, entry.nodeID)
	}

	return activated
}
