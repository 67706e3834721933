// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"github.com/google/btree"
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
)

// registrationQueueTreeDegree is the btree degree backing every subnet's
// registration queue.
const registrationQueueTreeDegree = 32

// SubnetRegistry owns one subnet's three disjoint node maps (Registered,
// Active, Deactivated — spec.md §3), the ordered registration queue, the
// election-slot list with its swap-pop index, and the peer-id/hotkey
// uniqueness indexes.
type SubnetRegistry struct {
	subnetID ids.SubnetID

	queued       map[ids.NodeID]*Node
	active       map[ids.NodeID]*Node
	deactivated  map[ids.NodeID]*Node
	queueOrder   *btree.BTreeG[*queueEntry]
	queueEntries map[ids.NodeID]*queueEntry

	electionSlots []ids.NodeID
	slotIndex     map[ids.NodeID]int

	peerIDs          map[ids.PeerID]ids.NodeID
	bootstrapPeerIDs map[ids.PeerID]ids.NodeID
	clientPeerIDs    map[ids.PeerID]ids.NodeID
	hotkeyToNode     map[ids.Hotkey]ids.NodeID
	uniqueParamA     map[string]ids.NodeID

	nextNodeID  uint32
	totalActive uint32
}

// Manager owns every subnet's SubnetRegistry.
type Manager struct {
	subnets map[ids.SubnetID]*SubnetRegistry
}

// NewManager constructs an empty node manager.
func NewManager() *Manager {
	return &Manager{subnets: make(map[ids.SubnetID]*SubnetRegistry)}
}

// Registry returns (creating if necessary) the SubnetRegistry owning
// subnetID's nodes.
func (m *Manager) Registry(subnetID ids.SubnetID) *SubnetRegistry {
	return m.subnet(subnetID)
}

func (m *Manager) subnet(subnetID ids.SubnetID) *SubnetRegistry {
	sr, ok := m.subnets[subnetID]
	if !ok {
		sr = &SubnetRegistry{
			subnetID:         subnetID,
			queued:           make(map[ids.NodeID]*Node),
			active:           make(map[ids.NodeID]*Node),
			deactivated:      make(map[ids.NodeID]*Node),
			queueOrder:       btree.NewG(registrationQueueTreeDegree, (*queueEntry).Less),
			queueEntries:     make(map[ids.NodeID]*queueEntry),
			slotIndex:        make(map[ids.NodeID]int),
			peerIDs:          make(map[ids.PeerID]ids.NodeID),
			bootstrapPeerIDs: make(map[ids.PeerID]ids.NodeID),
			clientPeerIDs:    make(map[ids.PeerID]ids.NodeID),
			hotkeyToNode:     make(map[ids.Hotkey]ids.NodeID),
			uniqueParamA:     make(map[string]ids.NodeID),
		}
		m.subnets[subnetID] = sr
	}
	return sr
}

// Subnets returns every subnet id that has ever had a node registered,
// for callers that need to sum a metric (e.g. TotalElectableNodes) across
// the whole network rather than one subnet at a time.
func (m *Manager) Subnets() []ids.SubnetID {
	out := make([]ids.SubnetID, 0, len(m.subnets))
	for sid := range m.subnets {
		out = append(out, sid)
	}
	return out
}

// TotalActive reports TotalActiveSubnetNodes(sid).
func (m *Manager) TotalActive(subnetID ids.SubnetID) uint32 {
	return m.subnet(subnetID).totalActive
}

// Get returns nodeID's record and which stage it is currently in, or nil
// if it does not exist in subnetID.
func (m *Manager) Get(subnetID ids.SubnetID, nodeID ids.NodeID) *Node {
	sr := m.subnet(subnetID)
	if n, ok := sr.active[nodeID]; ok {
		return n
	}
	if n, ok := sr.queued[nodeID]; ok {
		return n
	}
	return sr.deactivated[nodeID]
}

// NodeByHotkey returns hotkey's node within subnetID, or false if hotkey
// has never registered a node there.
func (m *Manager) NodeByHotkey(subnetID ids.SubnetID, hotkey ids.Hotkey) (*Node, bool) {
	sr := m.subnet(subnetID)
	nodeID, ok := sr.hotkeyToNode[hotkey]
	if !ok {
		return nil, false
	}
	return m.Get(subnetID, nodeID), true
}

// IsActive reports whether nodeID currently sits in subnetID's Active
// stage (as opposed to Registered/queued or Deactivated).
func (m *Manager) IsActive(subnetID ids.SubnetID, nodeID ids.NodeID) bool {
	_, ok := m.subnet(subnetID).active[nodeID]
	return ok
}

// Register enqueues a new node in the Registered stage/class. g is the
// position group used both as the stored start_epoch and (added to
// subnetNodeQueueEpochs) the effective readiness epoch checked by
// HandleRegistrationQueue (spec.md §4.G "Registration queue").
func (sr *SubnetRegistry) Register(
	hotkey ids.Hotkey,
	peerID, bootstrapPeerID ids.PeerID,
	clientPeerID *ids.PeerID,
	uniqueParamA *string,
	currentSubnetEpoch ids.SubnetEpoch,
	churnLimit uint32,
) (*Node, error) {
	if _, exists := sr.hotkeyToNode[hotkey]; exists {
		return nil, coreerrors.ErrNotKeyOwner
	}
	if _, taken := sr.peerIDs[peerID]; taken {
		return nil, coreerrors.ErrPeerIDExist
	}
	if _, taken := sr.bootstrapPeerIDs[bootstrapPeerID]; taken {
		return nil, coreerrors.ErrPeerIDExist
	}
	if clientPeerID != nil {
		if _, taken := sr.clientPeerIDs[*clientPeerID]; taken {
			return nil, coreerrors.ErrPeerIDExist
		}
	}
	if uniqueParamA != nil {
		if _, taken := sr.uniqueParamA[*uniqueParamA]; taken {
			return nil, coreerrors.ErrInvalidValues
		}
	}

	g := ids.SubnetEpoch(0)
	if churnLimit > 0 {
		g = ids.SubnetEpoch(uint64(sr.queueOrder.Len()) / uint64(churnLimit))
	}

	sr.nextNodeID++
	id := ids.NodeID(sr.nextNodeID)

	n := &Node{
		ID:              id,
		Hotkey:          hotkey,
		PeerID:          peerID,
		BootstrapPeerID: bootstrapPeerID,
		ClientPeerID:    clientPeerID,
		UniqueParamA:    uniqueParamA,
		Classification: Classification{
			Class:      ClassRegistered,
			StartEpoch: currentSubnetEpoch + g,
		},
		DelegateRewardRate: uint256.NewInt(0),
	}

	sr.queued[id] = n
	entry := &queueEntry{startEpoch: n.Classification.StartEpoch, nodeID: id}
	sr.queueOrder.ReplaceOrInsert(entry)
	sr.queueEntries[id] = entry
	sr.hotkeyToNode[hotkey] = id
	sr.peerIDs[peerID] = id
	sr.bootstrapPeerIDs[bootstrapPeerID] = id
	if clientPeerID != nil {
		sr.clientPeerIDs[*clientPeerID] = id
	}
	if uniqueParamA != nil {
		sr.uniqueParamA[*uniqueParamA] = id
	}

	return n, nil
}

// Remove deletes nodeID from whichever stage holds it, freeing its peer
// ids, hotkey mapping, unique param, election slot, and penalty counter
// (perform_remove_subnet_node).
func (sr *SubnetRegistry) Remove(nodeID ids.NodeID) error {
	var n *Node
	var wasActive bool

	if v, ok := sr.active[nodeID]; ok {
		n = v
		wasActive = true
		delete(sr.active, nodeID)
	} else if v, ok := sr.queued[nodeID]; ok {
		n = v
		delete(sr.queued, nodeID)
		sr.removeFromQueueOrder(nodeID)
	} else if v, ok := sr.deactivated[nodeID]; ok {
		n = v
		delete(sr.deactivated, nodeID)
	} else {
		return coreerrors.ErrSubnetNodeNotExist
	}

	delete(sr.hotkeyToNode, n.Hotkey)
	delete(sr.peerIDs, n.PeerID)
	delete(sr.bootstrapPeerIDs, n.BootstrapPeerID)
	if n.ClientPeerID != nil {
		delete(sr.clientPeerIDs, *n.ClientPeerID)
	}
	if n.UniqueParamA != nil {
		delete(sr.uniqueParamA, *n.UniqueParamA)
	}

	if wasActive {
		sr.removeFromSlot(nodeID)
		if sr.totalActive > 0 {
			sr.totalActive--
		}
	}

	return nil
}

// PrioritizeInQueue moves nodeID toward the front of the registration
// queue (reward pipeline step 2: "if submission includes
// prioritize_queue_node_id, move it to front"). queueOrder sorts by
// start_epoch, then node id, so nodeID's start_epoch is lowered to the
// current minimum start_epoch of the queue; it is never set below that
// minimum. Among nodes sharing that start_epoch the order stays by node
// id, so nodeID is first in the queue only if its id is the lowest of them.
func (sr *SubnetRegistry) PrioritizeInQueue(nodeID ids.NodeID) error {
	n, ok := sr.queued[nodeID]
	if !ok {
		return coreerrors.ErrSubnetNodeNotExist
	}
	sr.removeFromQueueOrder(nodeID)

	newStart := n.Classification.StartEpoch
	if front, ok := sr.queueOrder.Min(); ok && front.startEpoch < newStart {
		newStart = front.startEpoch
	}
	n.Classification.StartEpoch = newStart

	entry := &queueEntry{startEpoch: newStart, nodeID: nodeID}
	sr.queueOrder.ReplaceOrInsert(entry)
	sr.queueEntries[nodeID] = entry
	return nil
}

func (sr *SubnetRegistry) removeFromQueueOrder(nodeID ids.NodeID) {
	if entry, ok := sr.queueEntries[nodeID]; ok {
		sr.deleteQueueEntry(entry)
	}
}
