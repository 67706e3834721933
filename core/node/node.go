// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node implements the per-subnet node lifecycle: the
// registration queue, churn-limited activation, class graduation, and
// election-slot membership described by spec.md §4.G.
package node

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/ids"
)

// Class is a subnet node's classification, strictly ordered
// Registered < Idle < Included < Validator (spec.md §3).
type Class uint8

const (
	ClassRegistered Class = iota
	ClassIdle
	ClassIncluded
	ClassValidator
)

func (c Class) String() string {
	switch c {
	case ClassRegistered:
		return "Registered"
	case ClassIdle:
		return "Idle"
	case ClassIncluded:
		return "Included"
	case ClassValidator:
		return "Validator"
	default:
		return "Unknown"
	}
}

// Classification is the (class, start_epoch) pair stored on every node;
// start_epoch's meaning is class-dependent (queue readiness while
// Registered, graduation anchor while Idle/Included).
type Classification struct {
	Class      Class
	StartEpoch ids.SubnetEpoch
}

// HasClassification reports whether the node's class equals class;
// start_epoch is not taken into account (most callers just compare
// c.Class == class directly; this exists for symmetry with
// has_classification in the original subnet_node.rs).
func (c Classification) HasClassification(class Class) bool {
	return c.Class == class
}

// Node is SubnetNode from spec.md §3.
type Node struct {
	ID                           ids.NodeID
	Hotkey                       ids.Hotkey
	PeerID                       ids.PeerID
	BootstrapPeerID              ids.PeerID
	ClientPeerID                 *ids.PeerID
	UniqueParamA                 *string
	Classification               Classification
	DelegateRewardRate           *uint256.Int
	LastDelegateRewardRateUpdate ids.Block
	Penalties                    uint32
	ConsecutiveIncludedEpochs    uint32
}

func (n *Node) clone() *Node {
	cp := *n
	if n.DelegateRewardRate != nil {
		cp.DelegateRewardRate = n.DelegateRewardRate.Clone()
	}
	return &cp
}
