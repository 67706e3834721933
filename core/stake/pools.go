// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import "github.com/hypercore-net/hypercore/ids"

// SubnetNodeKey identifies one node-delegate pool: (subnet, node).
type SubnetNodeKey struct {
	SubnetID ids.SubnetID
	NodeID   ids.NodeID
}

// SubnetDelegatePools is the per-subnet delegate-stake pool collection
// from spec.md §3.
type SubnetDelegatePools = Delegation[ids.SubnetID]

// NewSubnetDelegatePools constructs the subnet-level delegate pool
// ledger.
func NewSubnetDelegatePools(decimalOffset uint) *SubnetDelegatePools {
	return NewDelegation[ids.SubnetID](decimalOffset)
}

// NodeDelegatePools is the per-(subnet, node) delegate-stake pool
// collection from spec.md §3.
type NodeDelegatePools = Delegation[SubnetNodeKey]

// NewNodeDelegatePools constructs the node-level delegate pool ledger.
func NewNodeDelegatePools(decimalOffset uint) *NodeDelegatePools {
	return NewDelegation[SubnetNodeKey](decimalOffset)
}
