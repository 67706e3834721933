// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/ids"
)

// SwapTarget distinguishes which delegate pool a QueuedSwapCall credits.
type SwapTarget uint8

const (
	SwapToSubnetDelegate SwapTarget = iota
	SwapToNodeDelegate
)

// QueuedSwapCall is the deferred credit spec.md §4.D.2 describes:
// swap_delegate_stake/swap_node_delegate_stake remove assets from the
// source pool immediately (without debiting the user, since the value is
// already committed to moving) and enqueue this call for the scheduler to
// apply to the destination pool on a later block.
type QueuedSwapCall struct {
	Coldkey      ids.Coldkey
	Target       SwapTarget
	SubnetID     ids.SubnetID
	NodeID       ids.NodeID // only meaningful when Target == SwapToNodeDelegate
	Assets       *uint256.Int
}

// SwapQueue is a simple FIFO of pending swap calls.
type SwapQueue struct {
	pending []QueuedSwapCall
}

// NewSwapQueue constructs an empty swap queue.
func NewSwapQueue() *SwapQueue { return &SwapQueue{} }

// Enqueue appends a swap call to be applied on a later block.
func (q *SwapQueue) Enqueue(call QueuedSwapCall) {
	q.pending = append(q.pending, call)
}

// Len reports the number of pending swap calls.
func (q *SwapQueue) Len() int { return len(q.pending) }

// Drain removes and returns up to max pending calls, in FIFO order, for
// the scheduler to apply within its per-block weight budget.
func (q *SwapQueue) Drain(max int) []QueuedSwapCall {
	if max <= 0 || len(q.pending) == 0 {
		return nil
	}
	if max > len(q.pending) {
		max = len(q.pending)
	}
	out := q.pending[:max]
	q.pending = q.pending[max:]
	return out
}

// Apply credits a drained swap call into the given pool ledgers.
func Apply(call QueuedSwapCall, subnetPools *SubnetDelegatePools, nodePools *NodeDelegatePools) error {
	switch call.Target {
	case SwapToSubnetDelegate:
		_, err := subnetPools.Add(call.Coldkey, call.SubnetID, call.Assets, false)
		return err
	default:
		_, err := nodePools.Add(call.Coldkey, SubnetNodeKey{call.SubnetID, call.NodeID}, call.Assets, false)
		return err
	}
}
