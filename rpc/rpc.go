// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpc names the query surface of spec.md §6 ("RPC surface (out
// of scope but contract must match)") as a Go interface, the way the
// teacher's vms/platformvm.Client interface documents a JSON-RPC
// method set without this repository owning the transport. No HTTP
// handler, codec, or client lives here — a chain-integration layer
// implements Reader against a core/state.Store and serves it however it
// likes; core/ itself only needs the shape to exist so callers can be
// written against it.
package rpc

import (
	"context"

	"github.com/hypercore-net/hypercore/ids"
)

// Reader is the read-only query surface spec.md §6 lists, one method per
// named RPC. Every return value is "bytes" in the spec because the wire
// encoding (SCALE there, RLP here per internal/codec) is a transport
// concern; Reader returns the canonical encoding of whatever struct the
// query names, at block at (nil meaning the latest accepted block).
type Reader interface {
	// GetSubnetInfo is network_getSubnetInfo.
	GetSubnetInfo(ctx context.Context, subnetID ids.SubnetID, at *ids.Block) ([]byte, error)
	// GetAllSubnetsInfo is network_getAllSubnetsInfo.
	GetAllSubnetsInfo(ctx context.Context, at *ids.Block) ([]byte, error)
	// GetSubnetNodeInfo is network_getSubnetNodeInfo.
	GetSubnetNodeInfo(ctx context.Context, subnetID ids.SubnetID, nodeID ids.NodeID, at *ids.Block) ([]byte, error)
	// GetSubnetNodesInfo is network_getSubnetNodesInfo.
	GetSubnetNodesInfo(ctx context.Context, subnetID ids.SubnetID, at *ids.Block) ([]byte, error)
	// GetAllSubnetNodesInfo is network_getAllSubnetNodesInfo.
	GetAllSubnetNodesInfo(ctx context.Context, at *ids.Block) ([]byte, error)
	// ProofOfStake is network_proofOfStake: reports whether peerID is
	// registered under subnetID at classification minClass or higher.
	ProofOfStake(ctx context.Context, subnetID ids.SubnetID, peerID ids.PeerID, minClass uint8, at *ids.Block) (bool, error)
	// GetBootnodes is network_getBootnodes.
	GetBootnodes(ctx context.Context, subnetID ids.SubnetID, at *ids.Block) ([]byte, error)
	// GetColdkeySubnetNodesInfo is network_getColdkeySubnetNodesInfo.
	GetColdkeySubnetNodesInfo(ctx context.Context, coldkey ids.Coldkey, at *ids.Block) ([]byte, error)
	// GetColdkeyStakes is network_getColdkeyStakes.
	GetColdkeyStakes(ctx context.Context, coldkey ids.Coldkey, at *ids.Block) ([]byte, error)
	// GetDelegateStakes is network_getDelegateStakes.
	GetDelegateStakes(ctx context.Context, account ids.Coldkey, at *ids.Block) ([]byte, error)
	// GetNodeDelegateStakes is network_getNodeDelegateStakes.
	GetNodeDelegateStakes(ctx context.Context, account ids.Coldkey, at *ids.Block) ([]byte, error)
	// GetOverwatchCommitsForEpochAndNode is network_getOverwatchCommitsForEpochAndNode.
	GetOverwatchCommitsForEpochAndNode(ctx context.Context, epoch ids.Epoch, owNodeID ids.OverwatchNodeID) ([]byte, error)
	// GetOverwatchRevealsForEpochAndNode is network_getOverwatchRevealsForEpochAndNode.
	GetOverwatchRevealsForEpochAndNode(ctx context.Context, epoch ids.Epoch, owNodeID ids.OverwatchNodeID) ([]byte, error)
}
