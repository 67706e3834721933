// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids defines the identity types shared across the hypercore core:
// accounts (coldkey/hotkey), peer identifiers, and the small integer IDs
// used for subnets, subnet nodes and overwatch nodes.
package ids

import (
	"encoding/hex"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// Coldkey is the economic key that owns zero or more Hotkeys.
type Coldkey = common.Address

// Hotkey is the operational key registered against exactly one subnet node.
type Hotkey = common.Address

// PeerID identifies a libp2p-style peer (bootstrap/client/main). Off-chain
// peer signaling itself is out of scope (spec.md §1); only the identifier
// and its subnet-wide uniqueness are modeled here.
type PeerID = common.Hash

// SubnetID is the global, monotonically assigned identifier of a subnet.
type SubnetID uint32

// NodeID identifies a subnet node, unique within its subnet (not globally).
type NodeID uint32

// OverwatchNodeID identifies a registered overwatch node.
type OverwatchNodeID uint32

// Epoch is a blockchain-wide epoch counter.
type Epoch uint64

// SubnetEpoch is a per-subnet local epoch counter, derived from the
// subnet's slot and the global epoch length (see core/subnet).
type SubnetEpoch uint64

// Block is a block height.
type Block uint64

// ShortString renders a Coldkey/Hotkey/PeerID as base58, matching the
// teacher's human-readable ID convention (see utils/ids.ID.String() in
// avalanchego-family code) instead of go-ethereum's default 0x-hex.
func ShortString(h common.Hash) string {
	return base58.Encode(h[:])
}

// HexString is the canonical hex rendering, used in logs/RPC payloads
// where an unambiguous, greppable form matters more than brevity.
func HexString(h common.Hash) string {
	return hex.EncodeToString(h[:])
}

// SubnetIDs is a sortable slice of SubnetID, used to produce deterministic
// iteration order over map[SubnetID]... state (Go map iteration order is
// randomized; every consensus-critical traversal of subnets must sort
// first).
type SubnetIDs []SubnetID

func (s SubnetIDs) Len() int           { return len(s) }
func (s SubnetIDs) Less(i, j int) bool { return s[i] < s[j] }
func (s SubnetIDs) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Sorted returns a sorted copy of ids.
func Sorted(idSet []SubnetID) []SubnetID {
	out := make(SubnetIDs, len(idSet))
	copy(out, idSet)
	sort.Sort(out)
	return out
}

// NodeIDs is a sortable slice of NodeID, for the same reason as SubnetIDs.
type NodeIDs []NodeID

func (s NodeIDs) Len() int           { return len(s) }
func (s NodeIDs) Less(i, j int) bool { return s[i] < s[j] }
func (s NodeIDs) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// SortedNodeIDs returns a sorted copy of nodeIDs.
func SortedNodeIDs(nodeIDs []NodeID) []NodeID {
	out := make(NodeIDs, len(nodeIDs))
	copy(out, nodeIDs)
	sort.Sort(out)
	return out
}
