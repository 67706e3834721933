// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package external names the contracts core/ depends on but never
// implements: transaction signing/account lookup, block-derived
// randomness, the persisted key/value backend, and peer discovery for
// subnet bootnodes. Every one of these is explicitly out of scope per
// spec.md §6 ("out of scope but contract must match"); this package
// exists so core/ can be exercised and tested against a mock
// (go.uber.org/mock) without ever importing a concrete transport,
// database, or wallet.
package external

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hypercore-net/hypercore/ids"
)

// Signer authenticates an extrinsic's origin, the role a chain's
// transaction-pool/wallet layer plays upstream of every core/ mutation.
// core/ never verifies signatures itself — callers are expected to have
// already run the equivalent of spec.md §7's "BadOrigin" filter before
// reaching a component method.
type Signer interface {
	// Sign returns digest's signature under the key controlling signer.
	Sign(ctx context.Context, signer common.Address, digest common.Hash) ([]byte, error)
	// Verify reports whether sig is a valid signature of digest by signer.
	Verify(signer common.Address, digest common.Hash, sig []byte) bool
}

// BlockSource supplies the block-derived randomness core/election needs
// for SubnetElectedValidator draws (spec.md §4.L: "deterministic ...
// e.g., VRF or epoch-block hash") without core/election depending on a
// concrete chain client.
type BlockSource interface {
	// CurrentBlock returns the block height the caller's next Tick
	// should run for.
	CurrentBlock(ctx context.Context) (ids.Block, error)
	// SeedForBlock returns the deterministic randomness attributable to
	// block — an epoch-block hash, a VRF output, or equivalent.
	SeedForBlock(ctx context.Context, block ids.Block) (common.Hash, error)
}

// KVStore is the map-oriented persisted-state contract of spec.md §6:
// "Keys are tuples with hash kinds ... Values are canonical encodings of
// typed structs." core/ never touches one directly — state.Store is
// pure in-memory — but a chain-integration layer snapshotting or
// replaying Store's contents needs exactly this shape.
type KVStore interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	// Iterate calls fn for every key sharing prefix, in key order,
	// stopping early if fn returns false.
	Iterate(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error
}

// PeerSource resolves a subnet's bootnode list for update_bootnodes and
// network_getBootnodes (spec.md §6), kept external because peer
// liveness/reachability is a P2P-layer concern core/subnet never
// evaluates itself.
type PeerSource interface {
	Bootnodes(ctx context.Context, subnetID ids.SubnetID) ([]ids.PeerID, error)
	SetBootnodes(ctx context.Context, subnetID ids.SubnetID, peers []ids.PeerID) error
}
