// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package election

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/core/node"
)

func TestElectIsIdempotentWithinEpoch(t *testing.T) {
	manager := node.NewManager()
	sr := manager.Registry(1)

	nA, err := sr.Register(common.HexToAddress("0xA"), common.HexToHash("0x1"), common.HexToHash("0x2"), nil, nil, 0, 10)
	require.NoError(t, err)
	nB, err := sr.Register(common.HexToAddress("0xB"), common.HexToHash("0x3"), common.HexToHash("0x4"), nil, nil, 0, 10)
	require.NoError(t, err)
	sr.InsertIntoSlot(nA.ID)
	sr.InsertIntoSlot(nB.ID)

	store := NewStore()
	seed := common.HexToHash("0xdeadbeef")

	first, err := store.Elect(sr, 1, 5, seed)
	require.NoError(t, err)

	different := common.HexToHash("0xcafebabe")
	second, err := store.Elect(sr, 1, 5, different)
	require.NoError(t, err)
	require.Equal(t, first, second)

	got, ok := store.Get(1, 5)
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestElectFailsWithNoSlots(t *testing.T) {
	manager := node.NewManager()
	sr := manager.Registry(1)
	store := NewStore()

	_, err := store.Elect(sr, 1, 1, common.HexToHash("0x1"))
	require.ErrorIs(t, err, coreerrors.ErrNoAvailableSlots)
}

func TestElectDistinctEpochsIndependent(t *testing.T) {
	manager := node.NewManager()
	sr := manager.Registry(1)
	nA, err := sr.Register(common.HexToAddress("0xA"), common.HexToHash("0x1"), common.HexToHash("0x2"), nil, nil, 0, 10)
	require.NoError(t, err)
	sr.InsertIntoSlot(nA.ID)

	store := NewStore()
	v1, err := store.Elect(sr, 1, 1, common.HexToHash("0xaa"))
	require.NoError(t, err)
	v2, err := store.Elect(sr, 1, 2, common.HexToHash("0xbb"))
	require.NoError(t, err)
	require.Equal(t, nA.ID, v1)
	require.Equal(t, nA.ID, v2)
}
