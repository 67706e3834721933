// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/ids"
)

func peerID(b byte) ids.PeerID {
	var h common.Hash
	h[31] = b
	return h
}

func hotkeyFor(i int64) ids.Hotkey {
	return common.BigToAddress(big.NewInt(i))
}

func TestRegisterAssignsPositionGroupStartEpoch(t *testing.T) {
	m := NewManager()
	sr := m.subnet(1)

	for i := 0; i < 5; i++ {
		hotkey := hotkeyFor(int64(i))
		n, err := sr.Register(hotkey, peerID(byte(i)), peerID(byte(100+i)), nil, nil, 10, 2)
		require.NoError(t, err)
		// churnLimit=2: groups are 0,0,1,1,2 for indices 0..4
		wantGroup := uint64(i) / 2
		require.Equal(t, uint64(10)+wantGroup, uint64(n.Classification.StartEpoch))
	}
}

func TestRegisterRejectsDuplicateHotkeyAndPeerID(t *testing.T) {
	m := NewManager()
	sr := m.subnet(1)
	hotkey := hotkeyFor(1)

	_, err := sr.Register(hotkey, peerID(1), peerID(2), nil, nil, 0, 2)
	require.NoError(t, err)

	_, err = sr.Register(hotkey, peerID(3), peerID(4), nil, nil, 0, 2)
	require.Error(t, err)

	_, err = sr.Register(hotkeyFor(2), peerID(1), peerID(5), nil, nil, 0, 2)
	require.Error(t, err)
}

func TestHandleRegistrationQueueRespectsChurnAndReadiness(t *testing.T) {
	m := NewManager()
	sr := m.subnet(1)

	for i := 0; i < 4; i++ {
		_, err := sr.Register(hotkeyFor(int64(i)), peerID(byte(i)), peerID(byte(50+i)), nil, nil, 0, 2)
		require.NoError(t, err)
	}

	activated := sr.HandleRegistrationQueue(3, 2, 2, 100)
	require.Len(t, activated, 2)
	require.Equal(t, uint32(2), sr.totalActive)

	for _, id := range activated {
		n := sr.active[id]
		require.Equal(t, ClassIdle, n.Classification.Class)
	}
}

func TestHandleRegistrationQueueCapsAtMaxSubnetNodes(t *testing.T) {
	m := NewManager()
	sr := m.subnet(1)
	for i := 0; i < 4; i++ {
		_, err := sr.Register(hotkeyFor(int64(i)), peerID(byte(i)), peerID(byte(60+i)), nil, nil, 0, 1)
		require.NoError(t, err)
	}

	activated := sr.HandleRegistrationQueue(100, 0, 10, 1)
	require.Len(t, activated, 1)
}

func TestPromoteToValidatorMintsSlotAndRemoveFreesIt(t *testing.T) {
	m := NewManager()
	sr := m.subnet(1)
	_, err := sr.Register(hotkeyFor(1), peerID(1), peerID(2), nil, nil, 0, 10)
	require.NoError(t, err)

	activated := sr.HandleRegistrationQueue(5, 0, 10, 10)
	require.Len(t, activated, 1)
	nodeID := activated[0]

	n := sr.active[nodeID]
	n.Classification.Class = ClassIncluded
	n.ConsecutiveIncludedEpochs = 5

	ok := sr.PromoteToValidator(nodeID, 5, 6)
	require.True(t, ok)
	require.Equal(t, 1, sr.ElectionSlotCount())

	require.NoError(t, sr.Remove(nodeID))
	require.Equal(t, 0, sr.ElectionSlotCount())
}

func TestApplyPenaltyRemovesNodeOverThreshold(t *testing.T) {
	m := NewManager()
	sr := m.subnet(1)
	_, err := sr.Register(hotkeyFor(1), peerID(1), peerID(2), nil, nil, 0, 10)
	require.NoError(t, err)
	activated := sr.HandleRegistrationQueue(5, 0, 10, 10)
	nodeID := activated[0]

	removed, err := sr.ApplyPenalty(nodeID, 2)
	require.NoError(t, err)
	require.False(t, removed)

	removed, err = sr.ApplyPenalty(nodeID, 2)
	require.NoError(t, err)
	require.False(t, removed)

	removed, err = sr.ApplyPenalty(nodeID, 2)
	require.NoError(t, err)
	require.True(t, removed)

	require.Nil(t, m.Get(1, nodeID))
}
