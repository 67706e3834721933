// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package subnet

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/core/coreerrors"
)

var testAlpha = uint256.NewInt(500_000_000_000_000_000) // 0.5

func TestRegisterAssignsSmallestFreeSlot(t *testing.T) {
	r := NewRegistry(16)
	owner := common.HexToAddress("0xA")

	sn1, cost1, err := r.Register("a", "repo-a", "", "", owner, 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)
	require.Equal(t, uint64(2), sn1.Slot)
	require.Equal(t, uint64(10), cost1.Uint64()) // first-ever registration pays Min

	sn2, _, err := r.Register("b", "repo-b", "", "", owner, 1,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)
	require.Equal(t, uint64(3), sn2.Slot)

	require.NoError(t, r.Remove(sn1.ID, RemovalOwner))

	sn3, _, err := r.Register("c", "repo-c", "", "", owner, 2,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)
	require.Equal(t, uint64(2), sn3.Slot) // freed slot reused
}

func TestRegisterRejectsDuplicateNameAndRepo(t *testing.T) {
	r := NewRegistry(16)
	owner := common.HexToAddress("0xA")
	_, _, err := r.Register("a", "repo-a", "", "", owner, 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)

	_, _, err = r.Register("a", "repo-b", "", "", owner, 1,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.ErrorIs(t, err, coreerrors.ErrSubnetNameExist)

	_, _, err = r.Register("b", "repo-a", "", "", owner, 1,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.Error(t, err)
}

func TestActivateFailsEnactmentWindowRemovesSubnet(t *testing.T) {
	r := NewRegistry(16)
	owner := common.HexToAddress("0xA")
	sn, _, err := r.Register("a", "repo-a", "", "", owner, 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)

	reason, err := r.Activate(sn.ID, owner, 0, 5, 5, ActivationCheck{
		TotalActiveNodes:       10,
		MinSubnetNodes:         1,
		MinSubnetDelegateStake: uint256.NewInt(0),
	})
	require.Error(t, err)
	require.Equal(t, RemovalEnactmentPeriod, reason)
	require.Nil(t, r.Get(sn.ID))
}

func TestActivateSucceedsWithinWindow(t *testing.T) {
	r := NewRegistry(16)
	owner := common.HexToAddress("0xA")
	sn, _, err := r.Register("a", "repo-a", "", "", owner, 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)

	_, err = r.Activate(sn.ID, owner, 5, 5, 5, ActivationCheck{
		TotalActiveNodes:       10,
		MinSubnetNodes:         1,
		MinSubnetDelegateStake: uint256.NewInt(0),
	})
	require.NoError(t, err)
	require.Equal(t, StateActive, r.Get(sn.ID).State)
}

func TestPauseUnpauseCooldownAndDelta(t *testing.T) {
	r := NewRegistry(16)
	owner := common.HexToAddress("0xA")
	sn, _, err := r.Register("a", "repo-a", "", "", owner, 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)
	_, err = r.Activate(sn.ID, owner, 5, 5, 5, ActivationCheck{
		TotalActiveNodes: 10, MinSubnetNodes: 1, MinSubnetDelegateStake: uint256.NewInt(0),
	})
	require.NoError(t, err)

	require.NoError(t, r.Pause(sn.ID, owner, 10, 3))

	err = r.Pause(sn.ID, owner, 11, 3)
	require.Error(t, err) // already paused

	delta, err := r.Unpause(sn.ID, owner, 15)
	require.NoError(t, err)
	require.Equal(t, uint64(6), uint64(delta)) // 15 - 10 + 1
	require.Equal(t, StateActive, r.Get(sn.ID).State)
	require.Equal(t, uint64(16), uint64(r.Get(sn.ID).StartEpoch)) // 15 + 1
}

func TestTwoStepOwnershipTransfer(t *testing.T) {
	r := NewRegistry(16)
	owner := common.HexToAddress("0xA")
	newOwner := common.HexToAddress("0xB")
	sn, _, err := r.Register("a", "repo-a", "", "", owner, 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, testAlpha)
	require.NoError(t, err)

	require.NoError(t, r.TransferOwnership(sn.ID, owner, newOwner))

	err = r.AcceptOwnership(sn.ID, owner)
	require.Error(t, err) // wrong caller

	require.NoError(t, r.AcceptOwnership(sn.ID, newOwner))
	got, ok := r.Owner(sn.ID)
	require.True(t, ok)
	require.Equal(t, newOwner, got)
}
