// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package overwatch

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

func half() *uint256.Int {
	return new(uint256.Int).Div(fixedpoint.PFUint256(), uint256.NewInt(2))
}

func TestCommitRevealRoundTrip(t *testing.T) {
	registry := NewRegistry()
	hotkey := common.HexToAddress("0xHotkey")
	n, err := registry.Register(hotkey, hotkey, uint256.NewInt(100))
	require.NoError(t, err)

	ballots := NewBallots()
	weight := half()
	salt := []byte("salt-1")
	hash := CommitHash(weight, salt)

	err = ballots.Commit(registry, 1, hotkey, n.ID, []CommitItem{{SubnetID: 1, Hash: hash}})
	require.NoError(t, err)

	err = ballots.Commit(registry, 1, hotkey, n.ID, []CommitItem{{SubnetID: 1, Hash: hash}})
	require.ErrorIs(t, err, coreerrors.ErrAlreadyCommitted)

	err = ballots.Reveal(registry, 1, hotkey, n.ID, PhaseCommit, []RevealItem{{SubnetID: 1, Weight: weight, Salt: salt}})
	require.ErrorIs(t, err, coreerrors.ErrNotRevealPeriod)

	err = ballots.Reveal(registry, 1, hotkey, n.ID, PhaseReveal, []RevealItem{{SubnetID: 1, Weight: weight, Salt: []byte("wrong-salt")}})
	require.ErrorIs(t, err, coreerrors.ErrRevealMismatch)

	err = ballots.Reveal(registry, 1, hotkey, n.ID, PhaseReveal, []RevealItem{{SubnetID: 1, Weight: weight, Salt: salt}})
	require.NoError(t, err)

	reveals := ballots.revealsFor(1)
	require.Len(t, reveals, 1)
	require.Equal(t, weight, reveals[0].Weight)
}

func TestCommitRejectsBlacklistedColdkey(t *testing.T) {
	registry := NewRegistry()
	hotkey := common.HexToAddress("0xHotkey")
	n, err := registry.Register(hotkey, hotkey, uint256.NewInt(100))
	require.NoError(t, err)

	registry.Blacklist(hotkey)

	ballots := NewBallots()
	err = ballots.Commit(registry, 1, hotkey, n.ID, []CommitItem{{SubnetID: 1, Hash: [16]byte{1}}})
	require.ErrorIs(t, err, coreerrors.ErrColdkeyBlacklisted)
}

// TestAggregateEqualStakeEqualWeights mirrors spec.md's worked example:
// two overwatch nodes with equal stake both reveal weight 0.5 for the
// same subnet, so the subnet's aggregate weight is 0.5 and both nodes
// earn identical normalized scores and rewards.
func TestAggregateEqualStakeEqualWeights(t *testing.T) {
	registry := NewRegistry()
	ballots := NewBallots()

	hotkeyA := common.HexToAddress("0xA")
	hotkeyB := common.HexToAddress("0xB")
	nA, err := registry.Register(hotkeyA, hotkeyA, uint256.NewInt(100))
	require.NoError(t, err)
	nB, err := registry.Register(hotkeyB, hotkeyB, uint256.NewInt(100))
	require.NoError(t, err)

	weight := half()
	for _, node := range []struct {
		hotkey ids.Hotkey
		id     ids.OverwatchNodeID
		salt   []byte
	}{
		{hotkeyA, nA.ID, []byte("salt-a")},
		{hotkeyB, nB.ID, []byte("salt-b")},
	} {
		hash := CommitHash(weight, node.salt)
		require.NoError(t, ballots.Commit(registry, 1, node.hotkey, node.id, []CommitItem{{SubnetID: 1, Hash: hash}}))
		require.NoError(t, ballots.Reveal(registry, 1, node.hotkey, node.id, PhaseReveal,
			[]RevealItem{{SubnetID: 1, Weight: weight, Salt: node.salt}}))
	}

	result := Aggregate(ballots, registry, 1, fixedpoint.PFUint256(), uint256.NewInt(1_000_000), 3,
		[]ids.OverwatchNodeID{nA.ID, nB.ID})

	require.Equal(t, weight, result.SubnetWeights[1])
	require.Equal(t, result.NodeWeights[nA.ID], result.NodeWeights[nB.ID])

	sum := new(uint256.Int).Add(result.NodeWeights[nA.ID], result.NodeWeights[nB.ID])
	diff := fixedpoint.SatSub(fixedpoint.PFUint256(), sum)
	require.True(t, diff.Cmp(uint256.NewInt(10)) <= 0)

	require.True(t, registry.Stake(nA.ID).Cmp(uint256.NewInt(100)) > 0)
	require.True(t, registry.Stake(nB.ID).Cmp(uint256.NewInt(100)) > 0)
	require.Equal(t, registry.Stake(nA.ID), registry.Stake(nB.ID))
}

func TestAggregatePenalizesNonRevealingNode(t *testing.T) {
	registry := NewRegistry()
	ballots := NewBallots()

	hotkeyA := common.HexToAddress("0xA")
	hotkeyB := common.HexToAddress("0xB")
	nA, err := registry.Register(hotkeyA, hotkeyA, uint256.NewInt(100))
	require.NoError(t, err)
	nB, err := registry.Register(hotkeyB, hotkeyB, uint256.NewInt(100))
	require.NoError(t, err)

	weight := half()
	hash := CommitHash(weight, []byte("salt-a"))
	require.NoError(t, ballots.Commit(registry, 1, hotkeyA, nA.ID, []CommitItem{{SubnetID: 1, Hash: hash}}))
	require.NoError(t, ballots.Reveal(registry, 1, hotkeyA, nA.ID, PhaseReveal,
		[]RevealItem{{SubnetID: 1, Weight: weight, Salt: []byte("salt-a")}}))

	Aggregate(ballots, registry, 1, fixedpoint.PFUint256(), uint256.NewInt(1_000_000), 3,
		[]ids.OverwatchNodeID{nA.ID, nB.ID})

	require.Equal(t, uint32(1), registry.Get(nB.ID).Penalties)
	require.Equal(t, uint32(0), registry.Get(nA.ID).Penalties)
}
