// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/core/scheduler"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/config"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

func testGlobal() config.Global {
	return config.Global{
		MaxSubnets:                    16,
		MinSubnetNodes:                1,
		MaxSubnetNodes:                64,
		EpochLength:                   10,
		SubnetOwnerPercentage:         uint256.NewInt(fixedpoint.PF / 10),
		FoundationPercentage:          uint256.NewInt(fixedpoint.PF / 5),
		BaseValidatorReward:           uint256.NewInt(1_000_000),
		MinAttestationPercentage:      uint256.NewInt(fixedpoint.PF / 2),
		SuperMajorityAttestationRatio: uint256.NewInt(fixedpoint.PF * 2 / 3),
		ReputationIncreaseFactor:      uint256.NewInt(fixedpoint.PF / 20),
		ReputationDecreaseFactor:      uint256.NewInt(fixedpoint.PF / 10),
		MaxUnbondings:                 1,
		MinSubnetDelegateStake:        uint256.NewInt(0),
		SubnetWeightFactors: config.WeightFactors{
			DelegateStake: uint256.NewInt(fixedpoint.PF / 3),
			NodeCount:     uint256.NewInt(fixedpoint.PF / 3),
			NetFlow:       fixedpoint.SatSub(fixedpoint.PFUint256(), uint256.NewInt(2*(fixedpoint.PF/3))),
		},
		OverwatchEpochLengthMultiplier: 3,
		OverwatchCommitCutoffPercent:   uint256.NewInt(fixedpoint.PF / 2),
		OverwatchStakeWeightFactor:     uint256.NewInt(fixedpoint.PF),
		OverwatchWeightFactor:          uint256.NewInt(fixedpoint.PF / 10),
		OverwatchEpochEmissions:        uint256.NewInt(0),
		SubnetDistributionPower:        uint256.NewInt(fixedpoint.PF),
	}
}

func TestStoreTickDrivesScheduler(t *testing.T) {
	s := New(nil, nil, testGlobal(), 0, scheduler.DefaultBlockWeightBudget)

	report, err := s.Tick(context.Background(), 0, common.HexToHash("0x1"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), report.Slot)

	report, err = s.Tick(context.Background(), 1, common.HexToHash("0x1"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), report.Slot)

	dist, ok := s.Scheduler.Weights(report.Epoch)
	require.True(t, ok)
	require.Empty(t, dist.Weights)
}

func TestStoreRemoveStakeCreditsUnbondingLedger(t *testing.T) {
	global := testGlobal()
	global.StakeCooldownEpochs = 10
	global.MaxUnbondings = 10
	s := New(nil, nil, global, 0, scheduler.DefaultBlockWeightBudget)

	coldkey := common.HexToAddress("0xC0")
	hotkey := common.HexToAddress("0x1")
	require.NoError(t, s.Identity.RegisterHotkey(coldkey, hotkey))
	s.Stake.Add(hotkey, 1, uint256.NewInt(10_000))

	require.NoError(t, s.RemoveStake(hotkey, 1, uint256.NewInt(1_000), 100, 0))
	require.Equal(t, uint64(9_000), s.Stake.Balance(hotkey, 1).Uint64())

	total, err := s.ClaimUnbondings(coldkey, ids.Block(100+global.StakeCooldownEpochs*global.EpochLength))
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), total.Uint64())
}
