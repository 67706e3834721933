// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reward

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/core/consensus"
	"github.com/hypercore-net/hypercore/core/identity"
	"github.com/hypercore-net/hypercore/core/node"
	"github.com/hypercore-net/hypercore/core/stake"
	"github.com/hypercore-net/hypercore/core/subnet"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

func pf(pct uint64) *uint256.Int {
	return new(uint256.Int).Div(
		new(uint256.Int).Mul(fixedpoint.PFUint256(), uint256.NewInt(pct)),
		uint256.NewInt(100),
	)
}

func peerIDFor(b byte) ids.PeerID {
	var h common.Hash
	h[31] = b
	return h
}

func newValidatorNode(t *testing.T, sr *node.SubnetRegistry, hotkey ids.Hotkey) ids.NodeID {
	t.Helper()
	n, err := sr.Register(hotkey, peerIDFor(1), peerIDFor(2), nil, nil, 0, 10)
	require.NoError(t, err)
	activated := sr.HandleRegistrationQueue(1, 0, 10, 10)
	require.Len(t, activated, 1)
	active := sr.Get(n.ID)
	active.Classification.Class = node.ClassValidator
	sr.InsertIntoSlot(n.ID)
	return n.ID
}

func TestDistributeGatesBelowMinAttestation(t *testing.T) {
	manager := node.NewManager()

	subnets := subnet.NewRegistry(16)
	sn, _, err := subnets.Register("a", "repo-a", "", "", common.HexToAddress("0xOwner"), 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, uint256.NewInt(500_000_000_000_000_000))
	require.NoError(t, err)
	subID := sn.ID

	nr := manager.Registry(subID)
	hotkey := common.HexToAddress("0xA")
	validatorID := newValidatorNode(t, nr, hotkey)

	consReg := consensus.NewRegistry()
	sub, err := consReg.Validate(subID, 1, validatorID, validatorID,
		uint256.NewInt(0), fixedpoint.PFUint256(),
		[]consensus.NodeScore{{NodeID: validatorID, Score: uint256.NewInt(100)}},
		[]ids.NodeID{validatorID}, 10)
	require.NoError(t, err)

	// Force a gate failure with a deliberately low attestation ratio.
	precheck := consensus.Precheck{
		AttestationRatio: uint256.NewInt(0),
		WeightSum:        uint256.NewInt(100),
	}

	deps := Deps{
		Subnets:     subnets,
		Nodes:       nr,
		Identity:    identity.NewRegistry(),
		Stake:       stake.NewAccountLedger(),
		NodePools:   stake.NewNodeDelegatePools(1),
		SubnetPools: stake.NewSubnetDelegatePools(1),
	}
	deps.Stake.Add(hotkey, subID, uint256.NewInt(1000))

	params := Params{
		MinAttestationPercentage:       pf(50),
		SuperMajorityAttestationRatio:  pf(67),
		MaxSubnetPenaltyCount:          5,
		MaxSubnetNodePenalties:         5,
		MinSubnetNodes:                 1,
		IdleClassificationEpochs:       2,
		IncludedClassificationEpochs:   2,
		SubnetNodeScorePenaltyThreshold: pf(10),
		BaseValidatorReward:            uint256.NewInt(1000),
		ReputationIncreaseFactor:       pf(5),
		ReputationDecreaseFactor:       pf(5),
	}

	out, err := Distribute(subID, 1, sub, precheck, nil, 1, params, Data{}, deps)
	require.NoError(t, err)
	require.True(t, out.Gated)
	require.True(t, deps.Stake.Balance(hotkey, subID).IsZero())
	require.Equal(t, uint32(1), subnets.Get(subID).PenaltyCount)
}

func TestDistributeRewardsValidatorOnAttestedSubmission(t *testing.T) {
	manager := node.NewManager()

	subnets := subnet.NewRegistry(16)
	sn, _, err := subnets.Register("a", "repo-a", "", "", common.HexToAddress("0xOwner"), 0,
		uint256.NewInt(10), uint256.NewInt(1000), 100, uint256.NewInt(500_000_000_000_000_000))
	require.NoError(t, err)
	subID := sn.ID

	nr := manager.Registry(subID)
	hotkey := common.HexToAddress("0xA")
	validatorID := newValidatorNode(t, nr, hotkey)

	consReg := consensus.NewRegistry()
	sub, err := consReg.Validate(subID, 1, validatorID, validatorID,
		uint256.NewInt(0), fixedpoint.PFUint256(),
		[]consensus.NodeScore{{NodeID: validatorID, Score: uint256.NewInt(100)}},
		[]ids.NodeID{validatorID}, 10)
	require.NoError(t, err)

	precheck := consensus.Precheck{
		AttestationRatio: fixedpoint.PFUint256(), // 1/1
		WeightSum:        uint256.NewInt(100),
	}

	deps := Deps{
		Subnets:     subnets,
		Nodes:       nr,
		Identity:    identity.NewRegistry(),
		Stake:       stake.NewAccountLedger(),
		NodePools:   stake.NewNodeDelegatePools(1),
		SubnetPools: stake.NewSubnetDelegatePools(1),
	}

	params := Params{
		MinAttestationPercentage:       pf(50),
		SuperMajorityAttestationRatio:  pf(67),
		MaxSubnetPenaltyCount:          5,
		MaxSubnetNodePenalties:         5,
		MinSubnetNodes:                 1,
		IdleClassificationEpochs:       2,
		IncludedClassificationEpochs:   2,
		SubnetNodeScorePenaltyThreshold: pf(10),
		BaseValidatorReward:            uint256.NewInt(1000),
		ReputationIncreaseFactor:       pf(5),
		ReputationDecreaseFactor:       pf(5),
	}

	data := Data{SubnetNodeRewards: uint256.NewInt(100)}
	out, err := Distribute(subID, 1, sub, precheck, nil, 1, params, data, deps)
	require.NoError(t, err)
	require.False(t, out.Gated)
	require.True(t, deps.Stake.Balance(hotkey, subID).Sign() > 0)
}
