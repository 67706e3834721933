// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package weight

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hypercore-net/hypercore/core/node"
	"github.com/hypercore-net/hypercore/core/stake"
	"github.com/hypercore-net/hypercore/core/subnet"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

func activateSubnet(t *testing.T, subnets *subnet.Registry, owner ids.Coldkey, name, repo string) ids.SubnetID {
	t.Helper()
	sn, _, err := subnets.Register(name, repo, "", "", owner, subnets.NextRegistrationEpoch(),
		uint256.NewInt(10), uint256.NewInt(1000), 100, uint256.NewInt(500_000_000_000_000_000))
	require.NoError(t, err)
	_, err = subnets.Activate(sn.ID, owner, 1, 0, 10, subnet.ActivationCheck{
		TotalActiveNodes:       1,
		MinSubnetNodes:         1,
		MinSubnetDelegateStake: uint256.NewInt(0),
	})
	require.NoError(t, err)
	return sn.ID
}

func pf(pct uint64) *uint256.Int {
	return new(uint256.Int).Div(
		new(uint256.Int).Mul(fixedpoint.PFUint256(), uint256.NewInt(pct)),
		uint256.NewInt(100),
	)
}

func TestComputeWeightsFavorsHigherStakeAndNodeCount(t *testing.T) {
	subnets := subnet.NewRegistry(16)
	owner := common.HexToAddress("0xOwner")
	sidA := activateSubnet(t, subnets, owner, "a", "repo-a")
	sidB := activateSubnet(t, subnets, owner, "b", "repo-b")

	manager := node.NewManager()
	nrA := manager.Registry(sidA)
	nrB := manager.Registry(sidB)

	nA, err := nrA.Register(common.HexToAddress("0xA1"), common.HexToHash("0x1"), common.HexToHash("0x2"), nil, nil, 0, 10)
	require.NoError(t, err)
	nrA.InsertIntoSlot(nA.ID)
	nB1, err := nrB.Register(common.HexToAddress("0xB1"), common.HexToHash("0x3"), common.HexToHash("0x4"), nil, nil, 0, 10)
	require.NoError(t, err)
	nrB.InsertIntoSlot(nB1.ID)
	nB2, err := nrB.Register(common.HexToAddress("0xB2"), common.HexToHash("0x5"), common.HexToHash("0x6"), nil, nil, 0, 10)
	require.NoError(t, err)
	nrB.InsertIntoSlot(nB2.ID)

	pools := stake.NewSubnetDelegatePools(1)
	_, err = pools.Add(owner, sidA, uint256.NewInt(100), false)
	require.NoError(t, err)
	_, err = pools.Add(owner, sidB, uint256.NewInt(300), false)
	require.NoError(t, err)

	ledger := NewNetFlowLedger()

	dist := Compute(
		1,
		uint256.NewInt(1_000_000),
		pf(10),
		Factors{DelegateStake: pf(40), NodeCount: pf(40), NetFlow: pf(20)},
		pf(100),
		fixedpoint.PFUint256(), // distribution power 1.0
		Deps{
			Subnets:          subnets,
			Nodes:            manager,
			SubnetPools:      pools,
			NetFlows:         ledger,
			OverwatchWeights: map[ids.SubnetID]*uint256.Int{},
		},
	)

	require.Len(t, dist.Weights, 2)
	require.True(t, dist.Weights[sidB].Cmp(dist.Weights[sidA]) > 0)

	sum := new(big.Int)
	for _, w := range dist.Weights {
		sum.Add(sum, w.ToBig())
	}
	require.True(t, sum.Cmp(fixedpoint.PFUint256().ToBig()) <= 0)

	require.Equal(t, uint256.NewInt(100_000), dist.FoundationEmissions)
	require.Equal(t, uint256.NewInt(900_000), dist.ValidatorEmissions)
}

func TestComputeWeightsSkipsIneligibleSubnets(t *testing.T) {
	subnets := subnet.NewRegistry(16)
	owner := common.HexToAddress("0xOwner")
	sidA := activateSubnet(t, subnets, owner, "a", "repo-a")

	// Registered but never activated: must not appear in the output.
	_, _, err := subnets.Register("c", "repo-c", "", "", owner, 2,
		uint256.NewInt(10), uint256.NewInt(1000), 100, uint256.NewInt(500_000_000_000_000_000))
	require.NoError(t, err)

	manager := node.NewManager()
	nrA := manager.Registry(sidA)
	nA, err := nrA.Register(common.HexToAddress("0xA1"), common.HexToHash("0x1"), common.HexToHash("0x2"), nil, nil, 0, 10)
	require.NoError(t, err)
	nrA.InsertIntoSlot(nA.ID)

	pools := stake.NewSubnetDelegatePools(1)
	_, err = pools.Add(owner, sidA, uint256.NewInt(100), false)
	require.NoError(t, err)

	dist := Compute(
		1,
		uint256.NewInt(1_000_000),
		uint256.NewInt(0),
		Factors{DelegateStake: fixedpoint.PFUint256(), NodeCount: uint256.NewInt(0), NetFlow: uint256.NewInt(0)},
		pf(100),
		fixedpoint.PFUint256(),
		Deps{
			Subnets:          subnets,
			Nodes:            manager,
			SubnetPools:      pools,
			NetFlows:         NewNetFlowLedger(),
			OverwatchWeights: nil,
		},
	)

	require.Len(t, dist.Weights, 1)
	_, ok := dist.Weights[sidA]
	require.True(t, ok)
}
