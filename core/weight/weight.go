// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package weight implements the per-epoch subnet-weight engine of
// spec.md §4.J: blending delegate stake, node count, net flow, and
// overwatch votes into the normalized FinalSubnetEmissionWeights stored
// for an epoch.
package weight

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/node"
	"github.com/hypercore-net/hypercore/core/stake"
	"github.com/hypercore-net/hypercore/core/subnet"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// Factors is SubnetWeightFactors from spec.md §4.J step 1, each leg in PF
// units summing to PF.
type Factors struct {
	DelegateStake *uint256.Int
	NodeCount     *uint256.Int
	NetFlow       *uint256.Int
}

// Distribution is FinalSubnetEmissionWeights(epoch) from spec.md §3:
// the per-subnet emission split plus the validator/foundation emission
// split for the epoch.
type Distribution struct {
	ValidatorEmissions  *uint256.Int
	FoundationEmissions *uint256.Int
	Weights             map[ids.SubnetID]*uint256.Int
}

// Deps are the collaborators the weight engine reads; it never mutates
// anything outside the supplied NetFlowLedger (whose take-and-clear is
// the one stateful side effect spec.md §4.J step 2 requires).
type Deps struct {
	Subnets     *subnet.Registry
	Nodes       *node.Manager
	SubnetPools *stake.SubnetDelegatePools
	NetFlows    *NetFlowLedger
	// OverwatchWeights is OverwatchSubnetWeights(E_ow-1, ·); a subnet
	// absent from the map defaults to a factor of 1.0 (spec.md §4.J
	// step 4's "defaulting to 1.0 when absent").
	OverwatchWeights map[ids.SubnetID]*uint256.Int
}

// Compute runs the full five-step pipeline of spec.md §4.J for epoch,
// returning the normalized per-subnet weights. epochEmissions is the
// total emission for this epoch, split between validators and the
// foundation by foundationPercentage (get_epoch_emissions_v2's role, spec.md
// §4.J step 5 — the split formula itself belongs to the caller's emission
// schedule, out of this engine's scope; foundationPercentage selects the
// foundation's cut here).
func Compute(
	currentEpoch ids.SubnetEpoch,
	epochEmissions *uint256.Int,
	foundationPercentage *uint256.Int,
	factors Factors,
	overwatchWeightFactor *uint256.Int,
	distributionPower *uint256.Int,
	deps Deps,
) Distribution {
	eligible := deps.Subnets.ActiveEligible(currentEpoch)

	inflowWeights := netFlowWeights(eligible, deps.NetFlows)

	delegateStakeTotal := totalDelegateStake(deps.SubnetPools)
	electableNodesTotal := totalElectableNodes(deps.Nodes)

	raw := make(map[ids.SubnetID]*uint256.Int, len(eligible))
	sum := new(big.Int)

	for _, sid := range eligible {
		stakeRatio := ratio(deps.SubnetPools.Pool(sid).TotalBalance, delegateStakeTotal)
		nodeRatio := ratioInt(deps.Nodes.Registry(sid).ElectionSlotCount(), electableNodesTotal)

		overwatchFactor := fixedpoint.PFUint256()
		if w, ok := deps.OverwatchWeights[sid]; ok {
			overwatchFactor = fixedpoint.Min256(fixedpoint.PercentMul(w, overwatchWeightFactor), fixedpoint.PFUint256())
		}

		combined := fixedpoint.SatAdd(
			fixedpoint.SatAdd(
				fixedpoint.PercentMul(stakeRatio, factors.DelegateStake),
				fixedpoint.PercentMul(nodeRatio, factors.NodeCount),
			),
			fixedpoint.PercentMul(inflowWeights[sid], factors.NetFlow),
		)
		combined = fixedpoint.Min256(combined, fixedpoint.PFUint256())
		combined = fixedpoint.PercentMul(combined, overwatchFactor)

		rawW := fixedpoint.Pow(combined, distributionPower)
		raw[sid] = rawW
		sum.Add(sum, rawW.ToBig())
	}

	weights := make(map[ids.SubnetID]*uint256.Int, len(raw))
	if sum.Sign() > 0 {
		pf := fixedpoint.PFUint256().ToBig()
		for sid, rawW := range raw {
			num := new(big.Int).Mul(rawW.ToBig(), pf)
			weights[sid] = fixedpoint.FromBigSaturating(new(big.Int).Quo(num, sum))
		}
	} else {
		for sid := range raw {
			weights[sid] = uint256.NewInt(0)
		}
	}

	validatorEmissions, foundationEmissions := splitEmissions(epochEmissions, foundationPercentage)

	return Distribution{
		ValidatorEmissions:  validatorEmissions,
		FoundationEmissions: foundationEmissions,
		Weights:             weights,
	}
}

// netFlowWeights is get_net_flow_weights: take-and-clear every eligible
// subnet's net flow, shift to non-negative, and normalize to PF.
func netFlowWeights(eligible []ids.SubnetID, ledger *NetFlowLedger) map[ids.SubnetID]*uint256.Int {
	taken := ledger.TakeAll()

	eligibleSet := make(map[ids.SubnetID]bool, len(eligible))
	for _, sid := range eligible {
		eligibleSet[sid] = true
	}

	var min *big.Int
	for sid, v := range taken {
		if !eligibleSet[sid] {
			continue
		}
		if min == nil || v.Cmp(min) < 0 {
			min = v
		}
	}
	if min == nil {
		min = new(big.Int)
	}

	shifted := make(map[ids.SubnetID]*big.Int, len(eligible))
	sum := new(big.Int)
	sortedSids := ids.Sorted(eligible)

	for _, sid := range sortedSids {
		v, ok := taken[sid]
		if !ok {
			v = new(big.Int)
		}
		s := new(big.Int).Sub(v, min)
		shifted[sid] = s
		sum.Add(sum, s)
	}

	out := make(map[ids.SubnetID]*uint256.Int, len(eligible))
	for _, sid := range sortedSids {
		if sum.Sign() <= 0 {
			out[sid] = uint256.NewInt(0)
			continue
		}
		n := fixedpoint.FromBigSaturating(shifted[sid])
		d := fixedpoint.FromBigSaturating(sum)
		out[sid] = fixedpoint.PercentDiv(n, d)
	}
	return out
}

func totalDelegateStake(pools *stake.SubnetDelegatePools) *uint256.Int {
	total := uint256.NewInt(0)
	for _, sid := range pools.Keys() {
		total = fixedpoint.SatAdd(total, pools.Pool(sid).TotalBalance)
	}
	return total
}

func totalElectableNodes(nodes *node.Manager) int {
	total := 0
	for _, sid := range nodes.Subnets() {
		total += nodes.Registry(sid).ElectionSlotCount()
	}
	return total
}

func ratio(num, den *uint256.Int) *uint256.Int {
	if den.IsZero() {
		return uint256.NewInt(0)
	}
	return fixedpoint.Min256(fixedpoint.PercentDiv(num, den), fixedpoint.PFUint256())
}

func ratioInt(num, den int) *uint256.Int {
	if den <= 0 {
		return uint256.NewInt(0)
	}
	return ratio(uint256.NewInt(uint64(num)), uint256.NewInt(uint64(den)))
}

func splitEmissions(epochEmissions, foundationPercentage *uint256.Int) (*uint256.Int, *uint256.Int) {
	foundation := fixedpoint.PercentMul(epochEmissions, foundationPercentage)
	validators := fixedpoint.SatSub(epochEmissions, foundation)
	return validators, foundation
}
