// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package overwatch

import (
	"math/big"
	"sort"

	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// Result is the data Aggregate derives for one overwatch epoch: per
// previous-epoch OverwatchSubnetWeights and OverwatchNodeWeights
// (spec.md §3, "Derived for the previous overwatch epoch").
type Result struct {
	SubnetWeights map[ids.SubnetID]*uint256.Int
	NodeWeights   map[ids.OverwatchNodeID]*uint256.Int
}

type subnetAccum struct {
	nodeWeights map[ids.OverwatchNodeID]*uint256.Int
}

// Aggregate runs the epoch-boundary computation of spec.md §4.K over
// epoch's reveals, grounded on calculate_overwatch_rewards: normalize
// each revealing node's stake weight, derive every subnet's aggregate
// weight, score each node by closeness to that aggregate, normalize
// scores, and pay emissions into overwatch stake. Nodes in
// knownNodeIDs that revealed nothing accrue a penalty via
// registry.BumpPenalty.
func Aggregate(
	ballots *Ballots,
	registry *Registry,
	epoch ids.Epoch,
	stakeWeightFactor *uint256.Int,
	emissions *uint256.Int,
	maxPenaltyCount uint32,
	knownNodeIDs []ids.OverwatchNodeID,
) Result {
	reveals := ballots.revealsFor(epoch)

	// Step 1: group reveals by subnet, computing each revealing node's
	// stake weight exactly once.
	nodeStakeWeight := make(map[ids.OverwatchNodeID]*big.Int)
	totalStakeWeight := new(big.Int)
	subnets := make(map[ids.SubnetID]*subnetAccum)
	revealed := make(map[ids.OverwatchNodeID]bool)

	for _, r := range reveals {
		revealed[r.NodeID] = true
		if _, ok := nodeStakeWeight[r.NodeID]; !ok {
			n := registry.Get(r.NodeID)
			if n == nil {
				continue
			}
			stakeBalance := registry.Stake(r.NodeID)
			adj := fixedpoint.Pow(stakeBalance, stakeWeightFactor).ToBig()
			nodeStakeWeight[r.NodeID] = adj
			totalStakeWeight.Add(totalStakeWeight, adj)
		}

		acc, ok := subnets[r.SubnetID]
		if !ok {
			acc = &subnetAccum{nodeWeights: make(map[ids.OverwatchNodeID]*uint256.Int)}
			subnets[r.SubnetID] = acc
		}
		acc.nodeWeights[r.NodeID] = r.Weight
	}

	// Normalize stake weights over the revealing set.
	normalizedStakeWeight := make(map[ids.OverwatchNodeID]*uint256.Int, len(nodeStakeWeight))
	if totalStakeWeight.Sign() > 0 {
		pf := new(big.Int).SetUint64(fixedpoint.PF)
		for nodeID, w := range nodeStakeWeight {
			num := new(big.Int).Mul(w, pf)
			normalizedStakeWeight[nodeID] = fixedpoint.FromBigSaturating(new(big.Int).Quo(num, totalStakeWeight))
		}
	}

	// Step 2: per subnet, total_adjusted and per-node closeness scoring.
	subnetIDs := make([]ids.SubnetID, 0, len(subnets))
	for sid := range subnets {
		subnetIDs = append(subnetIDs, sid)
	}
	subnetIDs = ids.Sorted(subnetIDs)

	subnetWeights := make(map[ids.SubnetID]*uint256.Int, len(subnetIDs))
	nodeFinalScore := make(map[ids.OverwatchNodeID]*uint256.Int)

	for _, sid := range subnetIDs {
		acc := subnets[sid]

		nodeIDs := make([]ids.OverwatchNodeID, 0, len(acc.nodeWeights))
		for nodeID := range acc.nodeWeights {
			nodeIDs = append(nodeIDs, nodeID)
		}
		sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

		totalAdjusted := uint256.NewInt(0)
		for _, nodeID := range nodeIDs {
			sw, ok := normalizedStakeWeight[nodeID]
			if !ok {
				continue
			}
			totalAdjusted = fixedpoint.SatAdd(totalAdjusted, fixedpoint.PercentMul(acc.nodeWeights[nodeID], sw))
		}
		totalAdjusted = fixedpoint.ClampToPF(totalAdjusted)
		subnetWeights[sid] = totalAdjusted

		for _, nodeID := range nodeIDs {
			nodeWeight := acc.nodeWeights[nodeID]
			var deviation *uint256.Int
			if nodeWeight.Cmp(totalAdjusted) >= 0 {
				deviation = fixedpoint.SatSub(nodeWeight, totalAdjusted)
			} else {
				deviation = fixedpoint.SatSub(totalAdjusted, nodeWeight)
			}
			closeness := fixedpoint.SatSub(fixedpoint.PFUint256(), deviation)
			finalScore := fixedpoint.PercentMul(closeness, totalAdjusted)

			cur, ok := nodeFinalScore[nodeID]
			if !ok {
				cur = uint256.NewInt(0)
			}
			nodeFinalScore[nodeID] = fixedpoint.SatAdd(cur, finalScore)
		}
	}

	// Step 4+5: normalize node scores and pay emissions into overwatch stake.
	totalFinalScore := uint256.NewInt(0)
	for _, s := range nodeFinalScore {
		totalFinalScore = fixedpoint.SatAdd(totalFinalScore, s)
	}

	nodeWeights := make(map[ids.OverwatchNodeID]*uint256.Int, len(nodeFinalScore))
	if !totalFinalScore.IsZero() {
		scoredIDs := make([]ids.OverwatchNodeID, 0, len(nodeFinalScore))
		for nodeID := range nodeFinalScore {
			scoredIDs = append(scoredIDs, nodeID)
		}
		sort.Slice(scoredIDs, func(i, j int) bool { return scoredIDs[i] < scoredIDs[j] })

		for _, nodeID := range scoredIDs {
			score := nodeFinalScore[nodeID]
			if score.IsZero() {
				continue
			}
			normalized := fixedpoint.PercentDiv(score, totalFinalScore)
			nodeWeights[nodeID] = normalized

			amount := fixedpoint.PercentMul(normalized, emissions)
			if amount.IsZero() {
				continue
			}
			registry.CreditStake(nodeID, amount)
		}
	}

	// Malicious or absent overwatch nodes accrue penalties.
	for _, nodeID := range knownNodeIDs {
		if !revealed[nodeID] {
			_, _ = registry.BumpPenalty(nodeID, maxPenaltyCount)
		}
	}

	return Result{SubnetWeights: subnetWeights, NodeWeights: nodeWeights}
}
