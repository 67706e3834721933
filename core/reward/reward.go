// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reward implements the per-(subnet, subnet-epoch) distribution
// pipeline of spec.md §4.I: the attestation-ratio gate, queue overrides,
// subnet penalty relief, the owner cut, the per-node reward/penalty loop,
// and the subnet-delegate-pool donation.
package reward

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/consensus"
	"github.com/hypercore-net/hypercore/core/identity"
	"github.com/hypercore-net/hypercore/core/node"
	"github.com/hypercore-net/hypercore/core/stake"
	"github.com/hypercore-net/hypercore/core/subnet"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// Data is rewards_data from spec.md §4.I: the already-computed emission
// split for this subnet this epoch.
type Data struct {
	SubnetOwnerReward    *uint256.Int
	SubnetNodeRewards    *uint256.Int
	DelegateStakeRewards *uint256.Int
}

// Params collects the constants spec.md §4.I reads from internal/config.
type Params struct {
	MinAttestationPercentage        *uint256.Int
	SuperMajorityAttestationRatio   *uint256.Int
	MaxSubnetPenaltyCount           uint32
	MaxSubnetNodePenalties          uint32
	MinSubnetNodes                  uint32
	IdleClassificationEpochs        uint64
	IncludedClassificationEpochs    uint32
	SubnetNodeScorePenaltyThreshold *uint256.Int
	BaseValidatorReward             *uint256.Int
	ReputationIncreaseFactor        *uint256.Int
	ReputationDecreaseFactor        *uint256.Int
}

// Deps are the mutable collaborators a distribution pass reads and
// writes. OwnerReward is accumulated into the result rather than an
// internal ledger: spec.md §4.I credits the subnet owner's *coldkey*
// directly, but core/stake's AccountLedger is keyed by hotkey (spec.md
// §3's AccountSubnetStake(hotkey, subnet_id)) — crediting a coldkey
// balance is an external general-ledger concern (spec.md §1's
// out-of-scope "EVM precompile glue"), so Distribute reports the amount
// for the caller's external ledger to apply instead of inventing a
// coldkey-keyed stake map that spec.md §3 never names.
type Deps struct {
	Subnets     *subnet.Registry
	Nodes       *node.SubnetRegistry
	Identity    *identity.Registry
	Stake       *stake.AccountLedger
	NodePools   *stake.NodeDelegatePools
	SubnetPools *stake.SubnetDelegatePools
}

// Outcome reports the externally-visible effects of one Distribute call.
type Outcome struct {
	Gated               bool
	OwnerReward         *uint256.Int
	PromotedToIncluded  []ids.NodeID
	PromotedToValidator []ids.NodeID
	RemovedNodes        []ids.NodeID
}

// Distribute runs the full six-step pipeline against sub, mutating the
// supplied node/subnet/identity/stake collaborators in place.
func Distribute(
	subnetID ids.SubnetID,
	currentSubnetEpoch ids.SubnetEpoch,
	sub *consensus.Submission,
	precheck consensus.Precheck,
	subnetOwnerHotkey *ids.Hotkey,
	activeNodeCount uint32,
	params Params,
	data Data,
	deps Deps,
) (Outcome, error) {
	var out Outcome

	// Step 1: gate.
	if precheck.AttestationRatio.Cmp(params.MinAttestationPercentage) < 0 {
		validator := deps.Nodes.Get(sub.ValidatorID)
		if validator != nil {
			deps.Stake.Slash(validator.Hotkey, subnetID, deps.Stake.Balance(validator.Hotkey, subnetID))
			deps.Nodes.IncrementPenalty(sub.ValidatorID)
			if owner, ok := deps.Identity.Owner(validator.Hotkey); ok {
				deps.Identity.RecordFailure(owner, params.ReputationDecreaseFactor)
			}
		}
		if _, err := deps.Subnets.BumpPenalty(subnetID, params.MaxSubnetPenaltyCount); err != nil {
			return out, err
		}
		out.Gated = true
		return out, nil
	}

	// Step 2: queue overrides.
	if precheck.AttestationRatio.Cmp(params.SuperMajorityAttestationRatio) >= 0 {
		if sub.PrioritizeQueueNodeID != nil {
			_ = deps.Nodes.PrioritizeInQueue(*sub.PrioritizeQueueNodeID)
		}
		if sub.RemoveQueueNodeID != nil {
			if err := deps.Nodes.Remove(*sub.RemoveQueueNodeID); err == nil {
				out.RemovedNodes = append(out.RemovedNodes, *sub.RemoveQueueNodeID)
			}
		}
	}

	// Step 3: subnet penalty relief.
	if err := deps.Subnets.RelievePenalty(subnetID, activeNodeCount, params.MinSubnetNodes); err != nil {
		return out, err
	}

	// Step 4: owner cut.
	if subnetOwnerHotkey != nil && data.SubnetOwnerReward != nil && !data.SubnetOwnerReward.IsZero() {
		out.OwnerReward = data.SubnetOwnerReward.Clone()
	}

	// Step 5: per-node loop.
	for _, nodeID := range sub.SubnetNodes {
		n := deps.Nodes.Get(nodeID)
		if n == nil {
			continue
		}
		if removed, _ := deps.Nodes.RemoveIfOverPenalized(nodeID, params.MaxSubnetNodePenalties); removed {
			out.RemovedNodes = append(out.RemovedNodes, nodeID)
			continue
		}

		if n.Classification.Class == node.ClassIdle {
			if deps.Nodes.GraduateIdleNode(nodeID, currentSubnetEpoch, params.IdleClassificationEpochs) {
				out.PromotedToIncluded = append(out.PromotedToIncluded, nodeID)
			}
			continue
		}

		score, submitted := sub.ScoreOf(nodeID)
		if !submitted {
			deps.Nodes.IncrementPenalty(nodeID)
			if n.Classification.Class == node.ClassIncluded {
				deps.Nodes.ResetIncludedStreak(nodeID)
			}
			continue
		}
		if n.Penalties > 0 {
			deps.Nodes.DecrementPenalty(nodeID)
		}

		scoreRatio := fixedpoint.PercentDiv(score, precheck.WeightSum)
		if scoreRatio.Cmp(params.SubnetNodeScorePenaltyThreshold) < 0 {
			deps.Nodes.IncrementPenalty(nodeID)
		}

		if n.Classification.Class == node.ClassIncluded {
			deps.Nodes.RecordIncludedEpoch(nodeID)
			if deps.Nodes.PromoteToValidator(nodeID, params.IncludedClassificationEpochs, currentSubnetEpoch) {
				out.PromotedToValidator = append(out.PromotedToValidator, nodeID)
			}
			continue
		}

		// Class is Validator (or higher).
		rewardFactor := fixedpoint.PFUint256()
		superMajority := precheck.AttestationRatio.Cmp(params.SuperMajorityAttestationRatio) >= 0
		if _, attested := sub.Attests[nodeID]; attested {
			rewardFactor = sub.RewardFactorOf(nodeID)
		} else if superMajority {
			deps.Nodes.IncrementPenalty(nodeID)
		}

		accountReward := fixedpoint.PercentMul(scoreRatio, data.SubnetNodeRewards)
		if nodeID == sub.ValidatorID {
			bonus := GetValidatorReward(params.BaseValidatorReward, precheck.AttestationRatio, sub.ValidatorRewardFactor)
			accountReward = fixedpoint.SatAdd(accountReward, bonus)
			if owner, ok := deps.Identity.Owner(n.Hotkey); ok {
				deps.Identity.RecordSuccess(owner, params.ReputationIncreaseFactor, precheck.AttestationRatio)
			}
		}
		accountReward = fixedpoint.PercentMul(accountReward, rewardFactor)
		if accountReward.IsZero() {
			continue
		}

		nodeKey := stake.SubnetNodeKey{SubnetID: subnetID, NodeID: nodeID}
		pool := deps.NodePools.Pool(nodeKey)
		if n.DelegateRewardRate != nil && !n.DelegateRewardRate.IsZero() && !pool.TotalShares.IsZero() {
			nodeDelegateReward := fixedpoint.PercentMul(accountReward, n.DelegateRewardRate)
			deps.NodePools.Donate(nodeKey, nodeDelegateReward)
			remainder := fixedpoint.SatSub(accountReward, nodeDelegateReward)
			deps.Stake.Add(n.Hotkey, subnetID, remainder)
		} else {
			deps.Stake.Add(n.Hotkey, subnetID, accountReward)
		}
	}

	// Step 6: subnet-delegate pool.
	if data.DelegateStakeRewards != nil && !data.DelegateStakeRewards.IsZero() {
		deps.SubnetPools.Donate(subnetID, data.DelegateStakeRewards)
	}

	return out, nil
}

// GetValidatorReward is the exact formula spec.md §4.I.a names:
// percent_mul(BaseValidatorReward, min(PF, percent_mul(attestation_ratio, factor))).
func GetValidatorReward(baseValidatorReward, attestationRatio, factor *uint256.Int) *uint256.Int {
	return fixedpoint.PercentMul(baseValidatorReward, fixedpoint.ClampToPF(fixedpoint.PercentMul(attestationRatio, factor)))
}
