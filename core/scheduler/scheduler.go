// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scheduler implements the per-block epoch scheduler of spec.md
// §4.M and §5: block 0 of an epoch runs epoch_preliminaries, block 1
// stores that epoch's subnet emission weights, and block slot(sid) runs
// emission_step for subnet sid. It wires components A through L behind a
// single Tick call, the way the original pallet's on_initialize hook
// dispatches into slot.rs.
package scheduler

import (
	"bytes"
	"context"
	"math/big"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.uber.org/multierr"

	"github.com/hypercore-net/hypercore/core/consensus"
	"github.com/hypercore-net/hypercore/core/election"
	"github.com/hypercore-net/hypercore/core/identity"
	"github.com/hypercore-net/hypercore/core/node"
	"github.com/hypercore-net/hypercore/core/overwatch"
	"github.com/hypercore-net/hypercore/core/reward"
	"github.com/hypercore-net/hypercore/core/stake"
	"github.com/hypercore-net/hypercore/core/subnet"
	"github.com/hypercore-net/hypercore/core/weight"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/config"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
	"github.com/hypercore-net/hypercore/internal/log"
	"github.com/hypercore-net/hypercore/internal/telemetry"
)

var tracer = otel.Tracer("github.com/hypercore-net/hypercore/core/scheduler")

// Deps are every collaborator Tick reads and mutates, owned by the
// caller's core/state aggregate.
type Deps struct {
	Subnets     *subnet.Registry
	Nodes       *node.Manager
	Identity    *identity.Registry
	Stake       *stake.AccountLedger
	NodePools   *stake.NodeDelegatePools
	SubnetPools *stake.SubnetDelegatePools
	Consensus   *consensus.Registry
	Overwatch   *overwatch.Registry
	Ballots     *overwatch.Ballots
	NetFlows    *weight.NetFlowLedger
	Config      *config.Store

	// EpochEmissionSchedule returns the total emission available for
	// epoch's handle_subnet_emission_weights split. The emission curve
	// itself is never specified in the retrieved original source (only
	// the validator/foundation split at a given epoch's total is), so the
	// schedule is supplied by the caller rather than invented here.
	EpochEmissionSchedule func(epoch ids.Epoch) *uint256.Int
}

// Scheduler owns the storage Tick itself derives: FinalSubnetEmissionWeights
// per epoch, the overwatch aggregate cached for the weight engine, the
// election store, and each subnet's burn-rate EMA — all data spec.md §3
// names that doesn't belong to any single component A-L.
type Scheduler struct {
	log     log.Logger
	metrics *telemetry.SchedulerMetrics
	budget  uint64

	Election *election.Store

	weights          map[ids.Epoch]weight.Distribution
	overwatchWeights map[ids.SubnetID]*uint256.Int
	overwatchNodeW   map[ids.OverwatchNodeID]*uint256.Int
	burnRate         map[ids.SubnetID]*uint256.Int
	churnUtil        map[ids.SubnetID]*telemetry.RollingWindow
}

// New constructs a Scheduler with the given per-block weight budget (use
// DefaultBlockWeightBudget when the caller has no opinion).
func New(logger log.Logger, metrics *telemetry.SchedulerMetrics, budget uint64) *Scheduler {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Scheduler{
		log:              logger,
		metrics:          metrics,
		budget:           budget,
		Election:         election.NewStore(),
		weights:          make(map[ids.Epoch]weight.Distribution),
		overwatchWeights: make(map[ids.SubnetID]*uint256.Int),
		overwatchNodeW:   make(map[ids.OverwatchNodeID]*uint256.Int),
		burnRate:         make(map[ids.SubnetID]*uint256.Int),
		churnUtil:        make(map[ids.SubnetID]*telemetry.RollingWindow),
	}
}

// Weights returns the stored FinalSubnetEmissionWeights for epoch, if any.
func (s *Scheduler) Weights(epoch ids.Epoch) (weight.Distribution, bool) {
	d, ok := s.weights[epoch]
	return d, ok
}

// BurnRate returns subnetID's current NodeBurnRate EMA, defaulting to 0.
func (s *Scheduler) BurnRate(subnetID ids.SubnetID) *uint256.Int {
	if r, ok := s.burnRate[subnetID]; ok {
		return r.Clone()
	}
	return uint256.NewInt(0)
}

// Report summarizes one Tick's externally-visible effects, for the
// caller's general ledger and logging.
type Report struct {
	Epoch               ids.Epoch
	Slot                uint64
	RemovedSubnets       []ids.SubnetID
	EmissionStepSubnet   *ids.SubnetID
	Gated                bool
	OwnerRewardColdkey   *ids.Coldkey
	OwnerReward          *uint256.Int
	PromotedToIncluded   []ids.NodeID
	PromotedToValidator  []ids.NodeID
	RemovedNodes         []ids.NodeID
	ActivatedNodes       []ids.NodeID
	ElectedValidator     *ids.NodeID
	OverwatchBoundaryRan bool
}

// Tick runs the scheduling work for currentBlock: epoch_preliminaries at
// slot 0, handle_subnet_emission_weights at slot 1, and emission_step at
// slot(sid) for whichever subnet owns that slot. Before that slot work,
// whenever currentBlock lands on an overwatch-epoch boundary (whatever its
// slot), it runs the overwatch aggregation. seed is the
// caller-supplied deterministic randomness for this block's validator
// election (spec.md §4.L).
func (s *Scheduler) Tick(ctx context.Context, currentBlock ids.Block, seed common.Hash, deps Deps) (Report, error) {
	ctx, span := tracer.Start(ctx, "scheduler.Tick")
	defer span.End()

	g := deps.Config.Global
	l := g.EpochLength
	epoch := ids.Epoch(uint64(currentBlock) / l)
	slotIdx := uint64(currentBlock) % l
	subnetEpoch := ids.SubnetEpoch(epoch)

	report := Report{Epoch: epoch, Slot: slotIdx}
	meter := NewWeightMeter(s.budget)

	var errs error

	if err := s.runOverwatchBoundary(ctx, currentBlock, deps, &report); err != nil {
		errs = multierr.Append(errs, err)
	}

	switch {
	case slotIdx == 0:
		errs = multierr.Append(errs, s.epochPreliminaries(ctx, subnetEpoch, deps, meter, &report))
	case slotIdx == 1:
		errs = multierr.Append(errs, s.handleSubnetEmissionWeights(ctx, epoch, subnetEpoch, deps, &report))
	default:
		if sn, ok := deps.Subnets.BySlot(slotIdx); ok {
			errs = multierr.Append(errs, s.emissionStep(ctx, sn.ID, epoch, subnetEpoch, currentBlock, seed, deps, meter, &report))
		}
	}

	if s.metrics != nil {
		s.metrics.WeightMeterBudget.Set(float64(meter.Remaining()))
	}

	return report, errs
}

// epochPreliminaries is spec.md §4.M's block-0 sweep: component F's
// min-node/min-delegate-stake removal and excess-subnet pruning.
func (s *Scheduler) epochPreliminaries(ctx context.Context, subnetEpoch ids.SubnetEpoch, deps Deps, meter *WeightMeter, report *Report) error {
	_, span := tracer.Start(ctx, "scheduler.epochPreliminaries")
	defer span.End()

	activeCounts := make(map[ids.SubnetID]uint32)
	for _, sid := range deps.Nodes.Subnets() {
		activeCounts[sid] = deps.Nodes.TotalActive(sid)
		meter.Consume(costSubnetPreliminarySweep)
	}

	// Refresh each subnet's TotalDelegateStake from its delegate pool so the
	// min-delegate-stake and lowest-stake checks below see current balances.
	for _, sid := range deps.Subnets.IDs() {
		deps.Subnets.Get(sid).TotalDelegateStake = deps.SubnetPools.Pool(sid).TotalBalance.Clone()
	}

	removed := deps.Subnets.EpochPreliminaries(
		deps.Config.Global.MinSubnetNodes,
		activeCounts,
		deps.Config.Global.MinSubnetDelegateStake,
		deps.Config.Global.MaxSubnets,
	)
	report.RemovedSubnets = removed

	if s.metrics != nil {
		s.metrics.EpochsProcessed.Inc()
		s.metrics.SubnetsRemoved.Add(float64(len(removed)))
	}
	for _, sid := range removed {
		s.log.Infow("subnet removed in epoch_preliminaries", "subnet_id", sid)
	}
	return nil
}

// handleSubnetEmissionWeights is spec.md §4.M's block-1 step: compute and
// store FinalSubnetEmissionWeights(epoch) via component J, folding in
// whatever overwatch aggregate is cached from the last boundary.
func (s *Scheduler) handleSubnetEmissionWeights(ctx context.Context, epoch ids.Epoch, subnetEpoch ids.SubnetEpoch, deps Deps, report *Report) error {
	_, span := tracer.Start(ctx, "scheduler.handleSubnetEmissionWeights")
	defer span.End()

	g := deps.Config.Global
	factors := weight.Factors{
		DelegateStake: g.SubnetWeightFactors.DelegateStake,
		NodeCount:     g.SubnetWeightFactors.NodeCount,
		NetFlow:       g.SubnetWeightFactors.NetFlow,
	}

	var epochEmissions *uint256.Int
	if deps.EpochEmissionSchedule != nil {
		epochEmissions = deps.EpochEmissionSchedule(epoch)
	} else {
		epochEmissions = uint256.NewInt(0)
	}

	dist := weight.Compute(
		subnetEpoch,
		epochEmissions,
		g.FoundationPercentage,
		factors,
		g.OverwatchWeightFactor,
		g.SubnetDistributionPower,
		weight.Deps{
			Subnets:          deps.Subnets,
			Nodes:            deps.Nodes,
			SubnetPools:      deps.SubnetPools,
			NetFlows:         deps.NetFlows,
			OverwatchWeights: s.overwatchWeights,
		},
	)
	s.weights[epoch] = dist
	s.log.Debugw("stored subnet emission weights", "epoch", epoch, "subnets", len(dist.Weights))
	return nil
}

// runOverwatchBoundary runs component K's Aggregate when currentBlock
// lands on an overwatch-epoch boundary, caching the result for the next
// handleSubnetEmissionWeights call (spec.md §4.J step 4's "defaulting to
// 1.0 when absent" reads this cache).
func (s *Scheduler) runOverwatchBoundary(ctx context.Context, currentBlock ids.Block, deps Deps, report *Report) error {
	g := deps.Config.Global
	span := g.EpochLength * g.OverwatchEpochLengthMultiplier
	if span == 0 || uint64(currentBlock) == 0 || uint64(currentBlock)%span != 0 {
		return nil
	}

	_, sp := tracer.Start(ctx, "scheduler.overwatchBoundary")
	defer sp.End()

	owEpoch := overwatch.CurrentEpoch(currentBlock, g.EpochLength, g.OverwatchEpochLengthMultiplier)
	if owEpoch == 0 {
		return nil
	}
	prevEpoch := owEpoch - 1

	result := overwatch.Aggregate(
		deps.Ballots,
		deps.Overwatch,
		prevEpoch,
		g.OverwatchStakeWeightFactor,
		g.OverwatchEpochEmissions,
		0,
		deps.Overwatch.IDs(),
	)

	s.overwatchWeights = result.SubnetWeights
	s.overwatchNodeW = result.NodeWeights
	report.OverwatchBoundaryRan = true
	s.log.Infow("overwatch boundary aggregated", "overwatch_epoch", prevEpoch, "subnets", len(result.SubnetWeights))
	return nil
}

// emissionStep is spec.md §4.M's block-slot(sid) step: precheck (H) →
// distribute (I) → elect next validator (L) → activate queue (G) →
// burn-rate EMA update.
func (s *Scheduler) emissionStep(
	ctx context.Context,
	sid ids.SubnetID,
	epoch ids.Epoch,
	subnetEpoch ids.SubnetEpoch,
	currentBlock ids.Block,
	seed common.Hash,
	deps Deps,
	meter *WeightMeter,
	report *Report,
) error {
	_, span := tracer.Start(ctx, "scheduler.emissionStep")
	defer span.End()
	report.EmissionStepSubnet = &sid

	dist, ok := s.weights[epoch]
	if !ok {
		return nil // subnet has no weights yet; not active (spec.md §4.M)
	}
	subnetWeight, ok := dist.Weights[sid]
	if !ok {
		return nil
	}

	rewardEpoch := subnetEpoch - 1
	sub := deps.Consensus.Get(sid, rewardEpoch)
	sr := deps.Nodes.Registry(sid)
	cfg := deps.Config.Subnet(sid)
	g := deps.Config.Global

	var errs error

	if sub != nil {
		meter.Consume(costConsensusPrecheck)
		precheck := consensus.Run(sub, 0)

		ownerColdkey, hasOwner := deps.Subnets.Owner(sid)
		var ownerHotkey *ids.Hotkey
		if hasOwner {
			if hk, ok := anyHotkeyOf(deps.Identity, ownerColdkey); ok {
				ownerHotkey = &hk
			}
		}

		ownerReward, nodeReward, delegateReward := splitSubnetEmissions(dist.ValidatorEmissions, subnetWeight, g.SubnetOwnerPercentage, cfg.SubnetDelegateStakeRewardsPercentage)

		meter.Consume(costRewardDistribute)
		outcome, err := reward.Distribute(
			sid,
			subnetEpoch,
			sub,
			precheck,
			ownerHotkey,
			deps.Nodes.TotalActive(sid),
			reward.Params{
				MinAttestationPercentage:        g.MinAttestationPercentage,
				SuperMajorityAttestationRatio:   g.SuperMajorityAttestationRatio,
				MaxSubnetPenaltyCount:           g.MaxSubnetPenaltyCount,
				MaxSubnetNodePenalties:          cfg.MaxSubnetNodePenalties,
				MinSubnetNodes:                  g.MinSubnetNodes,
				IdleClassificationEpochs:        cfg.IdleClassificationEpochs,
				IncludedClassificationEpochs:    uint32(cfg.IncludedClassificationEpochs),
				SubnetNodeScorePenaltyThreshold: cfg.SubnetNodeScorePenaltyThreshold,
				BaseValidatorReward:             g.BaseValidatorReward,
				ReputationIncreaseFactor:        g.ReputationIncreaseFactor,
				ReputationDecreaseFactor:        g.ReputationDecreaseFactor,
			},
			reward.Data{
				SubnetOwnerReward:    ownerReward,
				SubnetNodeRewards:    nodeReward,
				DelegateStakeRewards: delegateReward,
			},
			reward.Deps{
				Subnets:     deps.Subnets,
				Nodes:       sr,
				Identity:    deps.Identity,
				Stake:       deps.Stake,
				NodePools:   deps.NodePools,
				SubnetPools: deps.SubnetPools,
			},
		)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			report.Gated = outcome.Gated
			report.OwnerReward = outcome.OwnerReward
			if hasOwner && outcome.OwnerReward != nil {
				report.OwnerRewardColdkey = &ownerColdkey
			}
			report.PromotedToIncluded = outcome.PromotedToIncluded
			report.PromotedToValidator = outcome.PromotedToValidator
			report.RemovedNodes = outcome.RemovedNodes
			if s.metrics != nil {
				s.metrics.EmissionStepsRun.Inc()
			}
		}
	}

	// Elect the validator for this (now-starting) subnet epoch.
	meter.Consume(costElection)
	if elected, err := s.Election.Elect(sr, sid, subnetEpoch, seed); err == nil {
		report.ElectedValidator = &elected
	} else {
		errs = multierr.Append(errs, err)
	}

	// Activate queued nodes, gated on the churn-limit-multiplier cadence.
	if cfg.ChurnLimitMultiplier == 0 || uint64(subnetEpoch)%cfg.ChurnLimitMultiplier == 0 {
		estimate := costQueueBase + costQueuePerNode*uint64(cfg.ChurnLimit)
		if meter.CanConsume(estimate) {
			meter.Consume(estimate)
			activated := sr.HandleRegistrationQueue(subnetEpoch, cfg.SubnetNodeQueueEpochs, cfg.ChurnLimit, g.MaxSubnetNodes)
			report.ActivatedNodes = activated
			if s.metrics != nil {
				s.metrics.NodesActivated.Add(float64(len(activated)))
			}
			s.recordChurnUtilization(sid, cfg.ChurnLimit, len(activated))
		}
	}

	// Burn-rate EMA update.
	if meter.CanConsume(costBurnRateUpdate) {
		meter.Consume(costBurnRateUpdate)
		s.updateBurnRate(sid, cfg)
	}

	return errs
}

// updateBurnRate runs the standard EMA update
// new_rate = percent_mul(alpha, observed) + percent_mul(PF-alpha, old_rate),
// spec.md §4.M's "burn-rate EMA update" — update_burn_rate_for_epoch's
// body is never defined in the retrieved original source, only its
// NodeBurnRateAlpha governance parameter (utilities/owner.rs), so the
// observed signal is churn utilization (activated / churn limit),
// averaged over the subnet's last 16 queue activations recorded by
// recordChurnUtilization — churn utilization being the one
// per-subnet-epoch quantity already on hand at the exact point the
// original calls update_burn_rate_for_epoch. A subnet with no recorded
// activation keeps its current rate.
func (s *Scheduler) updateBurnRate(sid ids.SubnetID, cfg config.SubnetParams) {
	w, ok := s.churnUtil[sid]
	if !ok {
		return
	}
	observed := fixedpoint.FromBigSaturating(bigFromFloat(w.Mean()))
	old, ok := s.burnRate[sid]
	if !ok {
		old = uint256.NewInt(0)
	}
	alpha := cfg.NodeBurnRateAlpha
	newRate := fixedpoint.SatAdd(
		fixedpoint.PercentMul(alpha, observed),
		fixedpoint.PercentMul(fixedpoint.SatSub(fixedpoint.PFUint256(), alpha), old),
	)
	s.burnRate[sid] = newRate
	if s.metrics != nil {
		f, _ := newRate.ToBig().Float64()
		s.metrics.BurnRate.WithLabelValues(strconv.FormatUint(uint64(sid), 10)).Set(f)
	}
}

func (s *Scheduler) recordChurnUtilization(sid ids.SubnetID, churnLimit uint32, activated int) {
	w, ok := s.churnUtil[sid]
	if !ok {
		w = telemetry.NewRollingWindow(16)
		s.churnUtil[sid] = w
	}
	utilization := 0.0
	if churnLimit > 0 {
		utilization = float64(activated) / float64(churnLimit)
	}
	w.Observe(utilization)
	if s.metrics != nil {
		s.metrics.ChurnUtilization.WithLabelValues(strconv.FormatUint(uint64(sid), 10)).Set(utilization)
	}
}

// splitSubnetEmissions derives a subnet's slice of this epoch's validator
// emissions (subnetWeight's share of dist.ValidatorEmissions), then splits
// that into owner/node/delegate cuts per spec.md §4.I's rewards_data.
func splitSubnetEmissions(validatorEmissions, subnetWeight, ownerPercentage, delegatePercentage *uint256.Int) (owner, nodeShare, delegate *uint256.Int) {
	subnetEmissions := fixedpoint.PercentMul(validatorEmissions, subnetWeight)
	owner = fixedpoint.PercentMul(subnetEmissions, ownerPercentage)
	remaining := fixedpoint.SatSub(subnetEmissions, owner)
	delegate = fixedpoint.PercentMul(remaining, delegatePercentage)
	nodeShare = fixedpoint.SatSub(remaining, delegate)
	return owner, nodeShare, delegate
}

// anyHotkeyOf returns a deterministic (lowest-byte-order) hotkey owned by
// coldkey, so the reward pipeline's "is there a known owner" check is
// stable across implementations.
func anyHotkeyOf(reg *identity.Registry, coldkey ids.Coldkey) (ids.Hotkey, bool) {
	set := reg.Hotkeys(coldkey)
	if set == nil || set.Cardinality() == 0 {
		return ids.Hotkey{}, false
	}
	keys := set.ToSlice()
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) < 0
	})
	return keys[0], true
}

func bigFromFloat(f float64) *big.Int {
	scaled := new(big.Float).Mul(big.NewFloat(f), new(big.Float).SetUint64(fixedpoint.PF))
	out, _ := scaled.Int(nil)
	return out
}
