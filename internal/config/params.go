// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the full governance-settable constants table named
// in spec.md §6, split into global parameters and the subset that are
// parameterized per-subnet (spec.md §9 "Dynamic dispatch": "Each subnet's
// parameters are per-subnet map entries, not polymorphic objects").
package config

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// WeightFactors is SubnetWeightFactors from spec.md §4.J: the three
// blend weights must sum to PF.
type WeightFactors struct {
	DelegateStake *uint256.Int
	NodeCount     *uint256.Int
	NetFlow       *uint256.Int
}

// Global holds the constants that apply uniformly across all subnets.
type Global struct {
	MaxSubnets                    uint32
	MinSubnetNodes                uint32
	MaxSubnetNodes                uint32
	EpochLength                   uint64 // L
	SubnetRegistrationEpochs      uint64
	SubnetActivationEnactmentEpochs uint64
	MaxSubnetPenaltyCount         uint32
	MaxSubnetPauseEpochs          uint64
	SubnetPauseCooldownEpochs     uint64
	SubnetOwnerPercentage         *uint256.Int
	// FoundationPercentage is get_epoch_emissions_v2's validator/foundation
	// split: the share of each epoch's total emission that is deposited to
	// treasury rather than distributed to subnet weights.
	FoundationPercentage          *uint256.Int
	BaseValidatorReward           *uint256.Int
	MinAttestationPercentage      *uint256.Int
	SuperMajorityAttestationRatio *uint256.Int
	MinVastMajorityAttestationPercentage *uint256.Int
	ReputationIncreaseFactor      *uint256.Int
	ReputationDecreaseFactor      *uint256.Int
	StakeCooldownEpochs           uint64
	DelegateStakeCooldownEpochs   uint64
	NodeDelegateStakeCooldownEpochs uint64
	MaxUnbondings                 int
	// MinActiveNodeStakeEpochs gates remove_stake on a node that is still
	// active: current_epoch must be >= node.start_epoch +
	// MinActiveNodeStakeEpochs (spec.md §4.D.1).
	MinActiveNodeStakeEpochs      uint64
	MinDelegateStakeDeposit       *uint256.Int
	// MinSubnetDelegateStake is epoch_preliminaries' removal floor: an
	// Active subnet whose TotalDelegateStake falls below this is removed
	// (spec.md §4.F's RemovalMinSubnetDelegateStake).
	MinSubnetDelegateStake        *uint256.Int
	SubnetWeightFactors           WeightFactors
	OverwatchEpochLengthMultiplier uint64
	OverwatchCommitCutoffPercent  *uint256.Int
	OverwatchStakeWeightFactor    *uint256.Int
	OverwatchWeightFactor         *uint256.Int
	OverwatchEpochEmissions       *uint256.Int
	MinMinSubnetNodeReputation    *uint256.Int
	MaxMinSubnetNodeReputation    *uint256.Int
	MinNodeReputationFactor       *uint256.Int
	MaxNodeReputationFactor       *uint256.Int
	SubnetDistributionPower       *uint256.Int
	MinRegistrationCost           *uint256.Int
	MaxSubnetRegistrationFee      *uint256.Int
	SubnetRegistrationInterval    uint64
	RegistrationCostDecayBlocks   uint64
	RegistrationCostAlpha         *uint256.Int
	NewRegistrationCostMultiplier *uint256.Int
}

// SubnetParams holds the constants spec.md §6 marks "(sid)" — governance
// may tune them independently per subnet.
type SubnetParams struct {
	ChurnLimit                          uint32
	ChurnLimitMultiplier                uint64
	SubnetNodeQueueEpochs                uint64
	IdleClassificationEpochs             uint64
	IncludedClassificationEpochs         uint64
	MaxSubnetNodePenalties               uint32
	SubnetNodeScorePenaltyThreshold      *uint256.Int
	SubnetMinStakeBalance                *uint256.Int
	SubnetDelegateStakeRewardsPercentage *uint256.Int

	// NodeBurnRateAlpha smooths a subnet's node burn rate between epochs:
	// new_rate = percent_mul(alpha, observed) + percent_mul(PF-alpha, old_rate).
	NodeBurnRateAlpha *uint256.Int
}

// DefaultGlobal returns reasonable defaults for every Global field,
// starting point for both GlobalFromViper and tests that don't care
// about most of the table.
func DefaultGlobal() Global {
	return Global{
		MaxSubnets:                     32,
		MinSubnetNodes:                 1,
		MaxSubnetNodes:                 256,
		EpochLength:                    100,
		SubnetRegistrationEpochs:       10,
		SubnetActivationEnactmentEpochs: 10,
		MaxSubnetPenaltyCount:          3,
		MaxSubnetPauseEpochs:           10,
		SubnetPauseCooldownEpochs:      10,
		SubnetOwnerPercentage:          uint256.NewInt(fixedpoint.PF / 10),
		FoundationPercentage:           uint256.NewInt(fixedpoint.PF / 5),
		BaseValidatorReward:            uint256.NewInt(1_000_000),
		MinAttestationPercentage:       uint256.NewInt(fixedpoint.PF / 2),
		SuperMajorityAttestationRatio:  uint256.NewInt(fixedpoint.PF * 2 / 3),
		MinVastMajorityAttestationPercentage: uint256.NewInt(fixedpoint.PF * 3 / 4),
		ReputationIncreaseFactor:       uint256.NewInt(fixedpoint.PF / 20),
		ReputationDecreaseFactor:       uint256.NewInt(fixedpoint.PF / 10),
		StakeCooldownEpochs:            10,
		DelegateStakeCooldownEpochs:    10,
		NodeDelegateStakeCooldownEpochs: 10,
		MaxUnbondings:                  10,
		MinActiveNodeStakeEpochs:       10,
		MinDelegateStakeDeposit:        uint256.NewInt(1_000),
		MinSubnetDelegateStake:         uint256.NewInt(0),
		SubnetWeightFactors: WeightFactors{
			DelegateStake: uint256.NewInt(fixedpoint.PF / 3),
			NodeCount:     uint256.NewInt(fixedpoint.PF / 3),
			NetFlow:       fixedpoint.SatSub(fixedpoint.PFUint256(), uint256.NewInt(2*(fixedpoint.PF/3))),
		},
		OverwatchEpochLengthMultiplier: 10,
		OverwatchCommitCutoffPercent:   uint256.NewInt(fixedpoint.PF / 2),
		OverwatchStakeWeightFactor:     uint256.NewInt(fixedpoint.PF),
		OverwatchWeightFactor:          uint256.NewInt(fixedpoint.PF / 10),
		OverwatchEpochEmissions:        uint256.NewInt(0),
		MinMinSubnetNodeReputation:     uint256.NewInt(0),
		MaxMinSubnetNodeReputation:     fixedpoint.PFUint256(),
		MinNodeReputationFactor:        uint256.NewInt(fixedpoint.PF / 20),
		MaxNodeReputationFactor:        uint256.NewInt(fixedpoint.PF / 5),
		SubnetDistributionPower:        uint256.NewInt(fixedpoint.PF),
		MinRegistrationCost:            uint256.NewInt(1_000),
		MaxSubnetRegistrationFee:       uint256.NewInt(100_000),
		SubnetRegistrationInterval:     10,
		RegistrationCostDecayBlocks:    1_000,
		RegistrationCostAlpha:          uint256.NewInt(fixedpoint.PF / 5),
		NewRegistrationCostMultiplier:  uint256.NewInt(2 * fixedpoint.PF),
	}
}

// DefaultSubnetParams returns reasonable defaults a newly registered
// subnet inherits until governance overrides them.
func DefaultSubnetParams() SubnetParams {
	return SubnetParams{
		ChurnLimit:                          4,
		ChurnLimitMultiplier:                1,
		SubnetNodeQueueEpochs:                5,
		IdleClassificationEpochs:             3,
		IncludedClassificationEpochs:         3,
		MaxSubnetNodePenalties:               3,
		SubnetNodeScorePenaltyThreshold:      uint256.NewInt(fixedpoint.PF / 10), // 10%
		SubnetMinStakeBalance:                uint256.NewInt(1_000),
		SubnetDelegateStakeRewardsPercentage: uint256.NewInt(0),
		NodeBurnRateAlpha:                    uint256.NewInt(fixedpoint.PF / 5), // 20%
	}
}

// Store aggregates Global plus the per-subnet overrides, with
// bounds-checked setters matching spec.md §6 ("each has bounds-checked
// setters") and §7's validation error kinds.
type Store struct {
	Global  Global
	subnets map[ids.SubnetID]SubnetParams
}

// NewStore constructs a parameter store from defaultGlobal, with no
// per-subnet overrides yet registered.
func NewStore(defaultGlobal Global) *Store {
	return &Store{Global: defaultGlobal, subnets: make(map[ids.SubnetID]SubnetParams)}
}

// Subnet returns subnetID's parameters, falling back to
// DefaultSubnetParams() if none were ever registered.
func (s *Store) Subnet(subnetID ids.SubnetID) SubnetParams {
	p, ok := s.subnets[subnetID]
	if !ok {
		return DefaultSubnetParams()
	}
	return p
}

// SetSubnet installs (or replaces) subnetID's parameter overrides.
func (s *Store) SetSubnet(subnetID ids.SubnetID, p SubnetParams) {
	s.subnets[subnetID] = p
}

// --- bounds-checked setters, global ---

func (s *Store) SetMaxSubnets(v uint32) error {
	if v == 0 {
		return coreerrors.ErrInvalidMaxSubnets
	}
	s.Global.MaxSubnets = v
	return nil
}

func (s *Store) SetMinSubnetNodes(v uint32) error {
	if v == 0 || v > s.Global.MaxSubnetNodes {
		return coreerrors.ErrInvalidMinSubnetNodes
	}
	s.Global.MinSubnetNodes = v
	return nil
}

func (s *Store) SetMaxSubnetNodes(v uint32) error {
	if v == 0 || v < s.Global.MinSubnetNodes {
		return coreerrors.ErrInvalidMaxSubnetNodes
	}
	s.Global.MaxSubnetNodes = v
	return nil
}

func (s *Store) SetEpochLength(v uint64) error {
	if v < 3 { // slots 0 and 1 are reserved; at least one subnet slot must exist
		return coreerrors.ErrInvalidValues
	}
	s.Global.EpochLength = v
	return nil
}

// SetPercent is the shared bounds check for every PF-denominated
// configuration field (percent <= PF), used by the many percent-typed
// setters below instead of repeating the same two-line check everywhere.
func SetPercent(dst **uint256.Int, v *uint256.Int) error {
	if v.Cmp(fixedpoint.PFUint256()) > 0 {
		return coreerrors.ErrInvalidPercent
	}
	*dst = v.Clone()
	return nil
}

func (s *Store) SetSubnetOwnerPercentage(v *uint256.Int) error {
	return SetPercent(&s.Global.SubnetOwnerPercentage, v)
}

func (s *Store) SetMinAttestationPercentage(v *uint256.Int) error {
	return SetPercent(&s.Global.MinAttestationPercentage, v)
}

func (s *Store) SetFoundationPercentage(v *uint256.Int) error {
	return SetPercent(&s.Global.FoundationPercentage, v)
}

func (s *Store) SetSuperMajorityAttestationRatio(v *uint256.Int) error {
	return SetPercent(&s.Global.SuperMajorityAttestationRatio, v)
}

func (s *Store) SetReputationIncreaseFactor(v *uint256.Int) error {
	return SetPercent(&s.Global.ReputationIncreaseFactor, v)
}

func (s *Store) SetReputationDecreaseFactor(v *uint256.Int) error {
	return SetPercent(&s.Global.ReputationDecreaseFactor, v)
}

func (s *Store) SetOverwatchWeightFactor(v *uint256.Int) error {
	return SetPercent(&s.Global.OverwatchWeightFactor, v)
}

func (s *Store) SetOverwatchStakeWeightFactor(v *uint256.Int) error {
	return SetPercent(&s.Global.OverwatchStakeWeightFactor, v)
}

func (s *Store) SetOverwatchCommitCutoffPercent(v *uint256.Int) error {
	return SetPercent(&s.Global.OverwatchCommitCutoffPercent, v)
}

func (s *Store) SetSubnetDistributionPower(v *uint256.Int) error {
	return SetPercent(&s.Global.SubnetDistributionPower, v)
}

// SetSubnetWeightFactors validates that the three blend weights sum
// exactly to PF, per spec.md §4.J step 1: "each in PF units, with
// delegate_stake + node_count + net_flow = PF (validate on set)".
func (s *Store) SetSubnetWeightFactors(w WeightFactors) error {
	sum := fixedpoint.SatAdd(fixedpoint.SatAdd(w.DelegateStake, w.NodeCount), w.NetFlow)
	if sum.Cmp(fixedpoint.PFUint256()) != 0 {
		return coreerrors.ErrInvalidValues
	}
	s.Global.SubnetWeightFactors = w
	return nil
}

func (s *Store) SetMinSubnetDelegateStake(v *uint256.Int) error {
	s.Global.MinSubnetDelegateStake = v.Clone()
	return nil
}

func (s *Store) SetMaxUnbondings(v int) error {
	if v <= 0 {
		return coreerrors.ErrInvalidValues
	}
	s.Global.MaxUnbondings = v
	return nil
}

func (s *Store) SetMinActiveNodeStakeEpochs(v uint64) error {
	s.Global.MinActiveNodeStakeEpochs = v
	return nil
}

// --- bounds-checked setters, per-subnet ---

// SetChurnLimit validates ChurnLimit(sid) against MaxSubnetNodes: a churn
// limit larger than the subnet's own node cap can never be exhausted and
// is almost certainly a misconfiguration.
func (s *Store) SetChurnLimit(subnetID ids.SubnetID, v uint32) error {
	if v == 0 || v > s.Global.MaxSubnetNodes {
		return coreerrors.ErrInvalidChurnLimit
	}
	p := s.Subnet(subnetID)
	p.ChurnLimit = v
	s.SetSubnet(subnetID, p)
	return nil
}

func (s *Store) SetSubnetNodeQueueEpochs(subnetID ids.SubnetID, v uint64) error {
	if v == 0 {
		return coreerrors.ErrInvalidRegistrationQueueEpochs
	}
	p := s.Subnet(subnetID)
	p.SubnetNodeQueueEpochs = v
	s.SetSubnet(subnetID, p)
	return nil
}

func (s *Store) SetMaxSubnetNodePenalties(subnetID ids.SubnetID, v uint32) error {
	p := s.Subnet(subnetID)
	p.MaxSubnetNodePenalties = v
	s.SetSubnet(subnetID, p)
	return nil
}

func (s *Store) SetSubnetMinStakeBalance(subnetID ids.SubnetID, v *uint256.Int) error {
	p := s.Subnet(subnetID)
	p.SubnetMinStakeBalance = v.Clone()
	s.SetSubnet(subnetID, p)
	return nil
}

func (s *Store) SetSubnetDelegateStakeRewardsPercentage(subnetID ids.SubnetID, v *uint256.Int) error {
	if v.Cmp(fixedpoint.PFUint256()) > 0 {
		return coreerrors.ErrInvalidPercent
	}
	p := s.Subnet(subnetID)
	p.SubnetDelegateStakeRewardsPercentage = v.Clone()
	s.SetSubnet(subnetID, p)
	return nil
}

func (s *Store) SetNodeBurnRateAlpha(subnetID ids.SubnetID, v *uint256.Int) error {
	if v.Cmp(fixedpoint.PFUint256()) > 0 {
		return coreerrors.ErrInvalidPercent
	}
	p := s.Subnet(subnetID)
	p.NodeBurnRateAlpha = v.Clone()
	s.SetSubnet(subnetID, p)
	return nil
}
