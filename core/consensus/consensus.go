// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus implements the per-(subnet, subnet-epoch) consensus
// submission described by spec.md §4.H: the elected validator's data
// submission, node attestations, and the attestation-ratio precheck
// consumed by the reward pipeline.
package consensus

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// NodeScore is one (node_id, score) entry of a submission's data.
type NodeScore struct {
	NodeID ids.NodeID
	Score  *uint256.Int
}

// Submission is SubnetConsensusSubmission from spec.md §3.
type Submission struct {
	ValidatorID            ids.NodeID
	ValidatorEpochProgress *uint256.Int
	ValidatorRewardFactor  *uint256.Int
	Data                   []NodeScore
	Attests                map[ids.NodeID]ids.Block
	AttestRewardFactors    map[ids.NodeID]*uint256.Int
	SubnetNodes            []ids.NodeID
	PrioritizeQueueNodeID  *ids.NodeID
	RemoveQueueNodeID      *ids.NodeID
}

// RewardFactorOf returns the reward factor nodeID recorded with its
// attestation, defaulting to PF (full share) when unset (spec.md §4.I
// step 5: "If node attested, use its recorded reward_factor from attest
// payload").
func (s *Submission) RewardFactorOf(nodeID ids.NodeID) *uint256.Int {
	if f, ok := s.AttestRewardFactors[nodeID]; ok {
		return f
	}
	return fixedpoint.PFUint256()
}

func (s *Submission) inSnapshot(nodeID ids.NodeID) bool {
	for _, id := range s.SubnetNodes {
		if id == nodeID {
			return true
		}
	}
	return false
}

// ScoreOf returns the recorded score for nodeID and whether it submitted
// data this epoch.
func (s *Submission) ScoreOf(nodeID ids.NodeID) (*uint256.Int, bool) {
	for _, d := range s.Data {
		if d.NodeID == nodeID {
			return d.Score, true
		}
	}
	return nil, false
}

type key struct {
	SubnetID ids.SubnetID
	Epoch    ids.SubnetEpoch
}

// Registry owns every (subnet, subnet-epoch) submission.
type Registry struct {
	submissions map[key]*Submission
}

// NewRegistry constructs an empty submission registry.
func NewRegistry() *Registry {
	return &Registry{submissions: make(map[key]*Submission)}
}

// Get returns the stored submission for (sid, epoch), or nil if absent.
func (r *Registry) Get(sid ids.SubnetID, epoch ids.SubnetEpoch) *Submission {
	return r.submissions[key{sid, epoch}]
}

// Validate stores a fresh submission from the elected validator, with the
// validator auto-counted as having attested (spec.md §4.H). It fails if
// caller is not electedValidator, or a submission already exists for
// (sid, epoch).
func (r *Registry) Validate(
	sid ids.SubnetID,
	epoch ids.SubnetEpoch,
	electedValidator, caller ids.NodeID,
	validatorEpochProgress, validatorRewardFactor *uint256.Int,
	data []NodeScore,
	snapshot []ids.NodeID,
	currentBlock ids.Block,
) (*Submission, error) {
	if caller != electedValidator {
		return nil, coreerrors.ErrNotElectedValidator
	}
	k := key{sid, epoch}
	if _, exists := r.submissions[k]; exists {
		return nil, coreerrors.ErrAlreadySubmitted
	}

	sub := &Submission{
		ValidatorID:            caller,
		ValidatorEpochProgress: validatorEpochProgress,
		ValidatorRewardFactor:  validatorRewardFactor,
		Data:                   data,
		Attests:                map[ids.NodeID]ids.Block{caller: currentBlock},
		AttestRewardFactors:    map[ids.NodeID]*uint256.Int{caller: fixedpoint.PFUint256()},
		SubnetNodes:            snapshot,
	}
	r.submissions[k] = sub
	return sub, nil
}

// Attest records nodeID's attestation to (sid, epoch), idempotently.
// nodeID must be present in the submission's snapshot, or in the
// emergency set when one is configured (emergencySet == nil disables the
// check).
func (r *Registry) Attest(
	sid ids.SubnetID,
	epoch ids.SubnetEpoch,
	nodeID ids.NodeID,
	rewardFactor *uint256.Int,
	currentBlock ids.Block,
	emergencySet map[ids.NodeID]bool,
) error {
	sub := r.Get(sid, epoch)
	if sub == nil {
		return coreerrors.ErrNoSubmission
	}
	if emergencySet != nil {
		if !emergencySet[nodeID] {
			return coreerrors.ErrNodeNotInSnapshot
		}
	} else if !sub.inSnapshot(nodeID) {
		return coreerrors.ErrNodeNotInSnapshot
	}
	if _, already := sub.Attests[nodeID]; already {
		return nil
	}
	sub.Attests[nodeID] = currentBlock
	if rewardFactor == nil {
		rewardFactor = fixedpoint.PFUint256()
	}
	sub.AttestRewardFactors[nodeID] = rewardFactor
	return nil
}

// ProposeAttestation is the combined validate-or-attest convenience path:
// if no submission exists yet for (sid, epoch) it behaves like Validate,
// otherwise it behaves like Attest for caller.
func (r *Registry) ProposeAttestation(
	sid ids.SubnetID,
	epoch ids.SubnetEpoch,
	electedValidator, caller ids.NodeID,
	validatorEpochProgress, validatorRewardFactor, attestRewardFactor *uint256.Int,
	data []NodeScore,
	snapshot []ids.NodeID,
	currentBlock ids.Block,
	emergencySet map[ids.NodeID]bool,
) (*Submission, error) {
	if r.Get(sid, epoch) == nil {
		return r.Validate(sid, epoch, electedValidator, caller, validatorEpochProgress, validatorRewardFactor, data, snapshot, currentBlock)
	}
	return r.Get(sid, epoch), r.Attest(sid, epoch, caller, attestRewardFactor, currentBlock, emergencySet)
}
