// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// NodeReputationFactor names which typed decay/growth factor applies to a
// per-node reputation update, per spec.md §4.E: "Per-node reputation
// decays on absence/below-min-weight/non-attestation with typed factors;
// increases on inclusion and validator duty."
type NodeReputationFactor uint8

const (
	FactorAbsence NodeReputationFactor = iota
	FactorBelowMinWeight
	FactorNonAttestation
	FactorInclusion
	FactorValidatorDuty
)

// NodeReputation is the per-(subnet, node) reputation score, bounded to
// [0, PF].
type NodeReputation struct {
	Score *uint256.Int
}

// NewNodeReputation starts a node at full reputation.
func NewNodeReputation() *NodeReputation {
	return &NodeReputation{Score: fixedpoint.PFUint256()}
}

// Decay applies the decrease curve for one of the absence-style factors.
func (n *NodeReputation) Decay(factor *uint256.Int) {
	n.Score = fixedpoint.DecreaseReputation(n.Score, factor)
}

// Grow applies the increase curve for one of the inclusion/validator-duty
// factors. weight defaults to PF (full weight) for passive increases; the
// validator-duty path weights by attestation ratio (spec.md §4.A).
func (n *NodeReputation) Grow(factor, weight *uint256.Int) {
	n.Score = fixedpoint.IncreaseReputation(n.Score, factor, weight)
}
