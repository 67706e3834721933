// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// Precheck is the reward-time precheck output of spec.md §4.H:
// attestation_ratio and weight_sum over a submission.
type Precheck struct {
	AttestationRatio *uint256.Int
	WeightSum        *uint256.Int
}

// Run computes attestation_ratio = attests.len() / max_attestors (clamped
// to [0, PF]) and weight_sum = Σ data.score. max_attestors is the count of
// qualified validators in the snapshot, or the emergency set's size when
// one is configured (emergencySetSize > 0 overrides the snapshot count).
func Run(sub *Submission, emergencySetSize uint32) Precheck {
	maxAttestors := uint64(len(sub.SubnetNodes))
	if emergencySetSize > 0 {
		maxAttestors = uint64(emergencySetSize)
	}

	ratio := uint256.NewInt(0)
	if maxAttestors > 0 {
		ratio = fixedpoint.ClampToPF(fixedpoint.PercentDiv(
			uint256.NewInt(uint64(len(sub.Attests))),
			uint256.NewInt(maxAttestors),
		))
	}

	weightSum := uint256.NewInt(0)
	for _, d := range sub.Data {
		weightSum = fixedpoint.SatAdd(weightSum, d.Score)
	}

	return Precheck{AttestationRatio: ratio, WeightSum: weightSum}
}
