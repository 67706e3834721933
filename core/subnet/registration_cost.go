// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package subnet

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// RegistrationCost computes the current subnet registration fee per
// spec.md §4.F: "Registration cost decays concavely from
// MaxSubnetRegistrationFee to Min over SubnetRegistrationInterval epochs
// since last registration; floor at min."
//
// The decay shape is pow(progress, alpha) with alpha < PF (a concave
// curve: cost falls quickly right after a registration and flattens out
// approaching Min), mirroring the bonding-curve-style pow() use
// elsewhere in the protocol (spec.md §4.A). alpha is the same
// RegistrationCostAlpha constant used by every implementer so the curve
// stays bit-identical across nodes.
func RegistrationCost(
	min, max *uint256.Int,
	epochsSinceLastRegistration, decayEpochs uint64,
	alpha *uint256.Int,
) *uint256.Int {
	if max.Cmp(min) <= 0 {
		return min.Clone()
	}
	if decayEpochs == 0 || epochsSinceLastRegistration >= decayEpochs {
		return min.Clone()
	}

	progress := fixedpoint.PercentDiv(
		uint256.NewInt(epochsSinceLastRegistration),
		uint256.NewInt(decayEpochs),
	)
	// decayed rises 0 -> PF as progress goes 0 -> 1; alpha < PF bows the
	// curve upward so most of the drop happens early (concave decay).
	decayed := fixedpoint.Pow(progress, alpha)

	span := fixedpoint.SatSub(max, min)
	drop := fixedpoint.PercentMul(span, decayed)
	cost := fixedpoint.SatSub(max, drop)
	if cost.Cmp(min) < 0 {
		return min.Clone()
	}
	return cost
}
