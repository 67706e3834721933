// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import "github.com/holiman/uint256"

// DecreaseReputation implements spec.md §4.A: r' = r - percent_mul(r, f).
func DecreaseReputation(r, factor *uint256.Int) *uint256.Int {
	return SatSub(r, PercentMul(r, factor))
}

// IncreaseReputation implements spec.md §4.A:
//
//	r' = min(PF, r + percent_mul(r, f) * weight(a))
//
// where weight is expressed directly as a PF-denominated multiplier: for
// validator bonuses the caller passes the attestation ratio (already in
// [0, PF]); for passive increases the caller passes PF (i.e. weight 1.0,
// "passive increases use f directly").
func IncreaseReputation(r, factor, weight *uint256.Int) *uint256.Int {
	delta := PercentMul(PercentMul(r, factor), weight)
	return ClampToPF(SatAdd(r, delta))
}
