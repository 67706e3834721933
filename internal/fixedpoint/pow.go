// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// powPrecisionBits resolves spec.md §9 Open Question 2 ("the pow(x, α)
// approximation is not canonicalized in the source... suggest a fixed
// lookup-table approach over [0, 1] at 2^-20 resolution"). Rather than a
// literal lookup table, Pow decomposes alpha into its 20-bit fixed-point
// binary expansion and multiplies together x^(2^-i) terms for every set
// bit, where each x^(2^-i) is one more deterministic integer square root
// of the previous term (math/big.Int.Sqrt is Newton's method on the
// integers — no hardware floats, bit-for-bit reproducible). This reaches
// the same 2^-20 resolution the spec names while supporting any alpha in
// [0, 1] rather than only the points a literal table would have stored.
const powPrecisionBits = 20

// Pow approximates x^alpha for x, alpha both expressed as PF-denominated
// fixed point values in [0, PF]. Used only for weight shaping (spec.md
// §4.A): SubnetDistributionPower (component J) and OverwatchStakeWeightFactor
// (component K).
func Pow(x, alpha *uint256.Int) *uint256.Int {
	if alpha.IsZero() {
		return PFUint256()
	}
	if x.IsZero() {
		return uint256.NewInt(0)
	}
	if alphaIsOne(alpha) {
		return x.Clone()
	}

	// Work in big.Int with PF-scaled fixed point throughout; uint256 would
	// overflow across 20 successive square-root halvings of small values.
	xBig := x.ToBig()
	pfBig := new(big.Int).SetUint64(PF)

	// Iteration i extracts bit i (value 2^-(i+1)) of alpha's fixed-point
	// binary expansion into bit, scanned most-significant-bit first.
	alphaRemaining := new(big.Int).Set(alpha.ToBig())
	result := new(big.Int).Set(pfBig)  // multiplicative identity in PF scale
	cur := fixedSqrt(xBig, pfBig)       // x^(2^-(i+1)) for i starting at 0

	for i := 0; i < powPrecisionBits; i++ {
		alphaRemaining.Mul(alphaRemaining, big.NewInt(2))
		bit := new(big.Int)
		bit.DivMod(alphaRemaining, pfBig, alphaRemaining)
		if bit.Sign() != 0 {
			result.Mul(result, cur)
			result.Div(result, pfBig)
		}
		cur = fixedSqrt(cur, pfBig)
	}

	return clampToUint256(result)
}

// fixedSqrt returns sqrt(v/pf) * pf == sqrt(v * pf), i.e. the fixed-point
// square root of v, using math/big's deterministic integer Sqrt.
func fixedSqrt(v, pf *big.Int) *big.Int {
	scaled := new(big.Int).Mul(v, pf)
	return new(big.Int).Sqrt(scaled)
}

func alphaIsOne(alpha *uint256.Int) bool {
	return alpha.Cmp(PFUint256()) == 0
}
