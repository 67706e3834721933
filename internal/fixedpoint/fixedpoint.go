// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixedpoint implements the protocol's deterministic arithmetic:
// saturating uint256-backed integer ops, percent-mul/div against the
// PF = 10^18 denominator, the weight-shaping power function, and the
// reputation decay/growth curve (spec.md §4.A).
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// PF is the fixed-point percent denominator: 1.0 == PF.
const PF uint64 = 1_000_000_000_000_000_000

// PFUint256 returns a fresh uint256.Int holding PF.
func PFUint256() *uint256.Int {
	return uint256.NewInt(PF)
}

// MaxUint256 is the saturation ceiling for all Amount-typed values.
func maxUint256() *uint256.Int {
	return new(uint256.Int).Not(uint256.NewInt(0))
}

// SatAdd returns a+b, saturating at the uint256 maximum instead of wrapping.
func SatAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return maxUint256()
	}
	return sum
}

// SatSub returns max(a-b, 0); the spec treats underflow as saturating to
// zero rather than as an error for internal bookkeeping (ledger amounts
// never go negative).
func SatSub(a, b *uint256.Int) *uint256.Int {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return uint256.NewInt(0)
	}
	return diff
}

// SatMul returns a*b, saturating at the uint256 maximum on overflow.
func SatMul(a, b *uint256.Int) *uint256.Int {
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return maxUint256()
	}
	return prod
}

// PercentMul computes floor(a * p / PF). Per spec.md §3, division by zero
// (impossible here since PF is a compile-time constant) is not a concern;
// overflow of the intermediate product is handled via big.Int rather than
// saturating, since percent-mul intermediate overflow would otherwise
// silently corrupt a legitimate, non-overflowing result.
func PercentMul(a, p *uint256.Int) *uint256.Int {
	if a.IsZero() || p.IsZero() {
		return uint256.NewInt(0)
	}
	prod := new(big.Int).Mul(a.ToBig(), p.ToBig())
	prod.Div(prod, new(big.Int).SetUint64(PF))
	return clampToUint256(prod)
}

// PercentDiv computes floor(n * PF / d), yielding zero when d == 0 per
// spec.md §3 ("division by zero ... yielding zero unless noted").
func PercentDiv(n, d *uint256.Int) *uint256.Int {
	if d.IsZero() || n.IsZero() {
		return uint256.NewInt(0)
	}
	prod := new(big.Int).Mul(n.ToBig(), new(big.Int).SetUint64(PF))
	prod.Div(prod, d.ToBig())
	return clampToUint256(prod)
}

// Min256 returns the smaller of a, b.
func Min256(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return a.Clone()
	}
	return b.Clone()
}

// ClampToPF returns min(v, PF) — used wherever the spec says "clamped to
// [0, PF]".
func ClampToPF(v *uint256.Int) *uint256.Int {
	return Min256(v, PFUint256())
}

func clampToUint256(v *big.Int) *uint256.Int {
	return FromBigSaturating(v)
}

// FromBigSaturating converts a big.Int back into a uint256.Int, flooring
// negative values at zero and saturating at the uint256 maximum instead
// of wrapping — the inverse of ToBig() for every intermediate computed in
// math/big (e.g. core/weight's raw-weight normalization).
func FromBigSaturating(v *big.Int) *uint256.Int {
	if v.Sign() <= 0 {
		return uint256.NewInt(0)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return maxUint256()
	}
	return out
}

// FromUint64 is a convenience constructor mirroring uint256.NewInt but
// named for call-site clarity around PF-denominated values.
func FromUint64(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}
