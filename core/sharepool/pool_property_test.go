// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sharepool

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestShareConservationProperty is §8 property 2 ("share conservation"):
// for any sequence of deposits into a fresh pool, with no intervening
// withdrawals, total shares always equal the sum of minted shares plus
// MinLiquidity.
func TestShareConservationProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total shares == sum(minted) + MinLiquidity", prop.ForAll(
		func(deposits []uint64) string {
			p := New(DefaultDecimalOffset)
			minted := uint256.NewInt(0)

			for _, d := range deposits {
				if d <= MinLiquidity {
					continue // deposits at or below MinLiquidity are left out of this property
				}
				s, err := p.Deposit(uint256.NewInt(d))
				if err != nil {
					return "unexpected deposit error: " + err.Error()
				}
				minted = new(uint256.Int).Add(minted, s)
			}

			if p.IsEmpty() {
				return "" // no deposits landed; nothing to check
			}

			want := new(uint256.Int).Add(minted, uint256.NewInt(MinLiquidity))
			if !want.Eq(p.TotalShares) {
				return "total shares diverged from minted+MinLiquidity"
			}
			return ""
		},
		gen.SliceOfN(8, gen.UInt64Range(1, 10_000_000)),
	))

	properties.TestingRun(t)
}
