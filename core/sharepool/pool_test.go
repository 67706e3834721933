// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sharepool

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestDepositMintsDeadShares(t *testing.T) {
	p := New(DefaultDecimalOffset)
	minted, err := p.Deposit(uint256.NewInt(1_000_000))
	require.NoError(t, err)
	require.True(t, minted.Sign() > 0)
	// Total shares == depositor shares + MinLiquidity dead shares.
	require.Equal(t, fixedAdd(minted, uint256.NewInt(MinLiquidity)), p.TotalShares)
}

func TestDepositTooSmallFails(t *testing.T) {
	p := New(DefaultDecimalOffset)
	_, err := p.Deposit(uint256.NewInt(MinLiquidity))
	require.NoError(t, err)

	// Donate enough that a subsequent 1-unit deposit floors to zero shares.
	p.Donate(uint256.NewInt(1_000_000_000_000))

	_, err = p.Deposit(uint256.NewInt(1))
	require.ErrorIs(t, err, ErrCouldNotConvertToShares)
}

func TestWithdrawRoundTripNoYield(t *testing.T) {
	p := New(DefaultDecimalOffset)
	minted, err := p.Deposit(uint256.NewInt(1_000_000))
	require.NoError(t, err)

	assets, err := p.Withdraw(minted)
	require.NoError(t, err)
	// Property 3: at most x, at least x - rounding.
	require.LessOrEqual(t, assets.Uint64(), uint64(1_000_000))
	require.GreaterOrEqual(t, assets.Uint64(), uint64(1_000_000)-MinLiquidity-10)
}

// TestDonationAttackUnprofitable is scenario 5 from spec.md §8: an
// attacker who deposits a small amount into an empty pool then donates a
// large balance cannot profit once a victim has also deposited.
func TestDonationAttackUnprofitable(t *testing.T) {
	p := New(DefaultDecimalOffset)

	attackerShares, err := p.Deposit(uint256.NewInt(1000))
	require.NoError(t, err)

	p.Donate(uint256.NewInt(9_999_000))

	victimShares, err := p.Deposit(uint256.NewInt(1_000_000))
	require.NoError(t, err)
	require.True(t, victimShares.Sign() > 0, "victim must receive nonzero shares")

	attackerPayout, err := p.Withdraw(attackerShares)
	require.NoError(t, err)
	require.Less(t, attackerPayout.Uint64(), uint64(1000+9_999_000))
}

func TestShareConservation(t *testing.T) {
	p := New(DefaultDecimalOffset)
	s1, err := p.Deposit(uint256.NewInt(5000))
	require.NoError(t, err)
	s2, err := p.Deposit(uint256.NewInt(7000))
	require.NoError(t, err)

	sumAccountShares := fixedAdd(s1, s2)
	sumAccountShares = fixedAdd(sumAccountShares, uint256.NewInt(MinLiquidity))
	require.Equal(t, sumAccountShares, p.TotalShares)
}

func fixedAdd(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Add(a, b)
}
