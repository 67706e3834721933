// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sharepool implements the ERC-4626-style shares<->assets pool
// primitive used by every delegate-stake pool in the core (spec.md §4.B):
// a subnet's delegate-stake pool, and each subnet node's node-delegate
// pool. Decimal-offset virtual liquidity plus a minimum dead-share mint on
// first deposit make donation-inflation attacks unprofitable by
// construction (spec.md §3 invariant 4, §8 property 4).
package sharepool

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/internal/fixedpoint"
)

// MinLiquidity is the number of dead shares minted into an empty pool on
// its first deposit, credited to no account.
const MinLiquidity = 1000

// DefaultDecimalOffset is the virtual-liquidity decimal offset used when
// spec.md §4.B leaves it unspecified ("use 1 if unspecified").
const DefaultDecimalOffset = 1

var (
	// ErrCouldNotConvertToShares is returned when a deposit would mint
	// zero shares due to rounding.
	ErrCouldNotConvertToShares = errors.New("sharepool: deposit would mint zero shares")
	// ErrCouldNotConvertToBalance is returned when a withdrawal would
	// release zero assets due to rounding.
	ErrCouldNotConvertToBalance = errors.New("sharepool: withdrawal would release zero assets")
	// ErrInsufficientShares is returned when an account tries to spend
	// more shares than it holds.
	ErrInsufficientShares = errors.New("sharepool: insufficient shares")
)

// Pool is the share<->asset conversion state for one delegate pool.
// Per-account share balances are owned by the caller (subnet or node
// delegate-stake maps in core/stake); Pool only tracks totals and
// performs the conversion math.
type Pool struct {
	TotalShares  *uint256.Int
	TotalBalance *uint256.Int
	// DecimalOffset is the virtual-liquidity decimal exponent `d` from
	// spec.md §4.B (1 or 6).
	DecimalOffset uint
}

// New constructs an empty pool with the given decimal offset.
func New(decimalOffset uint) *Pool {
	if decimalOffset == 0 {
		decimalOffset = DefaultDecimalOffset
	}
	return &Pool{
		TotalShares:   uint256.NewInt(0),
		TotalBalance:  uint256.NewInt(0),
		DecimalOffset: decimalOffset,
	}
}

func (p *Pool) virtualShares() *uint256.Int {
	offset := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(p.DecimalOffset)))
	return offset
}

// IsEmpty reports whether the pool has never received a deposit.
func (p *Pool) IsEmpty() bool {
	return p.TotalShares.IsZero()
}

// ToShares converts assets to shares using the pool's current state, per
// spec.md §4.B: shares = floor(assets * (S + 10^d) / (B + 1)). On an
// empty pool it returns assets unchanged (1:1); the MinLiquidity dead
// shares are added separately by Deposit. ToShares itself is a pure,
// read-only conversion.
func (p *Pool) ToShares(assets *uint256.Int) *uint256.Int {
	if p.IsEmpty() {
		return assets.Clone()
	}
	num := fixedpoint.SatMul(assets, fixedpoint.SatAdd(p.TotalShares, p.virtualShares()))
	den := fixedpoint.SatAdd(p.TotalBalance, uint256.NewInt(1))
	return divFloor(num, den)
}

// ToAssets is the inverse of ToShares: assets = floor(shares * (B + 1) / (S + 10^d)).
func (p *Pool) ToAssets(shares *uint256.Int) *uint256.Int {
	if p.IsEmpty() {
		return uint256.NewInt(0)
	}
	num := fixedpoint.SatMul(shares, fixedpoint.SatAdd(p.TotalBalance, uint256.NewInt(1)))
	den := fixedpoint.SatAdd(p.TotalShares, p.virtualShares())
	return divFloor(num, den)
}

// Deposit credits assets into the pool and returns the number of shares
// minted for the depositor. On the very first deposit into an empty pool,
// the depositor's own shares are computed first (1:1, see ToShares), and
// then MinLiquidity dead shares are minted into the pool itself (never
// credited to any account), per spec.md §4.B.
func (p *Pool) Deposit(assets *uint256.Int) (mintedShares *uint256.Int, err error) {
	if assets.IsZero() {
		return nil, ErrCouldNotConvertToShares
	}

	if p.IsEmpty() {
		// Still empty: ToShares takes its 1:1 early-return branch, so the
		// depositor's minted amount must be computed before TotalShares
		// picks up the dead-share mint below.
		minted := p.ToShares(assets)
		if minted.IsZero() {
			return nil, ErrCouldNotConvertToShares
		}
		p.TotalShares = fixedpoint.SatAdd(uint256.NewInt(MinLiquidity), minted)
		p.TotalBalance = fixedpoint.SatAdd(p.TotalBalance, assets)
		return minted, nil
	}

	minted := p.ToShares(assets)
	if minted.IsZero() {
		return nil, ErrCouldNotConvertToShares
	}
	p.TotalShares = fixedpoint.SatAdd(p.TotalShares, minted)
	p.TotalBalance = fixedpoint.SatAdd(p.TotalBalance, assets)
	return minted, nil
}

// Withdraw converts shares to assets and debits both totals, returning
// the released asset amount.
func (p *Pool) Withdraw(shares *uint256.Int) (assets *uint256.Int, err error) {
	if shares.IsZero() || shares.Cmp(p.TotalShares) > 0 {
		return nil, ErrInsufficientShares
	}
	assets = p.ToAssets(shares)
	if assets.IsZero() {
		return nil, ErrCouldNotConvertToBalance
	}
	p.TotalShares = fixedpoint.SatSub(p.TotalShares, shares)
	p.TotalBalance = fixedpoint.SatSub(p.TotalBalance, assets)
	return assets, nil
}

// Donate increases the pool's balance without minting shares, diluting
// every existing shareholder's cost basis upward — this is both how
// rewards are paid into delegate pools (spec.md §4.I step 5/6) and the
// attack vector the MinLiquidity + virtual-offset combination is designed
// to make unprofitable (spec.md §8 property 4).
func (p *Pool) Donate(assets *uint256.Int) {
	p.TotalBalance = fixedpoint.SatAdd(p.TotalBalance, assets)
}

// TransferShares atomically moves shares from one account's balance to
// another's without touching the pool totals or balance — the caller is
// responsible for debiting/crediting the two account share balances;
// this helper only validates that shares is non-zero and does not exceed
// fromBalance.
func (p *Pool) TransferShares(fromBalance, shares *uint256.Int) error {
	if shares.IsZero() || shares.Cmp(fromBalance) > 0 {
		return ErrInsufficientShares
	}
	return nil
}

func divFloor(num, den *uint256.Int) *uint256.Int {
	if den.IsZero() {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Div(num, den)
}
