// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/sharepool"
	"github.com/hypercore-net/hypercore/core/unbonding"
	"github.com/hypercore-net/hypercore/ids"
)

var (
	// ErrMinDelegateStake is returned when an operation would leave a
	// pool below a configured minimum, or targets a nonexistent node.
	ErrMinDelegateStake = errors.New("stake: minimum delegate stake not reached")
	// ErrMinDelegateStakeDepositNotReached gates add_to_delegate_stake on
	// MinDelegateStakeDeposit.
	ErrMinDelegateStakeDepositNotReached = errors.New("stake: minimum delegate stake deposit not reached")
	// ErrMinNodeDelegateStakeDepositNotReached is the node-delegate-pool
	// analog of ErrMinDelegateStakeDepositNotReached.
	ErrMinNodeDelegateStakeDepositNotReached = errors.New("stake: minimum node delegate stake deposit not reached")
)

// delegateKey identifies one user's position inside a pool keyed by K.
type delegateKey[K comparable] struct {
	Coldkey ids.Coldkey
	Pool    K
}

// Delegation is the generic share-pool ledger used for both the
// per-subnet delegate-stake pool (K = ids.SubnetID) and the per-node
// delegate-stake pool (K = SubnetNodeKey), per spec.md §3: "Subnet
// delegate pool... per-user AccountSubnetDelegateStakeShares" and "Node
// delegate pool... per-user AccountNodeDelegateStakeShares".
type Delegation[K comparable] struct {
	pools        map[K]*sharepool.Pool
	shares       map[delegateKey[K]]*uint256.Int
	decimalOffset uint
}

// NewDelegation constructs an empty generic delegation ledger.
func NewDelegation[K comparable](decimalOffset uint) *Delegation[K] {
	return &Delegation[K]{
		pools:         make(map[K]*sharepool.Pool),
		shares:        make(map[delegateKey[K]]*uint256.Int),
		decimalOffset: decimalOffset,
	}
}

func (d *Delegation[K]) pool(key K) *sharepool.Pool {
	p, ok := d.pools[key]
	if !ok {
		p = sharepool.New(d.decimalOffset)
		d.pools[key] = p
	}
	return p
}

// Pool exposes the read-only pool totals for key (TotalShares/TotalBalance).
func (d *Delegation[K]) Pool(key K) *sharepool.Pool {
	return d.pool(key)
}

// SharesOf returns coldkey's share balance in pool key.
func (d *Delegation[K]) SharesOf(coldkey ids.Coldkey, key K) *uint256.Int {
	s, ok := d.shares[delegateKey[K]{coldkey, key}]
	if !ok {
		return uint256.NewInt(0)
	}
	return s.Clone()
}

// BalanceOf returns coldkey's underlying asset balance in pool key.
func (d *Delegation[K]) BalanceOf(coldkey ids.Coldkey, key K) *uint256.Int {
	return d.pool(key).ToAssets(d.SharesOf(coldkey, key))
}

// Add deposits assets into pool key on behalf of coldkey, crediting
// minted shares. swap, when true, skips crediting shares to coldkey (the
// caller instead enqueues a QueuedSwapCall per spec.md §4.D.2: "swap=true
// flag skips user debit/credit").
func (d *Delegation[K]) Add(coldkey ids.Coldkey, key K, assets *uint256.Int, swap bool) (*uint256.Int, error) {
	p := d.pool(key)
	minted, err := p.Deposit(assets)
	if err != nil {
		return nil, err
	}
	if !swap {
		dk := delegateKey[K]{coldkey, key}
		d.shares[dk] = fixedAdd(d.SharesOf(coldkey, key), minted)
	}
	return minted, nil
}

// Remove burns shares from coldkey's position in pool key and returns the
// released asset amount, which the caller credits to the unbonding
// ledger. swap behaves as in Add: the shares are removed from the pool's
// totals but the source account is not debited (the value is in flight
// to the destination pool via a queued swap).
func (d *Delegation[K]) Remove(coldkey ids.Coldkey, key K, shares *uint256.Int, swap bool) (*uint256.Int, error) {
	dk := delegateKey[K]{coldkey, key}
	held := d.SharesOf(coldkey, key)
	if held.Cmp(shares) < 0 {
		return nil, sharepool.ErrInsufficientShares
	}
	p := d.pool(key)
	assets, err := p.Withdraw(shares)
	if err != nil {
		return nil, err
	}
	if !swap {
		d.shares[dk] = fixedSub(held, shares)
	}
	return assets, nil
}

// RemoveAndUnbond burns shares from coldkey's position in pool key and
// credits the released assets into unbondingLedger at the cooldown-gated
// release block, per spec.md §4.D.2's "shares -> balance -> unbonding
// ledger" flow for remove_delegate_stake / remove_node_delegate_stake.
// The ledger's capacity is checked before any shares are burned, so a
// ledger with no room fails atomically instead of burning shares it then
// cannot credit.
func (d *Delegation[K]) RemoveAndUnbond(
	coldkey ids.Coldkey, key K, shares *uint256.Int,
	unbondingLedger *unbonding.Ledger,
	currentBlock ids.Block, cooldownEpochs, epochLength uint64,
) (*uint256.Int, error) {
	release := unbonding.ReleaseBlock(currentBlock, cooldownEpochs, epochLength)
	if !unbondingLedger.CanInsert(release) {
		return nil, unbonding.ErrMaxUnlockingsReached
	}
	assets, err := d.Remove(coldkey, key, shares, false)
	if err != nil {
		return nil, err
	}
	if err := unbondingLedger.Insert(release, assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// Transfer atomically moves shares from one coldkey to another within the
// same pool, with no balance change and no unbonding entry (spec.md
// §4.D.2: "atomic share move between accounts within the same pool").
func (d *Delegation[K]) Transfer(from, to ids.Coldkey, key K, shares *uint256.Int) error {
	held := d.SharesOf(from, key)
	if held.Cmp(shares) < 0 {
		return sharepool.ErrInsufficientShares
	}
	d.shares[delegateKey[K]{from, key}] = fixedSub(held, shares)
	d.shares[delegateKey[K]{to, key}] = fixedAdd(d.SharesOf(to, key), shares)
	return nil
}

// Donate increases pool key's balance without minting shares (spec.md
// §4.D.2: "balance-only increase").
func (d *Delegation[K]) Donate(key K, assets *uint256.Int) {
	d.pool(key).Donate(assets)
}

// Keys returns every pool key that has ever received a deposit or
// donation, for callers that need to sum balances across the whole
// ledger (e.g. core/weight's TotalDelegateStake).
func (d *Delegation[K]) Keys() []K {
	keys := make([]K, 0, len(d.pools))
	for k := range d.pools {
		keys = append(keys, k)
	}
	return keys
}

func fixedAdd(a, b *uint256.Int) *uint256.Int { return new(uint256.Int).Add(a, b) }
func fixedSub(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) < 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(a, b)
}
