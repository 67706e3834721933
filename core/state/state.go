// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state aggregates every map spec.md §3 names into a single
// in-memory Store, the way the teacher's vms/platformvm/state package
// aggregates stakers/chains/UTXOs into one State — except this Store owns
// its collaborators directly rather than a versioned on-disk layer,
// since persistence itself is an external collaborator (see external/)
// rather than something core/ decides.
package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/consensus"
	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/core/identity"
	"github.com/hypercore-net/hypercore/core/node"
	"github.com/hypercore-net/hypercore/core/overwatch"
	"github.com/hypercore-net/hypercore/core/scheduler"
	"github.com/hypercore-net/hypercore/core/stake"
	"github.com/hypercore-net/hypercore/core/subnet"
	"github.com/hypercore-net/hypercore/core/unbonding"
	"github.com/hypercore-net/hypercore/core/weight"
	"github.com/hypercore-net/hypercore/ids"
	"github.com/hypercore-net/hypercore/internal/config"
	"github.com/hypercore-net/hypercore/internal/log"
	"github.com/hypercore-net/hypercore/internal/telemetry"
)

// Store owns one instance of every component registry plus the
// governance parameter table, wired together the way core/scheduler's
// Deps expects. It is the thing a chain-integration layer (external/)
// constructs once and drives one block at a time.
type Store struct {
	Subnets     *subnet.Registry
	Nodes       *node.Manager
	Identity    *identity.Registry
	Stake       *stake.AccountLedger
	NodePools   *stake.NodeDelegatePools
	SubnetPools *stake.SubnetDelegatePools
	Consensus   *consensus.Registry
	Overwatch   *overwatch.Registry
	Ballots     *overwatch.Ballots
	NetFlows    *weight.NetFlowLedger
	Config      *config.Store

	// Unbonding is StakeUnbondingLedger(coldkey) from spec.md §3,
	// lazily created per coldkey by UnbondingLedger.
	Unbonding map[ids.Coldkey]*unbonding.Ledger

	Scheduler *scheduler.Scheduler

	// EpochEmissionSchedule is forwarded to scheduler.Deps on every Tick;
	// see scheduler.Deps for why this is caller-supplied rather than
	// computed here.
	EpochEmissionSchedule func(epoch ids.Epoch) *uint256.Int
}

// New constructs a Store over defaultGlobal, with decimalOffset applied
// to both delegate-stake pool families (core/stake's MIN_LIQUIDITY
// inflation-attack guard, spec.md §4.D.1).
func New(logger log.Logger, metrics *telemetry.SchedulerMetrics, defaultGlobal config.Global, decimalOffset uint, weightBudget uint64) *Store {
	return &Store{
		Subnets:     subnet.NewRegistry(defaultGlobal.EpochLength),
		Nodes:       node.NewManager(),
		Identity:    identity.NewRegistry(),
		Stake:       stake.NewAccountLedger(),
		NodePools:   stake.NewNodeDelegatePools(decimalOffset),
		SubnetPools: stake.NewSubnetDelegatePools(decimalOffset),
		Consensus:   consensus.NewRegistry(),
		Overwatch:   overwatch.NewRegistry(),
		Ballots:     overwatch.NewBallots(),
		NetFlows:    weight.NewNetFlowLedger(),
		Config:      config.NewStore(defaultGlobal),
		Unbonding:   make(map[ids.Coldkey]*unbonding.Ledger),
		Scheduler:   scheduler.New(logger, metrics, weightBudget),
	}
}

// UnbondingLedger returns (creating if necessary) coldkey's unbonding
// ledger, bounded by the current MaxUnbondings governance parameter.
func (s *Store) UnbondingLedger(coldkey ids.Coldkey) *unbonding.Ledger {
	l, ok := s.Unbonding[coldkey]
	if !ok {
		l = unbonding.NewLedger(s.Config.Global.MaxUnbondings)
		s.Unbonding[coldkey] = l
	}
	return l
}

// RemoveStake implements remove_stake (spec.md §4.D.1): resolves
// whether hotkey currently owns an active node in subnetID, then
// enforces the min-active-node-epochs and min-remaining-balance gates
// before debiting the account's stake and crediting its owning
// coldkey's unbonding ledger.
func (s *Store) RemoveStake(
	hotkey ids.Hotkey, subnetID ids.SubnetID,
	amount *uint256.Int, currentBlock ids.Block, currentEpoch ids.SubnetEpoch,
) error {
	coldkey, ok := s.Identity.Owner(hotkey)
	if !ok {
		return coreerrors.ErrNotKeyOwner
	}

	var nodeActive bool
	var nodeStartEpoch ids.SubnetEpoch
	if n, ok := s.Nodes.NodeByHotkey(subnetID, hotkey); ok {
		nodeActive = s.Nodes.IsActive(subnetID, n.ID)
		nodeStartEpoch = n.Classification.StartEpoch
	}

	global := s.Config.Global
	subnetParams := s.Config.Subnet(subnetID)

	return s.Stake.RemoveStake(
		hotkey, subnetID, amount,
		nodeActive, nodeStartEpoch, currentEpoch,
		global.MinActiveNodeStakeEpochs,
		subnetParams.SubnetMinStakeBalance,
		s.UnbondingLedger(coldkey),
		currentBlock, global.StakeCooldownEpochs, global.EpochLength,
	)
}

// RemoveDelegateStake implements remove_delegate_stake (spec.md
// §4.D.2): burns coldkey's shares in subnetID's delegate-stake pool and
// credits the released assets to coldkey's unbonding ledger.
func (s *Store) RemoveDelegateStake(
	coldkey ids.Coldkey, subnetID ids.SubnetID, shares *uint256.Int, currentBlock ids.Block,
) (*uint256.Int, error) {
	global := s.Config.Global
	return s.SubnetPools.RemoveAndUnbond(
		coldkey, subnetID, shares, s.UnbondingLedger(coldkey),
		currentBlock, global.DelegateStakeCooldownEpochs, global.EpochLength,
	)
}

// RemoveNodeDelegateStake implements remove_node_delegate_stake
// (spec.md §4.D.2): the node-delegate-pool analog of RemoveDelegateStake.
func (s *Store) RemoveNodeDelegateStake(
	coldkey ids.Coldkey, subnetID ids.SubnetID, nodeID ids.NodeID, shares *uint256.Int, currentBlock ids.Block,
) (*uint256.Int, error) {
	global := s.Config.Global
	key := stake.SubnetNodeKey{SubnetID: subnetID, NodeID: nodeID}
	return s.NodePools.RemoveAndUnbond(
		coldkey, key, shares, s.UnbondingLedger(coldkey),
		currentBlock, global.NodeDelegateStakeCooldownEpochs, global.EpochLength,
	)
}

// ClaimUnbondings implements claim_unbondings (spec.md §6): releases
// every entry in coldkey's unbonding ledger whose release block has
// arrived, returning the total released amount for the caller to credit
// back to coldkey's spendable balance.
func (s *Store) ClaimUnbondings(coldkey ids.Coldkey, currentBlock ids.Block) (*uint256.Int, error) {
	return s.UnbondingLedger(coldkey).Claim(currentBlock)
}

// Tick drives one block through the scheduler, wiring this Store's
// collaborators into scheduler.Deps so callers never have to restate the
// wiring themselves.
func (s *Store) Tick(ctx context.Context, currentBlock ids.Block, seed common.Hash) (scheduler.Report, error) {
	return s.Scheduler.Tick(ctx, currentBlock, seed, scheduler.Deps{
		Subnets:               s.Subnets,
		Nodes:                 s.Nodes,
		Identity:              s.Identity,
		Stake:                 s.Stake,
		NodePools:             s.NodePools,
		SubnetPools:           s.SubnetPools,
		Consensus:             s.Consensus,
		Overwatch:             s.Overwatch,
		Ballots:               s.Ballots,
		NetFlows:              s.NetFlows,
		Config:                s.Config,
		EpochEmissionSchedule: s.EpochEmissionSchedule,
	})
}
