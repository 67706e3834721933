// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package subnet

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/core/coreerrors"
	"github.com/hypercore-net/hypercore/ids"
)

// Registry owns every subnet's lifecycle state, the name/repo uniqueness
// indexes, owner/pending-owner maps, and election-slot assignment
// (spec.md §3, §4.F).
type Registry struct {
	epochLength uint64

	subnets map[ids.SubnetID]*Subnet
	names   map[string]ids.SubnetID
	repos   map[string]ids.SubnetID

	owners        map[ids.SubnetID]ids.Coldkey
	pendingOwners map[ids.SubnetID]ids.Coldkey

	slots *SlotAllocator

	nextSubnetID           uint64
	lastRegistrationEpoch  ids.SubnetEpoch
	registrationGateIsOpen bool
}

// NewRegistry constructs an empty subnet registry over epochs of length
// epochLength blocks.
func NewRegistry(epochLength uint64) *Registry {
	return &Registry{
		epochLength:   epochLength,
		subnets:       make(map[ids.SubnetID]*Subnet),
		names:         make(map[string]ids.SubnetID),
		repos:         make(map[string]ids.SubnetID),
		owners:        make(map[ids.SubnetID]ids.Coldkey),
		pendingOwners: make(map[ids.SubnetID]ids.Coldkey),
		slots:         NewSlotAllocator(epochLength),
	}
}

// Get returns subnetID's record, or nil if it does not exist.
func (r *Registry) Get(subnetID ids.SubnetID) *Subnet {
	return r.subnets[subnetID]
}

// IDs returns every registered subnet ID in no particular order, for
// callers that need to enumerate the registry (CLI/RPC listing).
func (r *Registry) IDs() []ids.SubnetID {
	out := make([]ids.SubnetID, 0, len(r.subnets))
	for id := range r.subnets {
		out = append(out, id)
	}
	return out
}

// BySlot returns the subnet occupying election slot s, if any — the
// inverse of the subnet_id ↔ slot bijection spec.md §3 names as
// SubnetSlot, letting the scheduler find which subnet (if any) owns the
// current block's emission_step.
func (r *Registry) BySlot(s uint64) (*Subnet, bool) {
	for _, sn := range r.subnets {
		if sn.Slot == s {
			return sn, true
		}
	}
	return nil, false
}

// Owner returns subnetID's current owner coldkey.
func (r *Registry) Owner(subnetID ids.SubnetID) (ids.Coldkey, bool) {
	ck, ok := r.owners[subnetID]
	return ck, ok
}

// NextRegistrationEpoch is the earliest epoch at which a new subnet may
// be registered: the protocol allows at most one registration per epoch
// globally, so that RegistrationCost's concave decay (measured in
// epochs since the last registration) always has at least one full
// epoch to move before the next caller can observe it.
func (r *Registry) NextRegistrationEpoch() ids.SubnetEpoch {
	if !r.registrationGateIsOpen {
		return 0
	}
	return r.lastRegistrationEpoch + 1
}

// Register creates a new subnet in the Registered state. currentEpoch
// must be >= NextRegistrationEpoch(); cost is returned for the caller to
// burn into treasury (fund movement is an external-collaborator concern,
// spec.md §1).
func (r *Registry) Register(
	name, repo, description, misc string,
	owner ids.Coldkey,
	currentEpoch ids.SubnetEpoch,
	minCost, maxCost *uint256.Int,
	registrationCostDecayEpochs uint64,
	alpha *uint256.Int,
) (*Subnet, *uint256.Int, error) {
	if r.registrationGateIsOpen && currentEpoch < r.NextRegistrationEpoch() {
		return nil, nil, coreerrors.ErrInvalidValues
	}
	if _, exists := r.names[name]; exists {
		return nil, nil, coreerrors.ErrSubnetNameExist
	}
	if _, exists := r.repos[repo]; exists {
		return nil, nil, coreerrors.ErrSubnetRepoExist
	}

	var elapsed uint64
	if r.registrationGateIsOpen {
		elapsed = uint64(currentEpoch - r.lastRegistrationEpoch)
	} else {
		elapsed = registrationCostDecayEpochs // first-ever registration pays Min
	}
	cost := RegistrationCost(minCost, maxCost, elapsed, registrationCostDecayEpochs, alpha)

	slot, err := r.slots.Assign()
	if err != nil {
		return nil, nil, err
	}

	id := ids.SubnetID(r.nextSubnetID)
	r.nextSubnetID++

	sn := &Subnet{
		ID:                    id,
		Name:                  name,
		Repo:                  repo,
		Description:           description,
		Misc:                  misc,
		State:                 StateRegistered,
		StartEpoch:            currentEpoch,
		Slot:                  slot,
		LastRegistrationEpoch: currentEpoch,
		TotalDelegateStake:    uint256.NewInt(0),
	}
	r.subnets[id] = sn
	r.names[name] = id
	r.repos[repo] = id
	r.owners[id] = owner

	r.lastRegistrationEpoch = currentEpoch
	r.registrationGateIsOpen = true

	return sn, cost, nil
}

// ActivationCheck is the set of facts the caller must gather (from
// core/node and core/stake) to evaluate activate_subnet's gating
// conditions without core/subnet importing either package.
type ActivationCheck struct {
	TotalActiveNodes   uint32
	MinSubnetNodes     uint32
	MinSubnetDelegateStake *uint256.Int
}

// Activate attempts to move subnetID from Registered to Active. Per
// spec.md §4.F, success requires all of: minimum node count, minimum
// delegate stake, and falling within
// [SubnetRegistrationEpochs, +SubnetActivationEnactmentEpochs] of
// registration. On failure the subnet is removed with the specific
// typed reason that failed, and that reason is returned alongside the
// error.
func (r *Registry) Activate(
	subnetID ids.SubnetID,
	owner ids.Coldkey,
	currentEpoch ids.SubnetEpoch,
	registrationEpochs, enactmentEpochs uint64,
	check ActivationCheck,
) (RemovalReason, error) {
	sn := r.subnets[subnetID]
	if sn == nil {
		return 0, coreerrors.ErrInvalidSubnetID
	}
	if r.owners[subnetID] != owner {
		return 0, coreerrors.ErrNotSubnetOwner
	}
	if sn.State != StateRegistered {
		return 0, coreerrors.ErrSubnetMustBeRegistering
	}

	windowStart := sn.StartEpoch + ids.SubnetEpoch(registrationEpochs)
	windowEnd := windowStart + ids.SubnetEpoch(enactmentEpochs)
	if currentEpoch < windowStart || currentEpoch > windowEnd {
		r.removeLocked(subnetID, RemovalEnactmentPeriod)
		return RemovalEnactmentPeriod, coreerrors.ErrSubnetMustBeActive
	}
	if check.TotalActiveNodes < check.MinSubnetNodes {
		r.removeLocked(subnetID, RemovalMinSubnetNodes)
		return RemovalMinSubnetNodes, coreerrors.ErrSubnetMustBeActive
	}
	if sn.TotalDelegateStake.Cmp(check.MinSubnetDelegateStake) < 0 {
		r.removeLocked(subnetID, RemovalMinSubnetDelegateStake)
		return RemovalMinSubnetDelegateStake, coreerrors.ErrSubnetMustBeActive
	}

	sn.State = StateActive
	return 0, nil
}

// Pause transitions subnetID from Active to Paused. Respects
// PreviousSubnetPauseEpoch + SubnetPauseCooldownEpochs, matching
// do_owner_pause_subnet.
func (r *Registry) Pause(
	subnetID ids.SubnetID,
	owner ids.Coldkey,
	currentEpoch ids.SubnetEpoch,
	pauseCooldownEpochs uint64,
) error {
	sn := r.subnets[subnetID]
	if sn == nil {
		return coreerrors.ErrInvalidSubnetID
	}
	if r.owners[subnetID] != owner {
		return coreerrors.ErrNotSubnetOwner
	}
	if sn.State != StateActive {
		return coreerrors.ErrSubnetMustBeActive
	}
	if sn.PreviousPauseEpoch+ids.SubnetEpoch(pauseCooldownEpochs) > currentEpoch {
		return coreerrors.ErrSubnetPauseCooldownActive
	}

	sn.State = StatePaused
	sn.StartEpoch = currentEpoch
	return nil
}

// Unpause transitions subnetID back to Active. It returns delta, the
// number of epochs queued-node start_epochs must be shifted forward by
// (do_owner_unpause_subnet: "delta = current_epoch - pause_epoch + 1");
// the caller applies that shift to core/node's registration queue, since
// core/subnet does not own node state.
func (r *Registry) Unpause(
	subnetID ids.SubnetID,
	owner ids.Coldkey,
	currentEpoch ids.SubnetEpoch,
) (delta ids.SubnetEpoch, err error) {
	sn := r.subnets[subnetID]
	if sn == nil {
		return 0, coreerrors.ErrInvalidSubnetID
	}
	if r.owners[subnetID] != owner {
		return 0, coreerrors.ErrNotSubnetOwner
	}
	if sn.State != StatePaused {
		return 0, coreerrors.ErrSubnetMustBePaused
	}

	pauseEpoch := sn.StartEpoch
	delta = currentEpoch - pauseEpoch + 1

	sn.State = StateActive
	sn.StartEpoch = currentEpoch + 1
	r.subnets[subnetID].PreviousPauseEpoch = currentEpoch

	return delta, nil
}

// CheckPauseExpiry implements the auto-force-unpause/removal sweep from
// epoch_preliminaries: if paused_for exceeds maxPauseEpochs, bump the
// subnet's penalty count and remove it once that exceeds
// maxPenaltyCount.
func (r *Registry) CheckPauseExpiry(
	subnetID ids.SubnetID,
	currentEpoch ids.SubnetEpoch,
	maxPauseEpochs uint64,
	maxPenaltyCount uint32,
) (removed bool, reason RemovalReason) {
	sn := r.subnets[subnetID]
	if sn == nil || sn.State != StatePaused {
		return false, 0
	}
	pausedFor := currentEpoch - sn.StartEpoch
	if uint64(pausedFor) <= maxPauseEpochs {
		return false, 0
	}

	sn.PenaltyCount++
	if sn.PenaltyCount > maxPenaltyCount {
		r.removeLocked(subnetID, RemovalPauseExpired)
		return true, RemovalPauseExpired
	}
	return false, 0
}

// Remove deletes subnetID from the registry with the given reason,
// freeing its name, repo, and slot. Exported for owner-initiated and
// council-initiated removal paths (do_owner_deactivate_subnet and its
// governance equivalent).
func (r *Registry) Remove(subnetID ids.SubnetID, reason RemovalReason) error {
	if r.subnets[subnetID] == nil {
		return coreerrors.ErrInvalidSubnetID
	}
	r.removeLocked(subnetID, reason)
	return nil
}

func (r *Registry) removeLocked(subnetID ids.SubnetID, _ RemovalReason) {
	sn := r.subnets[subnetID]
	if sn == nil {
		return
	}
	r.slots.Free(sn.Slot)
	delete(r.names, sn.Name)
	delete(r.repos, sn.Repo)
	delete(r.subnets, subnetID)
	delete(r.owners, subnetID)
	delete(r.pendingOwners, subnetID)
}

// TransferOwnership begins the two-step ownership handoff
// (do_transfer_subnet_ownership): only the current owner may call it,
// and the new owner must separately accept.
func (r *Registry) TransferOwnership(subnetID ids.SubnetID, caller, newOwner ids.Coldkey) error {
	if r.subnets[subnetID] == nil {
		return coreerrors.ErrInvalidSubnetID
	}
	if r.owners[subnetID] != caller {
		return coreerrors.ErrNotSubnetOwner
	}
	r.pendingOwners[subnetID] = newOwner
	return nil
}

// AcceptOwnership completes the two-step transfer
// (do_accept_subnet_ownership): caller must be the pending owner.
func (r *Registry) AcceptOwnership(subnetID ids.SubnetID, caller ids.Coldkey) error {
	if r.subnets[subnetID] == nil {
		return coreerrors.ErrInvalidSubnetID
	}
	pending, ok := r.pendingOwners[subnetID]
	if !ok {
		return coreerrors.ErrNoPendingSubnetOwner
	}
	if pending != caller {
		return coreerrors.ErrNotPendingSubnetOwner
	}
	r.owners[subnetID] = caller
	delete(r.pendingOwners, subnetID)
	return nil
}

// EpochPreliminaries runs the block-0-of-epoch sweep named in spec.md
// §4.M: min-node and min-delegate-stake checks for Active subnets, then
// excess-subnet pruning (removing the lowest-delegate-stake subnet once
// count exceeds maxSubnets).
func (r *Registry) EpochPreliminaries(
	minSubnetNodes uint32,
	activeNodeCounts map[ids.SubnetID]uint32,
	minSubnetDelegateStake *uint256.Int,
	maxSubnets uint32,
) []ids.SubnetID {
	var removed []ids.SubnetID
	for id, sn := range r.subnets {
		if sn.State != StateActive {
			continue
		}
		if activeNodeCounts[id] < minSubnetNodes {
			r.removeLocked(id, RemovalMinSubnetNodes)
			removed = append(removed, id)
			continue
		}
		if sn.TotalDelegateStake.Cmp(minSubnetDelegateStake) < 0 {
			r.removeLocked(id, RemovalMinSubnetDelegateStake)
			removed = append(removed, id)
		}
	}

	for uint32(len(r.subnets)) > maxSubnets {
		lowest := r.lowestDelegateStakeSubnet()
		if lowest == nil {
			break
		}
		r.removeLocked(lowest.ID, RemovalMaxSubnets)
		removed = append(removed, lowest.ID)
	}

	return removed
}

// ActiveEligible returns the ids of every Active subnet whose start_epoch
// has arrived by currentEpoch, the population the weight engine (spec.md
// §4.J step 4) runs over.
func (r *Registry) ActiveEligible(currentEpoch ids.SubnetEpoch) []ids.SubnetID {
	var out []ids.SubnetID
	for id, sn := range r.subnets {
		if sn.State == StateActive && sn.StartEpoch <= currentEpoch {
			out = append(out, id)
		}
	}
	return out
}

// BumpPenalty increments subnetID's penalty count (reward pipeline step
// 1: "bump SubnetPenaltyCount" on an attestation-ratio gate failure),
// removing the subnet once the count exceeds maxPenaltyCount. It reports
// whether the subnet was removed.
func (r *Registry) BumpPenalty(subnetID ids.SubnetID, maxPenaltyCount uint32) (bool, error) {
	sn := r.subnets[subnetID]
	if sn == nil {
		return false, coreerrors.ErrInvalidSubnetID
	}
	sn.PenaltyCount++
	if sn.PenaltyCount > maxPenaltyCount {
		r.removeLocked(subnetID, RemovalMaxPenalties)
		return true, nil
	}
	return false, nil
}

// RelievePenalty decrements subnetID's penalty count by one (reward
// pipeline step 3: "If SubnetPenaltyCount > 0 and active nodes ≥
// MinSubnetNodes, decrement by 1").
func (r *Registry) RelievePenalty(subnetID ids.SubnetID, activeNodes, minSubnetNodes uint32) error {
	sn := r.subnets[subnetID]
	if sn == nil {
		return coreerrors.ErrInvalidSubnetID
	}
	if sn.PenaltyCount > 0 && activeNodes >= minSubnetNodes {
		sn.PenaltyCount--
	}
	return nil
}

func (r *Registry) lowestDelegateStakeSubnet() *Subnet {
	var lowest *Subnet
	for _, sn := range r.subnets {
		if lowest == nil || sn.TotalDelegateStake.Cmp(lowest.TotalDelegateStake) < 0 {
			lowest = sn
		}
	}
	return lowest
}
