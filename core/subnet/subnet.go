// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package subnet implements subnet registration, activation, pausing, and
// removal (spec.md §4.F), plus the election-slot assignment described in
// spec.md §2 and §3.
package subnet

import (
	"github.com/holiman/uint256"

	"github.com/hypercore-net/hypercore/ids"
)

// State is a subnet's lifecycle state (spec.md §3).
type State uint8

const (
	StateRegistered State = iota
	StateActive
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "Registered"
	case StateActive:
		return "Active"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// RemovalReason records why a subnet left the registry, matching the
// typed reasons enumerated in spec.md §4.F.
type RemovalReason uint8

const (
	RemovalMaxPenalties RemovalReason = iota
	RemovalEnactmentPeriod
	RemovalMinSubnetNodes
	RemovalMinSubnetDelegateStake
	RemovalMaxSubnets
	RemovalPauseExpired
	RemovalOwner
	RemovalCouncil
)

func (r RemovalReason) String() string {
	switch r {
	case RemovalMaxPenalties:
		return "MaxPenalties"
	case RemovalEnactmentPeriod:
		return "EnactmentPeriod"
	case RemovalMinSubnetNodes:
		return "MinSubnetNodes"
	case RemovalMinSubnetDelegateStake:
		return "MinSubnetDelegateStake"
	case RemovalMaxSubnets:
		return "MaxSubnets"
	case RemovalPauseExpired:
		return "PauseExpired"
	case RemovalOwner:
		return "Owner"
	case RemovalCouncil:
		return "Council"
	default:
		return "Unknown"
	}
}

// Subnet is the per-subnet record held by the registry.
type Subnet struct {
	ID          ids.SubnetID
	Name        string
	Repo        string
	Description string
	Misc        string
	State       State
	StartEpoch  ids.SubnetEpoch

	// Slot is this subnet's assigned election slot in [2, L).
	Slot uint64

	// PenaltyCount tracks epoch_preliminaries' removal-threshold counter
	// (spec.md §4.F "Auto-force-unpause/removal").
	PenaltyCount uint32

	// PreviousPauseEpoch is set by Unpause to the epoch of the unpause;
	// Pause is refused until SubnetPauseCooldownEpochs have passed since it.
	PreviousPauseEpoch ids.SubnetEpoch

	// LastRegistrationEpoch feeds the registration-cost decay curve.
	LastRegistrationEpoch ids.SubnetEpoch

	// TotalDelegateStake mirrors TotalSubnetDelegateStakeBalance for the
	// min-delegate-stake and lowest-stake-pruning checks; the scheduler
	// copies the subnet's delegate-pool balance from core/stake into it at
	// block 0 of every epoch, before epoch_preliminaries' checks.
	TotalDelegateStake *uint256.Int
}

func (s *Subnet) clone() *Subnet {
	cp := *s
	cp.TotalDelegateStake = s.TotalDelegateStake.Clone()
	return &cp
}
