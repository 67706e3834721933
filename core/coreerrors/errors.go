// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coreerrors collects the error kinds from spec.md §7 that are not
// already colocated with their owning component (core/sharepool,
// core/unbonding and core/stake define the share-pool, unbonding-ledger
// and stake-balance errors that are only ever raised by their own logic;
// the commit-reveal errors live here, below), matching the
// teacher's own convention of declaring sentinel errors next to the
// executor code that raises them — see vms/platformvm/txs/executor's
// per-file `var (Err... = errors.New(...))` blocks).
package coreerrors

import "errors"

// Validation errors.
var (
	ErrInvalidSubnetID               = errors.New("invalid subnet id")
	ErrInvalidPercent                = errors.New("invalid percent")
	ErrInvalidValues                 = errors.New("invalid values")
	ErrInvalidMaxSubnets              = errors.New("invalid max subnets")
	ErrInvalidMinSubnetNodes          = errors.New("invalid min subnet nodes")
	ErrInvalidMaxSubnetNodes          = errors.New("invalid max subnet nodes")
	ErrInvalidChurnLimit              = errors.New("invalid churn limit")
	ErrInvalidRegistrationQueueEpochs = errors.New("invalid registration queue epochs")
	ErrInvalidSubnetRegistrationEpochs = errors.New("invalid subnet registration epochs")
	ErrInvalidMinSubnetRegistrationEpochs = errors.New("invalid min subnet registration epochs")
	ErrSubnetNameExist                = errors.New("subnet name exists")
	ErrSubnetRepoExist                = errors.New("subnet repo exists")
	ErrPeerIDExist                    = errors.New("peer id exists")
	ErrNotKeyOwner                    = errors.New("not key owner")
	ErrNotSubnetOwner                 = errors.New("not subnet owner")
	ErrNoPendingSubnetOwner           = errors.New("no pending subnet owner")
	ErrNotPendingSubnetOwner          = errors.New("not pending subnet owner")
	ErrInvalidAccess                  = errors.New("invalid access")
	ErrTooManyBootnodes               = errors.New("too many bootnodes")
	ErrColdkeyMatchesHotkey           = errors.New("coldkey matches hotkey")
	ErrHotkeyHasOwner                 = errors.New("hotkey has owner")
	ErrColdkeyNotOverwatchQualified   = errors.New("coldkey not overwatch qualified")
	ErrColdkeyBlacklisted             = errors.New("coldkey blacklisted")
)

// State errors.
var (
	ErrSubnetActivatedAlready  = errors.New("subnet activated already")
	ErrSubnetInitializing      = errors.New("subnet initializing")
	ErrSubnetMustBeActive      = errors.New("subnet must be active")
	ErrSubnetMustBePaused      = errors.New("subnet must be paused")
	ErrSubnetMustBeRegistering = errors.New("subnet must be registering")
	ErrSubnetPauseCooldownActive = errors.New("subnet pause cooldown active")
	ErrMinActiveNodeStakeEpochs  = errors.New("minimum active node stake epochs not elapsed")
	ErrEmergencyValidatorsSet    = errors.New("emergency validators set")
	ErrNoAvailableSlots          = errors.New("no available slots")
	ErrSubnetNodeNotExist        = errors.New("subnet node does not exist")
	ErrMaxSubnetNodes            = errors.New("max subnet nodes reached")
)

// Commit-reveal errors.
var (
	ErrNotCommitPeriod = errors.New("not commit period")
	ErrNotRevealPeriod = errors.New("not reveal period")
	ErrCommitsEmpty    = errors.New("commits empty")
	ErrAlreadyCommitted = errors.New("already committed")
	ErrNoCommitFound    = errors.New("no commit found")
	ErrRevealMismatch   = errors.New("reveal mismatch")
)

// Governance errors.
var (
	ErrTxRateLimitExceeded = errors.New("tx rate limit exceeded")
	ErrBadOrigin           = errors.New("bad origin")
)

// Consensus submission errors.
var (
	ErrNotElectedValidator = errors.New("not elected validator")
	ErrAlreadySubmitted    = errors.New("consensus submission already exists")
	ErrNoSubmission        = errors.New("no consensus submission")
	ErrNodeNotInSnapshot   = errors.New("node not in consensus snapshot")
	ErrAlreadyAttested     = errors.New("node already attested")
)
