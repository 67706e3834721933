// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

// WeightMeter is the per-block budget named in spec.md §5: "All per-block
// work is wrapped in a weight meter; if budget exhausts mid-queue, the
// loop stops but never leaves an inconsistent state." Costs are abstract
// units, not wall-clock time, mirroring the Weight::from_parts(...) cost
// annotations in the original pallet's emission_step/handle_registration_queue.
type WeightMeter struct {
	budget   uint64
	consumed uint64
}

// NewWeightMeter constructs a meter with the given budget for one block.
func NewWeightMeter(budget uint64) *WeightMeter {
	return &WeightMeter{budget: budget}
}

// CanConsume reports whether cost more units can be spent without
// exceeding budget.
func (m *WeightMeter) CanConsume(cost uint64) bool {
	return m.consumed+cost <= m.budget
}

// Consume charges cost against the meter regardless of remaining budget;
// callers must check CanConsume first for units that must not partially
// apply.
func (m *WeightMeter) Consume(cost uint64) {
	m.consumed += cost
}

// Remaining reports the unspent budget.
func (m *WeightMeter) Remaining() uint64 {
	if m.consumed >= m.budget {
		return 0
	}
	return m.budget - m.consumed
}

// Weight costs for the units of work a Tick performs, named the way the
// original pallet names its Weight::from_parts(...) constants. These are
// engineering estimates, not a metered gas schedule spec.md defines.
const (
	costSubnetPreliminarySweep = uint64(50)
	costConsensusPrecheck      = uint64(80)
	costRewardDistribute       = uint64(300)
	costElection               = uint64(40)
	costQueueBase              = uint64(2_000)
	costQueuePerNode           = uint64(2_000)
	costBurnRateUpdate         = uint64(10)
)

// DefaultBlockWeightBudget is the per-block budget a Scheduler uses when
// the caller does not configure one explicitly.
const DefaultBlockWeightBudget = uint64(50_000)
