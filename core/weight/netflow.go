// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package weight

import (
	"math/big"

	"github.com/hypercore-net/hypercore/ids"
)

// NetFlowLedger accrues signed token movement into/out of each subnet's
// pools between weight runs (spec.md §3's SubnetNetFlow, an i128 "running
// since the previous weight computation"). Registration deposits are
// intentionally never recorded here (spec.md §4.J step 2).
type NetFlowLedger struct {
	flows map[ids.SubnetID]*big.Int
}

// NewNetFlowLedger constructs an empty net-flow ledger.
func NewNetFlowLedger() *NetFlowLedger {
	return &NetFlowLedger{flows: make(map[ids.SubnetID]*big.Int)}
}

// RecordInflow adds amount to subnetID's running net flow.
func (l *NetFlowLedger) RecordInflow(subnetID ids.SubnetID, amount *big.Int) {
	l.adjust(subnetID, amount)
}

// RecordOutflow subtracts amount from subnetID's running net flow.
func (l *NetFlowLedger) RecordOutflow(subnetID ids.SubnetID, amount *big.Int) {
	l.adjust(subnetID, new(big.Int).Neg(amount))
}

func (l *NetFlowLedger) adjust(subnetID ids.SubnetID, delta *big.Int) {
	cur, ok := l.flows[subnetID]
	if !ok {
		cur = new(big.Int)
	}
	l.flows[subnetID] = new(big.Int).Add(cur, delta)
}

// TakeAll returns every subnet's accumulated net flow and clears the
// ledger, the "take-and-clear" read spec.md §4.J step 2 requires.
func (l *NetFlowLedger) TakeAll() map[ids.SubnetID]*big.Int {
	taken := l.flows
	l.flows = make(map[ids.SubnetID]*big.Int)
	return taken
}
