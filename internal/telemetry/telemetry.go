// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package telemetry holds the scheduler's rolling averages over
// gonum/stat and the prometheus gauges that expose scheduler state. The
// mean of a subnet's churn-utilization RollingWindow is the observed
// signal core/scheduler feeds into its burn-rate EMA (converted to PF
// units first; the EMA update itself is fixed-point arithmetic). The
// prometheus collectors only mirror already-computed values for
// operators, the way the teacher's vms/platformvm/metrics package mirrors
// validator-set state into gauges without feeding back into consensus.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"
)

// RollingWindow keeps the last capacity float64 observations of a signal
// and reports their gonum-computed mean; core/scheduler keeps one per
// subnet for churn utilization.
type RollingWindow struct {
	capacity int
	samples  []float64
}

// NewRollingWindow constructs a window holding at most capacity samples.
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &RollingWindow{capacity: capacity}
}

// Observe appends v, evicting the oldest sample once capacity is exceeded.
func (w *RollingWindow) Observe(v float64) {
	w.samples = append(w.samples, v)
	if len(w.samples) > w.capacity {
		w.samples = w.samples[len(w.samples)-w.capacity:]
	}
}

// Mean returns the unweighted mean of the retained samples, or 0 if empty.
func (w *RollingWindow) Mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return stat.Mean(w.samples, nil)
}

// SchedulerMetrics are the per-block/per-epoch gauges and counters a
// Scheduler run exposes, mirroring the teacher's
// vms/platformvm/metrics.Metrics shape (a small interface-free struct of
// prometheus collectors built once at startup).
type SchedulerMetrics struct {
	EpochsProcessed   prometheus.Counter
	EmissionStepsRun  prometheus.Counter
	SubnetsRemoved    prometheus.Counter
	NodesActivated    prometheus.Counter
	BurnRate          *prometheus.GaugeVec
	ChurnUtilization  *prometheus.GaugeVec
	WeightMeterBudget prometheus.Gauge
}

// NewSchedulerMetrics registers namespace-prefixed collectors against
// registerer.
func NewSchedulerMetrics(namespace string, registerer prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		EpochsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "epochs_processed_total",
			Help:      "Number of block-0 epoch_preliminaries sweeps run.",
		}),
		EmissionStepsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emission_steps_total",
			Help:      "Number of per-subnet emission_step invocations run.",
		}),
		SubnetsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subnets_removed_total",
			Help:      "Number of subnets removed by epoch_preliminaries or penalty thresholds.",
		}),
		NodesActivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_activated_total",
			Help:      "Number of nodes activated out of a subnet's registration queue.",
		}),
		BurnRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_burn_rate",
			Help:      "Current NodeBurnRate EMA per subnet, in PF units.",
		}, []string{"subnet_id"}),
		ChurnUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "churn_utilization",
			Help:      "Fraction of a subnet's churn budget consumed in its last emission_step.",
		}, []string{"subnet_id"}),
		WeightMeterBudget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weight_meter_budget_remaining",
			Help:      "Remaining per-block weight-meter budget after the last Tick.",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.EpochsProcessed,
			m.EmissionStepsRun,
			m.SubnetsRemoved,
			m.NodesActivated,
			m.BurnRate,
			m.ChurnUtilization,
			m.WeightMeterBudget,
		)
	}

	return m
}
