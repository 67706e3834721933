// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package telemetry

import (
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// NewTracerProvider builds an always-sampling TracerProvider and installs
// it as the global provider, so core/scheduler's otel.Tracer("...") call
// resolves against a real provider instead of the package-default no-op
// one. Mirrors the teacher's snow/validators/traced_state.go pattern of
// wiring a concrete trace.Tracer into execution rather than leaving spans
// no-op, without a node process to lift the provider construction out of.
func NewTracerProvider() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	return tp
}

// Tracer returns name's tracer from the process-wide provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
