// Package telemetry publishes propagator activity: otel counters for steps,
// rejections and events, and an InfluxDB sink for sampled states.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "epicycle/sim"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Counters count integrator steps, rejected steps and applied events. A nil
// *Counters discards everything.
type Counters struct {
	steps    metric.Int64Counter
	rejected metric.Int64Counter
	events   metric.Int64Counter
	attrs    metric.MeasurementOption
}

// NewCounters registers the counters on m, or on the global meter provider
// when m is nil.
func NewCounters(m metric.Meter, integrator string) (*Counters, error) {
	if m == nil {
		m = meter()
	}
	c := &Counters{attrs: metric.WithAttributes(attribute.String("integrator", integrator))}

	var err error
	c.steps, err = m.Int64Counter(
		"epicycle.sim.steps",
		metric.WithDescription("Accepted integrator steps"),
	)
	if err != nil {
		return nil, fmt.Errorf("steps counter: %w", err)
	}
	c.rejected, err = m.Int64Counter(
		"epicycle.sim.rejected",
		metric.WithDescription("Steps rejected by the step-size controller"),
	)
	if err != nil {
		return nil, fmt.Errorf("rejected counter: %w", err)
	}
	c.events, err = m.Int64Counter(
		"epicycle.sim.events",
		metric.WithDescription("Discrete events applied to the composite"),
	)
	if err != nil {
		return nil, fmt.Errorf("events counter: %w", err)
	}
	return c, nil
}

func (c *Counters) Steps(ctx context.Context, n int) {
	if c == nil || n == 0 {
		return
	}
	c.steps.Add(ctx, int64(n), c.attrs)
}

func (c *Counters) Rejected(ctx context.Context, n int) {
	if c == nil || n == 0 {
		return
	}
	c.rejected.Add(ctx, int64(n), c.attrs)
}

func (c *Counters) Events(ctx context.Context, n int) {
	if c == nil || n == 0 {
		return
	}
	c.events.Add(ctx, int64(n), c.attrs)
}
