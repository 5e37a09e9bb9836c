package metrics

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilCounter is returned when a counter builder has no instrument.
	ErrNilCounter = errors.New("counter instrument is nil")
	// ErrNilGauge is returned when a gauge builder has no instrument.
	ErrNilGauge = errors.New("gauge instrument is nil")
	// ErrNilHistogram is returned when a histogram builder has no instrument.
	ErrNilHistogram = errors.New("histogram instrument is nil")
)

func appendAttrs(base []attribute.KeyValue, extra ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(base)+len(extra))
	out = append(out, base...)

	return append(out, extra...)
}

func labelsToAttrs(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

// CounterBuilder records counter increments with a fixed attribute set.
// Every With* call returns a new builder; the receiver is never mutated.
type CounterBuilder struct {
	counter metric.Int64Counter
	name    string
	attrs   []attribute.KeyValue
}

// WithLabels adds string labels.
func (c *CounterBuilder) WithLabels(labels map[string]string) *CounterBuilder {
	return c.WithAttributes(labelsToAttrs(labels)...)
}

// WithAttributes adds OpenTelemetry attributes.
func (c *CounterBuilder) WithAttributes(attrs ...attribute.KeyValue) *CounterBuilder {
	return &CounterBuilder{counter: c.counter, name: c.name, attrs: appendAttrs(c.attrs, attrs...)}
}

// Add records an increment of value.
func (c *CounterBuilder) Add(ctx context.Context, value int64) error {
	if c.counter == nil {
		return ErrNilCounter
	}

	c.counter.Add(ctx, value, metric.WithAttributes(c.attrs...))

	return nil
}

// AddOne increments the counter by one.
func (c *CounterBuilder) AddOne(ctx context.Context) error {
	return c.Add(ctx, 1)
}

// GaugeBuilder records instantaneous values.
type GaugeBuilder struct {
	gauge metric.Int64Gauge
	name  string
	attrs []attribute.KeyValue
}

// WithLabels adds string labels.
func (g *GaugeBuilder) WithLabels(labels map[string]string) *GaugeBuilder {
	return g.WithAttributes(labelsToAttrs(labels)...)
}

// WithAttributes adds OpenTelemetry attributes.
func (g *GaugeBuilder) WithAttributes(attrs ...attribute.KeyValue) *GaugeBuilder {
	return &GaugeBuilder{gauge: g.gauge, name: g.name, attrs: appendAttrs(g.attrs, attrs...)}
}

// Set records the current value.
func (g *GaugeBuilder) Set(ctx context.Context, value int64) error {
	if g.gauge == nil {
		return ErrNilGauge
	}

	g.gauge.Record(ctx, value, metric.WithAttributes(g.attrs...))

	return nil
}

// HistogramBuilder records distribution samples.
type HistogramBuilder struct {
	histogram metric.Int64Histogram
	name      string
	attrs     []attribute.KeyValue
}

// WithLabels adds string labels.
func (h *HistogramBuilder) WithLabels(labels map[string]string) *HistogramBuilder {
	return h.WithAttributes(labelsToAttrs(labels)...)
}

// WithAttributes adds OpenTelemetry attributes.
func (h *HistogramBuilder) WithAttributes(attrs ...attribute.KeyValue) *HistogramBuilder {
	return &HistogramBuilder{histogram: h.histogram, name: h.name, attrs: appendAttrs(h.attrs, attrs...)}
}

// Record records one sample.
func (h *HistogramBuilder) Record(ctx context.Context, value int64) error {
	if h.histogram == nil {
		return ErrNilHistogram
	}

	h.histogram.Record(ctx, value, metric.WithAttributes(h.attrs...))

	return nil
}
