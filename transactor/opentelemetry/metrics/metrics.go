package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/LerianStudio/lib-transactor/transactor/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MetricsFactory creates OpenTelemetry instruments on first use and caches them by name.
// It is safe for concurrent use.
type MetricsFactory struct {
	meter      metric.Meter
	counters   sync.Map // string -> metric.Int64Counter
	gauges     sync.Map // string -> metric.Int64Gauge
	histograms sync.Map // string -> metric.Int64Histogram
	logger     log.Logger
}

// ErrNilMeter indicates that a nil OTEL meter was provided.
var ErrNilMeter = errors.New("metric meter cannot be nil")

// Metric describes an instrument.
type Metric struct {
	Name        string
	Description string
	Unit        string
	// Buckets are the explicit histogram boundaries; ignored for other kinds.
	Buckets []float64
}

// Instruments recorded by the ledger and the batch services.
var (
	MetricTransactionsProcessed = Metric{
		Name:        "transactions_processed",
		Unit:        "1",
		Description: "Number of operations applied to the ledger, by type and outcome.",
	}

	MetricAccountsCreated = Metric{
		Name:        "accounts_created",
		Unit:        "1",
		Description: "Number of client accounts created on first reference.",
	}

	MetricAccountsLocked = Metric{
		Name:        "accounts_locked",
		Unit:        "1",
		Description: "Number of client accounts locked by a chargeback.",
	}

	MetricLedgerAccounts = Metric{
		Name:        "ledger_accounts",
		Unit:        "1",
		Description: "Number of accounts held by a ledger after a batch.",
	}

	MetricBatchSize = Metric{
		Name:        "transaction_batch_size",
		Unit:        "1",
		Description: "Number of operations submitted in a single batch request.",
	}

	MetricBatchDuration = Metric{
		Name:        "transaction_batch_duration",
		Unit:        "ms",
		Description: "Time spent applying one batch to a fresh ledger.",
		Buckets:     DefaultLatencyBuckets,
	}
)

// Default histogram boundaries.
var (
	// DefaultLatencyBuckets in milliseconds.
	DefaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	DefaultAccountBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

	DefaultTransactionBuckets = []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000, 100000}
)

// NewMetricsFactory creates a factory over meter.
func NewMetricsFactory(meter metric.Meter, logger log.Logger) (*MetricsFactory, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	if logger == nil {
		logger = log.NewNop()
	}

	return &MetricsFactory{
		meter:  meter,
		logger: logger,
	}, nil
}

// NewNopFactory returns a factory backed by the OpenTelemetry no-op meter.
func NewNopFactory() *MetricsFactory {
	return &MetricsFactory{
		meter:  noop.NewMeterProvider().Meter("nop"),
		logger: log.NewNop(),
	}
}

// Counter creates or retrieves a counter and returns a builder for it.
func (f *MetricsFactory) Counter(m Metric) (*CounterBuilder, error) {
	counter, err := f.getOrCreateCounter(m)
	if err != nil {
		return nil, err
	}

	return &CounterBuilder{counter: counter, name: m.Name}, nil
}

// Gauge creates or retrieves a gauge and returns a builder for it.
func (f *MetricsFactory) Gauge(m Metric) (*GaugeBuilder, error) {
	gauge, err := f.getOrCreateGauge(m)
	if err != nil {
		return nil, err
	}

	return &GaugeBuilder{gauge: gauge, name: m.Name}, nil
}

// Histogram creates or retrieves a histogram and returns a builder for it.
// When m.Buckets is nil, boundaries are picked from the metric name.
func (f *MetricsFactory) Histogram(m Metric) (*HistogramBuilder, error) {
	if m.Buckets == nil {
		m.Buckets = selectDefaultBuckets(m.Name)
	}

	histogram, err := f.getOrCreateHistogram(m)
	if err != nil {
		return nil, err
	}

	return &HistogramBuilder{histogram: histogram, name: m.Name}, nil
}

func selectDefaultBuckets(name string) []float64 {
	lower := strings.ToLower(name)

	patterns := []struct {
		substr  string
		buckets []float64
	}{
		{"account", DefaultAccountBuckets},
		{"transaction", DefaultTransactionBuckets},
		{"latency", DefaultLatencyBuckets},
		{"duration", DefaultLatencyBuckets},
	}

	for _, p := range patterns {
		if strings.Contains(lower, p.substr) {
			return p.buckets
		}
	}

	return DefaultLatencyBuckets
}

func (f *MetricsFactory) getOrCreateCounter(m Metric) (metric.Int64Counter, error) {
	if cached, ok := f.counters.Load(m.Name); ok {
		return cachedAs[metric.Int64Counter](cached, "counter", m.Name)
	}

	var opts []metric.Int64CounterOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	counter, err := f.meter.Int64Counter(m.Name, opts...)
	if err != nil {
		f.logFailure("counter", m.Name, err)

		return nil, fmt.Errorf("create counter %q: %w", m.Name, err)
	}

	actual, _ := f.counters.LoadOrStore(m.Name, counter)

	return cachedAs[metric.Int64Counter](actual, "counter", m.Name)
}

func (f *MetricsFactory) getOrCreateGauge(m Metric) (metric.Int64Gauge, error) {
	if cached, ok := f.gauges.Load(m.Name); ok {
		return cachedAs[metric.Int64Gauge](cached, "gauge", m.Name)
	}

	var opts []metric.Int64GaugeOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	gauge, err := f.meter.Int64Gauge(m.Name, opts...)
	if err != nil {
		f.logFailure("gauge", m.Name, err)

		return nil, fmt.Errorf("create gauge %q: %w", m.Name, err)
	}

	actual, _ := f.gauges.LoadOrStore(m.Name, gauge)

	return cachedAs[metric.Int64Gauge](actual, "gauge", m.Name)
}

// Histograms are keyed by name and boundaries so differing bucket configs never collide.
func (f *MetricsFactory) getOrCreateHistogram(m Metric) (metric.Int64Histogram, error) {
	key := histogramCacheKey(m.Name, m.Buckets)

	if cached, ok := f.histograms.Load(key); ok {
		return cachedAs[metric.Int64Histogram](cached, "histogram", key)
	}

	var opts []metric.Int64HistogramOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	if m.Buckets != nil {
		opts = append(opts, metric.WithExplicitBucketBoundaries(m.Buckets...))
	}

	histogram, err := f.meter.Int64Histogram(m.Name, opts...)
	if err != nil {
		f.logFailure("histogram", m.Name, err)

		return nil, fmt.Errorf("create histogram %q: %w", m.Name, err)
	}

	actual, _ := f.histograms.LoadOrStore(key, histogram)

	return cachedAs[metric.Int64Histogram](actual, "histogram", key)
}

func (f *MetricsFactory) logFailure(kind, name string, err error) {
	f.logger.Log(context.Background(), log.LevelError, "failed to create "+kind+" metric",
		log.String("metric_name", name), log.Err(err))
}

func cachedAs[T any](value any, kind, key string) (T, error) {
	instrument, ok := value.(T)
	if !ok {
		var zero T

		return zero, fmt.Errorf("%s cache contains invalid type for %q", kind, key)
	}

	return instrument, nil
}

func histogramCacheKey(name string, buckets []float64) string {
	if len(buckets) == 0 {
		return name
	}

	sorted := make([]float64, len(buckets))
	copy(sorted, buckets)
	sort.Float64s(sorted)

	parts := make([]string, len(sorted))
	for i, b := range sorted {
		parts[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}

	return name + ":" + strings.Join(parts, ",")
}
