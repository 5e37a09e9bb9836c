package runtime

import (
	"context"
	"sync"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry/metrics"
)

// PanicMetrics counts recovered panics through a MetricsFactory.
type PanicMetrics struct {
	factory *metrics.MetricsFactory
	logger  Logger
}

var panicRecoveredMetric = metrics.Metric{
	Name:        constant.MetricPanicRecoveredTotal,
	Unit:        "1",
	Description: "Total number of recovered panics",
}

var (
	panicMetricsInstance *PanicMetrics
	panicMetricsMu       sync.RWMutex
)

// InitPanicMetrics installs the process-wide panic counter. Later calls are no-ops.
func InitPanicMetrics(factory *metrics.MetricsFactory, logger Logger) {
	panicMetricsMu.Lock()
	defer panicMetricsMu.Unlock()

	if factory == nil || panicMetricsInstance != nil {
		return
	}

	panicMetricsInstance = &PanicMetrics{factory: factory, logger: logger}
}

// GetPanicMetrics returns the installed instance, or nil.
func GetPanicMetrics() *PanicMetrics {
	panicMetricsMu.RLock()
	defer panicMetricsMu.RUnlock()

	return panicMetricsInstance
}

// ResetPanicMetrics clears the installed instance. Intended for tests.
func ResetPanicMetrics() {
	panicMetricsMu.Lock()
	defer panicMetricsMu.Unlock()

	panicMetricsInstance = nil
}

// RecordPanicRecovered increments panic_recovered_total.
func (pm *PanicMetrics) RecordPanicRecovered(ctx context.Context, component, goroutineName string) {
	if pm == nil || pm.factory == nil {
		return
	}

	counter, err := pm.factory.Counter(panicRecoveredMetric)
	if err == nil {
		err = counter.WithLabels(map[string]string{
			"component":      constant.SanitizeMetricLabel(component),
			"goroutine_name": constant.SanitizeMetricLabel(goroutineName),
		}).AddOne(ctx)
	}

	if err != nil && pm.logger != nil {
		pm.logger.Log(ctx, log.LevelWarn, "failed to record panic metric", log.Err(err))
	}
}

func recordPanicMetric(ctx context.Context, component, goroutineName string) {
	GetPanicMetrics().RecordPanicRecovered(ctx, component, goroutineName)
}
