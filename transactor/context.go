package transactor

import (
	"context"
	"strings"

	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type customContextKey string

// CustomContextKey is the context key holding *CustomContextKeyValue.
var CustomContextKey = customContextKey("custom_context")

const defaultTracerName = "transactor.default"

// CustomContextKeyValue bundles the request-scoped facilities carried in a context.
type CustomContextKeyValue struct {
	HeaderID      string
	Tracer        trace.Tracer
	Logger        log.Logger
	MetricFactory *metrics.MetricsFactory

	// AttrBag is applied to every span started under this context.
	AttrBag []attribute.KeyValue
}

// values returns a copy of the bundle in ctx so parent contexts are never mutated.
func values(ctx context.Context) *CustomContextKeyValue {
	current, _ := ctx.Value(CustomContextKey).(*CustomContextKeyValue)
	if current == nil {
		return &CustomContextKeyValue{}
	}

	clone := *current
	clone.AttrBag = append([]attribute.KeyValue(nil), current.AttrBag...)

	return &clone
}

// ContextWithLogger returns a child context carrying logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	v := values(ctx)
	v.Logger = logger

	return context.WithValue(ctx, CustomContextKey, v)
}

// NewLoggerFromContext returns the logger in ctx, or a no-op logger.
//
//nolint:ireturn
func NewLoggerFromContext(ctx context.Context) log.Logger {
	if v, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && v.Logger != nil {
		return v.Logger
	}

	return log.NewNop()
}

// ContextWithTracer returns a child context carrying tracer.
func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	v := values(ctx)
	v.Tracer = tracer

	return context.WithValue(ctx, CustomContextKey, v)
}

// ContextWithMetricFactory returns a child context carrying factory.
func ContextWithMetricFactory(ctx context.Context, factory *metrics.MetricsFactory) context.Context {
	v := values(ctx)
	v.MetricFactory = factory

	return context.WithValue(ctx, CustomContextKey, v)
}

// ContextWithHeaderID returns a child context carrying the request id.
func ContextWithHeaderID(ctx context.Context, headerID string) context.Context {
	v := values(ctx)
	v.HeaderID = headerID

	return context.WithValue(ctx, CustomContextKey, v)
}

// NewTrackingFromContext returns the logger, tracer, request id and metrics
// factory in ctx. Missing parts are replaced by a no-op logger, the global
// tracer, a fresh UUID and a factory over the global meter provider.
//
//nolint:ireturn
func NewTrackingFromContext(ctx context.Context) (log.Logger, trace.Tracer, string, *metrics.MetricsFactory) {
	v, _ := ctx.Value(CustomContextKey).(*CustomContextKeyValue)
	if v == nil {
		v = &CustomContextKeyValue{}
	}

	logger := v.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	tracer := v.Tracer
	if tracer == nil {
		tracer = otel.Tracer(defaultTracerName)
	}

	headerID := strings.TrimSpace(v.HeaderID)
	if headerID == "" {
		headerID = uuid.New().String()
	}

	factory := v.MetricFactory
	if factory == nil {
		var err error

		factory, err = metrics.NewMetricsFactory(otel.GetMeterProvider().Meter(defaultTracerName), logger)
		if err != nil {
			factory = metrics.NewNopFactory()
		}
	}

	return logger, tracer, headerID, factory
}

// ContextWithSpanAttributes appends kv to the request's attribute bag.
func ContextWithSpanAttributes(ctx context.Context, kv ...attribute.KeyValue) context.Context {
	if len(kv) == 0 {
		return ctx
	}

	v := values(ctx)
	v.AttrBag = append(v.AttrBag, kv...)

	return context.WithValue(ctx, CustomContextKey, v)
}

// AttributesFromContext returns a copy of the attribute bag in ctx.
func AttributesFromContext(ctx context.Context) []attribute.KeyValue {
	v, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue)
	if !ok || v == nil || len(v.AttrBag) == 0 {
		return nil
	}

	out := make([]attribute.KeyValue, len(v.AttrBag))
	copy(out, v.AttrBag)

	return out
}
