package opentelemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/LerianStudio/lib-transactor/transactor/log"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry/metrics"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

var (
	// ErrNilTelemetryConfig indicates that nil config was provided to InitializeTelemetryWithError
	ErrNilTelemetryConfig = errors.New("telemetry config cannot be nil")
	// ErrNilTelemetryLogger indicates that config.Logger is nil
	ErrNilTelemetryLogger = errors.New("telemetry config logger cannot be nil")
)

// TelemetryConfig describes where and how telemetry is exported.
type TelemetryConfig struct {
	LibraryName               string
	ServiceName               string
	ServiceVersion            string
	DeploymentEnv             string
	CollectorExporterEndpoint string
	EnableTelemetry           bool
	Logger                    log.Logger
}

// Telemetry holds the initialized providers and the metrics factory built on them.
type Telemetry struct {
	TelemetryConfig
	TracerProvider *sdktrace.TracerProvider
	MetricProvider *sdkmetric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	MetricsFactory *metrics.MetricsFactory
	shutdown       func(context.Context) error
}

func (tl *TelemetryConfig) newResource() *sdkresource.Resource {
	return sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(tl.ServiceName),
		semconv.ServiceVersion(tl.ServiceVersion),
		semconv.DeploymentEnvironmentName(tl.DeploymentEnv),
		semconv.TelemetrySDKName(constant.TelemetrySDKName),
		semconv.TelemetrySDKLanguageGo,
	)
}

func (tl *TelemetryConfig) newLoggerExporter(ctx context.Context) (*otlploggrpc.Exporter, error) {
	return otlploggrpc.New(ctx, otlploggrpc.WithEndpoint(tl.CollectorExporterEndpoint), otlploggrpc.WithInsecure())
}

func (tl *TelemetryConfig) newMetricExporter(ctx context.Context) (*otlpmetricgrpc.Exporter, error) {
	return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(tl.CollectorExporterEndpoint), otlpmetricgrpc.WithInsecure())
}

func (tl *TelemetryConfig) newTracerExporter(ctx context.Context) (*otlptrace.Exporter, error) {
	return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(tl.CollectorExporterEndpoint), otlptracegrpc.WithInsecure())
}

func (tl *TelemetryConfig) newLoggerProvider(rsc *sdkresource.Resource, exp *otlploggrpc.Exporter) *sdklog.LoggerProvider {
	return sdklog.NewLoggerProvider(sdklog.WithResource(rsc), sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)))
}

func (tl *TelemetryConfig) newMeterProvider(rsc *sdkresource.Resource, exp *otlpmetricgrpc.Exporter) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(rsc),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
	)
}

func (tl *TelemetryConfig) newTracerProvider(rsc *sdkresource.Resource, exp *otlptrace.Exporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsc),
		sdktrace.WithSpanProcessor(AttrBagSpanProcessor{}),
	)
}

// Tracer returns a tracer named after the configured library.
//
//nolint:ireturn
func (tl *Telemetry) Tracer() trace.Tracer {
	return tl.TracerProvider.Tracer(tl.LibraryName)
}

// ShutdownTelemetry flushes and stops every provider and exporter.
func (tl *Telemetry) ShutdownTelemetry(ctx context.Context) error {
	if tl == nil || tl.shutdown == nil {
		return nil
	}

	return tl.shutdown(ctx)
}

// InitializeTelemetryWithError builds the telemetry providers. With telemetry
// enabled they export over OTLP gRPC and are installed as the global providers
// together with the W3C trace context and baggage propagators.
func InitializeTelemetryWithError(cfg *TelemetryConfig) (*Telemetry, error) {
	if cfg == nil {
		return nil, ErrNilTelemetryConfig
	}

	if cfg.Logger == nil {
		return nil, ErrNilTelemetryLogger
	}

	ctx := context.Background()
	l := cfg.Logger

	if !cfg.EnableTelemetry {
		l.Log(ctx, log.LevelWarn, "telemetry turned off")

		mp := sdkmetric.NewMeterProvider()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(AttrBagSpanProcessor{}))
		lp := sdklog.NewLoggerProvider()

		factory, err := metrics.NewMetricsFactory(mp.Meter(cfg.LibraryName), l)
		if err != nil {
			return nil, fmt.Errorf("can't initialize metrics factory: %w", err)
		}

		return &Telemetry{
			TelemetryConfig: *cfg,
			TracerProvider:  tp,
			MetricProvider:  mp,
			LoggerProvider:  lp,
			MetricsFactory:  factory,
			shutdown: func(ctx context.Context) error {
				return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx), lp.Shutdown(ctx))
			},
		}, nil
	}

	l.Log(ctx, log.LevelInfo, "initializing telemetry", log.String("endpoint", cfg.CollectorExporterEndpoint))

	r := cfg.newResource()

	tExp, err := cfg.newTracerExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't initialize tracer exporter: %w", err)
	}

	mExp, err := cfg.newMetricExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't initialize metric exporter: %w", err)
	}

	lExp, err := cfg.newLoggerExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't initialize logger exporter: %w", err)
	}

	mp := cfg.newMeterProvider(r, mExp)
	otel.SetMeterProvider(mp)

	factory, err := metrics.NewMetricsFactory(mp.Meter(cfg.LibraryName), l)
	if err != nil {
		return nil, fmt.Errorf("can't initialize metrics factory: %w", err)
	}

	tp := cfg.newTracerProvider(r, tExp)
	otel.SetTracerProvider(tp)

	lp := cfg.newLoggerProvider(r, lExp)
	global.SetLoggerProvider(lp)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	shutdown := func(ctx context.Context) error {
		var errs []error

		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("can't shutdown metric provider: %w", err))
		}

		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("can't shutdown tracer provider: %w", err))
		}

		if err := lp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("can't shutdown logger provider: %w", err))
		}

		return errors.Join(errs...)
	}

	l.Log(ctx, log.LevelInfo, "telemetry initialized")

	return &Telemetry{
		TelemetryConfig: *cfg,
		TracerProvider:  tp,
		MetricProvider:  mp,
		LoggerProvider:  lp,
		MetricsFactory:  factory,
		shutdown:        shutdown,
	}, nil
}

// HandleSpanBusinessErrorEvent adds a business error event to the span.
func HandleSpanBusinessErrorEvent(span trace.Span, eventName string, err error) {
	if span != nil && err != nil {
		span.AddEvent(eventName, trace.WithAttributes(attribute.String("error", err.Error())))
	}
}

// HandleSpanEvent adds an event to the span.
func HandleSpanEvent(span trace.Span, eventName string, attributes ...attribute.KeyValue) {
	if span != nil {
		span.AddEvent(eventName, trace.WithAttributes(attributes...))
	}
}

// HandleSpanError sets the status of the span to error and records the error.
func HandleSpanError(span trace.Span, message string, err error) {
	if span != nil && err != nil {
		span.SetStatus(codes.Error, message+": "+err.Error())
		span.RecordError(err)
	}
}

// ExtractHTTPContext extracts trace context from the headers of a Fiber request.
func ExtractHTTPContext(c *fiber.Ctx) context.Context {
	carrier := propagation.HeaderCarrier{}

	c.Request().Header.VisitAll(func(key, value []byte) {
		carrier.Set(string(key), string(value))
	})

	return otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)
}

// InjectGRPCContext injects trace context into outgoing gRPC metadata using
// the lowercase W3C keys gRPC requires.
func InjectGRPCContext(ctx context.Context) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	if md == nil {
		md = metadata.New(nil)
	} else {
		md = md.Copy()
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(md))

	if values, ok := md["Traceparent"]; ok && len(values) > 0 {
		md[constant.MetadataTraceparent] = values
		delete(md, "Traceparent")
	}

	if values, ok := md["Tracestate"]; ok && len(values) > 0 {
		md[constant.MetadataTracestate] = values
		delete(md, "Tracestate")
	}

	return metadata.NewOutgoingContext(ctx, md)
}

// ExtractGRPCContext extracts trace context from incoming gRPC metadata.
func ExtractGRPCContext(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok || md == nil {
		return ctx
	}

	mdCopy := md.Copy()

	if values, exists := mdCopy[constant.MetadataTraceparent]; exists && len(values) > 0 {
		mdCopy["Traceparent"] = values
		delete(mdCopy, constant.MetadataTraceparent)
	}

	if values, exists := mdCopy[constant.MetadataTracestate]; exists && len(values) > 0 {
		mdCopy["Tracestate"] = values
		delete(mdCopy, constant.MetadataTracestate)
	}

	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(mdCopy))
}

// GetTraceIDFromContext returns the trace id of the active span, or "".
func GetTraceIDFromContext(ctx context.Context) string {
	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return ""
	}

	return spanContext.TraceID().String()
}
