package rpc

import (
	"context"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"github.com/LerianStudio/lib-transactor/transactor/runtime"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const recoverComponent = "grpc"

type logMiddleware struct {
	Logger log.Logger
}

// LogMiddlewareOption configures WithGrpcLogging.
type LogMiddlewareOption func(l *logMiddleware)

// WithCustomLogger sets the logger access entries are written to.
func WithCustomLogger(logger log.Logger) LogMiddlewareOption {
	return func(l *logMiddleware) {
		if logger != nil {
			l.Logger = logger
		}
	}
}

// WithGrpcLogging assigns a request id from the metadata_id metadata key, or a
// fresh UUID, and logs one line per call.
func WithGrpcLogging(opts ...LogMiddlewareOption) grpc.UnaryServerInterceptor {
	mid := &logMiddleware{Logger: log.NewNop()}
	for _, opt := range opts {
		opt(mid)
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = setGRPCRequestHeaderID(ctx)

		_, _, reqID, _ := transactor.NewTrackingFromContext(ctx)

		logger := mid.Logger.With(log.String(constant.HeaderID, reqID))
		ctx = transactor.ContextWithLogger(ctx, logger)

		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []log.Field{
			log.String("method", info.FullMethod),
			log.String("code", status.Code(err).String()),
			log.String("duration", time.Since(start).String()),
		}
		if err != nil {
			fields = append(fields, log.Err(err))
		}

		logger.Log(ctx, log.LevelInfo, "gRPC request finished", fields...)

		return resp, err
	}
}

// WithRecovery turns a handler panic into codes.Internal.
func WithRecovery() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				runtime.HandlePanicValue(ctx, transactor.NewLoggerFromContext(ctx), r, recoverComponent, info.FullMethod)

				resp, err = nil, status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

// WithTelemetryInterceptor starts a server span per call, continuing the trace
// context found in the incoming metadata.
func WithTelemetryInterceptor(tl *opentelemetry.Telemetry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if tl == nil || tl.TracerProvider == nil {
			return handler(ctx, req)
		}

		_, _, reqID, _ := transactor.NewTrackingFromContext(ctx)

		ctx = transactor.ContextWithSpanAttributes(ctx,
			attribute.String("app.request.request_id", reqID),
			attribute.String("grpc.method", info.FullMethod),
		)

		tracer := tl.Tracer()

		ctx, span := tracer.Start(opentelemetry.ExtractGRPCContext(ctx), info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ctx = transactor.ContextWithTracer(ctx, tracer)
		ctx = transactor.ContextWithMetricFactory(ctx, tl.MetricsFactory)

		resp, err := handler(ctx, req)
		if err != nil {
			opentelemetry.HandleSpanError(span, "gRPC call failed", err)
		}

		span.SetAttributes(attribute.Int("grpc.status_code", int(status.Code(err))))

		return resp, err
	}
}

func setGRPCRequestHeaderID(ctx context.Context) context.Context {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		headerID := md.Get(constant.MetadataID)
		if len(headerID) > 0 && !transactor.IsNilOrEmpty(&headerID[0]) {
			return transactor.ContextWithHeaderID(ctx, headerID[0])
		}
	}

	return transactor.ContextWithHeaderID(ctx, uuid.New().String())
}
