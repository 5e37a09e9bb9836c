package http

import (
	"github.com/LerianStudio/lib-transactor/transactor"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryMiddleware opens a server span per request.
type TelemetryMiddleware struct {
	Telemetry *opentelemetry.Telemetry
}

// NewTelemetryMiddleware creates a new instance of TelemetryMiddleware.
func NewTelemetryMiddleware(tl *opentelemetry.Telemetry) *TelemetryMiddleware {
	return &TelemetryMiddleware{Telemetry: tl}
}

// WithTelemetry starts a span continuing any incoming trace context and stores
// the tracer and metrics factory in the user context. Requests to
// excludedRoutes are passed through untouched.
func (tm *TelemetryMiddleware) WithTelemetry(excludedRoutes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tm == nil || tm.Telemetry == nil {
			return c.Next()
		}

		for _, route := range excludedRoutes {
			if c.Path() == route {
				return c.Next()
			}
		}

		setRequestHeaderID(c)

		_, _, reqID, _ := transactor.NewTrackingFromContext(c.UserContext())

		c.SetUserContext(transactor.ContextWithSpanAttributes(c.UserContext(),
			attribute.String("app.request.request_id", reqID),
		))

		tracer := tm.Telemetry.Tracer()

		ctx, span := tracer.Start(opentelemetry.ExtractHTTPContext(c), c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", c.Route().Path),
			attribute.String("http.scheme", c.Protocol()),
			attribute.String("http.user_agent", c.Get("User-Agent")),
		)

		ctx = transactor.ContextWithTracer(ctx, tracer)
		ctx = transactor.ContextWithMetricFactory(ctx, tm.Telemetry.MetricsFactory)

		c.SetUserContext(ctx)

		err := c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Response().StatusCode()))

		return err
	}
}
