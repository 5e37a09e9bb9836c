package http

import (
	"context"
	"errors"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// Ping returns HTTP Status 200 with response "pong".
func Ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// Version returns HTTP Status 200 with given version.
func Version(c *fiber.Ctx) error {
	return OK(c, fiber.Map{
		"version":     transactor.GetenvOrDefault("VERSION", "0.0.0"),
		"requestDate": time.Now().UTC(),
	})
}

// FiberErrorHandler is the error handler installed on every app built by NewRouter.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	opentelemetry.HandleSpanError(trace.SpanFromContext(ctx), "handler error", err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return RenderError(c, ErrorResponse{
			Code:    fe.Code,
			Title:   constant.DefaultErrorTitle,
			Message: fe.Message,
		})
	}

	logger := transactor.NewLoggerFromContext(ctx)
	logger.Log(ctx, log.LevelError,
		"handler error",
		log.String("method", c.Method()),
		log.String("path", c.Path()),
		log.Err(err),
	)

	return RenderError(c, err)
}
