package http

import (
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"github.com/gofiber/fiber/v2"
)

// RouterConfig holds what NewRouter wires into the app.
type RouterConfig struct {
	Logger       log.Logger
	Telemetry    *opentelemetry.Telemetry
	MaxBatchSize int
	// BodyLimit caps the request body in bytes. Zero keeps Fiber's default.
	BodyLimit int
}

// NewRouter builds the Fiber app serving the batch, health and version routes.
func NewRouter(cfg RouterConfig) *fiber.App {
	fiberCfg := fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          FiberErrorHandler,
	}

	if cfg.BodyLimit > 0 {
		fiberCfg.BodyLimit = cfg.BodyLimit
	}

	app := fiber.New(fiberCfg)

	tlMid := NewTelemetryMiddleware(cfg.Telemetry)

	app.Use(WithHTTPLogging(WithCustomLogger(cfg.Logger)))
	app.Use(tlMid.WithTelemetry("/health", "/version"))
	app.Use(WithRecover())

	app.Get("/health", Ping)
	app.Get("/version", Version)

	handler := &TransactionHandler{MaxBatchSize: cfg.MaxBatchSize}

	v1 := app.Group("/v1")
	v1.Post("/transactions/process", handler.Process)

	return app
}
