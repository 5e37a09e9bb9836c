// Command transactord serves the batch processor over HTTP and gRPC.
//
// Configuration is read from the environment:
//
//	ENV_NAME                              logger profile and deployment name (default local)
//	LOG_LEVEL                             error, warn, info or debug
//	SERVER_ADDRESS                        HTTP listen address (default :8080)
//	GRPC_ADDRESS                          gRPC listen address (default :50051)
//	OTEL_LIBRARY_NAME                     instrumentation scope (default transactor)
//	OTEL_RESOURCE_SERVICE_NAME            service.name resource attribute
//	OTEL_RESOURCE_SERVICE_VERSION         service.version resource attribute
//	OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT  deployment.environment.name resource attribute
//	OTEL_EXPORTER_OTLP_ENDPOINT           OTLP gRPC collector endpoint
//	ENABLE_TELEMETRY                      export traces, metrics and logs (default false)
//	MAX_BATCH_SIZE                        operations accepted per request (default 100000)
//	SHUTDOWN_TIMEOUT_SECONDS              graceful shutdown bound (default 30)
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	httpx "github.com/LerianStudio/lib-transactor/transactor/net/http"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"github.com/LerianStudio/lib-transactor/transactor/rpc"
	"github.com/LerianStudio/lib-transactor/transactor/runtime"
	"github.com/LerianStudio/lib-transactor/transactor/server"
	tzap "github.com/LerianStudio/lib-transactor/transactor/zap"
	"google.golang.org/grpc"
)

// Config is the daemon configuration loaded from the environment.
type Config struct {
	EnvName                string `env:"ENV_NAME" default:"local"`
	LogLevel               string `env:"LOG_LEVEL"`
	ServerAddress          string `env:"SERVER_ADDRESS" default:":8080"`
	GRPCAddress            string `env:"GRPC_ADDRESS" default:":50051"`
	OtelLibraryName        string `env:"OTEL_LIBRARY_NAME" default:"transactor"`
	OtelServiceName        string `env:"OTEL_RESOURCE_SERVICE_NAME" default:"transactord"`
	OtelServiceVersion     string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv      string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
	OtelCollectorEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTelemetry        bool   `env:"ENABLE_TELEMETRY"`
	MaxBatchSize           int    `env:"MAX_BATCH_SIZE" default:"100000"`
	ShutdownTimeoutSeconds int    `env:"SHUTDOWN_TIMEOUT_SECONDS" default:"30"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "transactord: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	env := transactor.InitLocalEnvConfig()

	cfg := &Config{}
	if err := transactor.SetConfigFromEnvVars(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := tzap.New(tzap.Config{
		Environment:     tzap.ParseEnvironment(cfg.EnvName),
		Level:           cfg.LogLevel,
		OTelLibraryName: cfg.OtelLibraryName,
	})
	if err != nil {
		return err
	}

	runtime.SetProductionMode(tzap.ParseEnvironment(cfg.EnvName) == tzap.EnvironmentProduction)

	serviceVersion := cfg.OtelServiceVersion
	if serviceVersion == "" {
		serviceVersion = env.Version
	}

	deploymentEnv := cfg.OtelDeploymentEnv
	if deploymentEnv == "" {
		deploymentEnv = env.EnvName
	}

	tl, err := opentelemetry.InitializeTelemetryWithError(&opentelemetry.TelemetryConfig{
		LibraryName:               cfg.OtelLibraryName,
		ServiceName:               cfg.OtelServiceName,
		ServiceVersion:            serviceVersion,
		DeploymentEnv:             deploymentEnv,
		CollectorExporterEndpoint: cfg.OtelCollectorEndpoint,
		EnableTelemetry:           cfg.EnableTelemetry,
		Logger:                    logger,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	runtime.InitPanicMetrics(tl.MetricsFactory, logger)

	app := httpx.NewRouter(httpx.RouterConfig{
		Logger:       logger,
		Telemetry:    tl,
		MaxBatchSize: cfg.MaxBatchSize,
	})

	grpcServer := rpc.NewServer(rpc.ServerConfig{
		Logger:       logger,
		Interceptors: []grpc.UnaryServerInterceptor{rpc.WithTelemetryInterceptor(tl)},
		MaxBatchSize: cfg.MaxBatchSize,
	})

	logger.Log(context.Background(), log.LevelInfo, "starting transactord",
		log.String("http_address", cfg.ServerAddress),
		log.String("grpc_address", cfg.GRPCAddress),
		log.Int("max_batch_size", cfg.MaxBatchSize))

	return server.NewServerManager(tl, logger).
		WithHTTPServer(app, cfg.ServerAddress).
		WithGRPCServer(grpcServer, cfg.GRPCAddress).
		WithShutdownTimeout(time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second).
		StartWithGracefulShutdownWithError()
}
