package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"github.com/LerianStudio/lib-transactor/transactor/runtime"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
)

const component = "server"

// ErrNoServersConfigured indicates no servers were configured for the manager
var ErrNoServersConfigured = errors.New("no servers configured: use WithHTTPServer() or WithGRPCServer()")

// DefaultShutdownTimeout bounds gRPC GracefulStop and telemetry flushing.
const DefaultShutdownTimeout = 30 * time.Second

// ServerManager starts the configured servers and shuts them down gracefully.
type ServerManager struct {
	httpServer         *fiber.App
	grpcServer         *grpc.Server
	telemetry          *opentelemetry.Telemetry
	logger             log.Logger
	httpAddress        string
	grpcAddress        string
	grpcListener       net.Listener
	serversStarted     chan struct{}
	serversStartedOnce sync.Once
	shutdownChan       <-chan struct{}
	shutdownOnce       sync.Once
	shutdownTimeout    time.Duration
	startupErrors      chan error
}

// NewServerManager creates a manager. A nil logger is replaced by a no-op one.
func NewServerManager(telemetry *opentelemetry.Telemetry, logger log.Logger) *ServerManager {
	if logger == nil {
		logger = log.NewNop()
	}

	return &ServerManager{
		telemetry:       telemetry,
		logger:          logger,
		serversStarted:  make(chan struct{}),
		shutdownTimeout: DefaultShutdownTimeout,
		startupErrors:   make(chan error, 2),
	}
}

// WithHTTPServer configures the HTTP server for the ServerManager.
func (sm *ServerManager) WithHTTPServer(app *fiber.App, address string) *ServerManager {
	sm.httpServer = app
	sm.httpAddress = address

	return sm
}

// WithGRPCServer configures the gRPC server for the ServerManager.
func (sm *ServerManager) WithGRPCServer(server *grpc.Server, address string) *ServerManager {
	sm.grpcServer = server
	sm.grpcAddress = address

	return sm
}

// WithGRPCListener serves gRPC on an existing listener instead of dialing GRPC_ADDRESS.
func (sm *ServerManager) WithGRPCListener(lis net.Listener) *ServerManager {
	sm.grpcListener = lis

	return sm
}

// WithShutdownChannel makes the manager stop when ch is closed instead of on an OS signal.
func (sm *ServerManager) WithShutdownChannel(ch <-chan struct{}) *ServerManager {
	sm.shutdownChan = ch

	return sm
}

// WithShutdownTimeout sets how long gRPC GracefulStop may take before a hard stop.
func (sm *ServerManager) WithShutdownTimeout(d time.Duration) *ServerManager {
	if d > 0 {
		sm.shutdownTimeout = d
	}

	return sm
}

// ServersStarted is closed once the server goroutines have been launched.
// Sockets may not be bound yet.
func (sm *ServerManager) ServersStarted() <-chan struct{} {
	return sm.serversStarted
}

// StartWithGracefulShutdownWithError starts the servers and blocks until a
// signal, the shutdown channel or a startup failure, then shuts everything
// down. The startup failure, if any, is returned.
func (sm *ServerManager) StartWithGracefulShutdownWithError() error {
	if sm.httpServer == nil && sm.grpcServer == nil {
		return ErrNoServersConfigured
	}

	sm.startServers()

	return sm.handleShutdown()
}

func (sm *ServerManager) startServers() {
	ctx := context.Background()

	if sm.httpServer != nil {
		runtime.SafeGoWithContextAndComponent(ctx, sm.logger, component, "start_http_server", runtime.KeepRunning,
			func(ctx context.Context) {
				sm.logger.Log(ctx, log.LevelInfo, "starting HTTP server", log.String("address", sm.httpAddress))

				if err := sm.httpServer.Listen(sm.httpAddress); err != nil {
					sm.reportStartup(ctx, fmt.Errorf("HTTP server: %w", err))
				}
			})
	}

	if sm.grpcServer != nil {
		runtime.SafeGoWithContextAndComponent(ctx, sm.logger, component, "start_grpc_server", runtime.KeepRunning,
			func(ctx context.Context) {
				lis := sm.grpcListener
				if lis == nil {
					var err error

					lis, err = net.Listen("tcp", sm.grpcAddress)
					if err != nil {
						sm.reportStartup(ctx, fmt.Errorf("gRPC listen: %w", err))
						return
					}
				}

				sm.logger.Log(ctx, log.LevelInfo, "starting gRPC server", log.String("address", lis.Addr().String()))

				if err := sm.grpcServer.Serve(lis); err != nil {
					sm.reportStartup(ctx, fmt.Errorf("gRPC serve: %w", err))
				}
			})
	}

	sm.serversStartedOnce.Do(func() {
		close(sm.serversStarted)
	})
}

func (sm *ServerManager) reportStartup(ctx context.Context, err error) {
	sm.logger.Log(ctx, log.LevelError, "server failed", log.Err(err))

	select {
	case sm.startupErrors <- err:
	default:
	}
}

func (sm *ServerManager) handleShutdown() error {
	var startupErr error

	if sm.shutdownChan != nil {
		select {
		case <-sm.shutdownChan:
		case startupErr = <-sm.startupErrors:
		}
	} else {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		select {
		case <-c:
		case startupErr = <-sm.startupErrors:
		}

		signal.Stop(c)
	}

	sm.logger.Log(context.Background(), log.LevelInfo, "gracefully shutting down all servers")

	sm.executeShutdown()

	return startupErr
}

// executeShutdown stops HTTP, then telemetry, then gRPC, then syncs the logger.
// Only the first call has any effect.
func (sm *ServerManager) executeShutdown() {
	sm.shutdownOnce.Do(func() {
		ctx := context.Background()

		if sm.httpServer != nil {
			sm.logger.Log(ctx, log.LevelInfo, "shutting down HTTP server")

			if err := sm.httpServer.ShutdownWithTimeout(sm.shutdownTimeout); err != nil {
				sm.logger.Log(ctx, log.LevelError, "HTTP server shutdown failed", log.Err(err))
			}
		}

		if sm.telemetry != nil {
			sm.logger.Log(ctx, log.LevelInfo, "shutting down telemetry")

			tctx, cancel := context.WithTimeout(ctx, sm.shutdownTimeout)
			if err := sm.telemetry.ShutdownTelemetry(tctx); err != nil {
				sm.logger.Log(ctx, log.LevelError, "telemetry shutdown failed", log.Err(err))
			}

			cancel()
		}

		if sm.grpcServer != nil {
			sm.logger.Log(ctx, log.LevelInfo, "shutting down gRPC server")

			done := make(chan struct{})

			go func() {
				sm.grpcServer.GracefulStop()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(sm.shutdownTimeout):
				sm.logger.Log(ctx, log.LevelWarn, "gRPC graceful stop timed out, forcing stop")
				sm.grpcServer.Stop()
			}
		}

		sm.logger.Log(ctx, log.LevelInfo, "graceful shutdown completed")

		if err := sm.logger.Sync(ctx); err != nil {
			sm.logger.Log(ctx, log.LevelError, "failed to sync logger", log.Err(err))
		}
	})
}
