package server_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"github.com/LerianStudio/lib-transactor/transactor/rpc"
	"github.com/LerianStudio/lib-transactor/transactor/server"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// recordingLogger records messages and can return a Sync error.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
	syncErr  error
}

func (l *recordingLogger) Log(_ context.Context, _ log.Level, msg string, _ ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) With(_ ...log.Field) log.Logger { return l }
func (l *recordingLogger) WithGroup(_ string) log.Logger  { return l }
func (l *recordingLogger) Enabled(_ log.Level) bool       { return true }
func (l *recordingLogger) Sync(_ context.Context) error   { return l.syncErr }

func (l *recordingLogger) getMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{DisableStartupMessage: true})
}

func run(t *testing.T, sm *server.ServerManager) <-chan error {
	t.Helper()

	done := make(chan error, 1)

	go func() {
		done <- sm.StartWithGracefulShutdownWithError()
	}()

	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the server manager to return")
		return nil
	}
}

func TestStartWithGracefulShutdownWithError_NoServers(t *testing.T) {
	t.Parallel()

	err := server.NewServerManager(nil, nil).StartWithGracefulShutdownWithError()
	assert.ErrorIs(t, err, server.ErrNoServersConfigured)
}

func TestServerManagerChaining(t *testing.T) {
	t.Parallel()

	sm1 := server.NewServerManager(nil, nil).WithHTTPServer(newApp(), ":0")
	sm2 := sm1.WithGRPCServer(grpc.NewServer(), ":0").WithShutdownTimeout(time.Second)

	assert.Same(t, sm1, sm2)
}

func TestStartWithGracefulShutdownWithError_BothServers(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	shutdown := make(chan struct{})

	tl, err := opentelemetry.InitializeTelemetryWithError(&opentelemetry.TelemetryConfig{
		LibraryName: "transactor-test",
		Logger:      log.NewNop(),
	})
	require.NoError(t, err)

	sm := server.NewServerManager(tl, logger).
		WithHTTPServer(newApp(), "127.0.0.1:0").
		WithGRPCServer(grpc.NewServer(), "127.0.0.1:0").
		WithShutdownChannel(shutdown)

	done := run(t, sm)

	select {
	case <-sm.ServersStarted():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for servers to start")
	}

	close(shutdown)

	require.NoError(t, wait(t, done))

	messages := logger.getMessages()

	order := []string{
		"shutting down HTTP server",
		"shutting down telemetry",
		"shutting down gRPC server",
		"graceful shutdown completed",
	}

	last := -1

	for _, want := range order {
		idx := -1

		for i, msg := range messages {
			if msg == want {
				idx = i
				break
			}
		}

		require.NotEqual(t, -1, idx, "missing %q", want)
		assert.Greater(t, idx, last, "%q out of order", want)

		last = idx
	}
}

func TestStartWithGracefulShutdownWithError_HTTPStartupError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	sm := server.NewServerManager(nil, nil).WithHTTPServer(newApp(), ln.Addr().String())

	err = wait(t, run(t, sm))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server")
}

func TestStartWithGracefulShutdownWithError_GRPCListenError(t *testing.T) {
	t.Parallel()

	sm := server.NewServerManager(nil, nil).WithGRPCServer(grpc.NewServer(), "invalid-address")

	err := wait(t, run(t, sm))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gRPC listen")
}

func TestSyncErrorIsLogged(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{syncErr: errors.New("sync failed")}
	shutdown := make(chan struct{})

	sm := server.NewServerManager(nil, logger).
		WithHTTPServer(newApp(), "127.0.0.1:0").
		WithShutdownChannel(shutdown)

	done := run(t, sm)
	<-sm.ServersStarted()
	close(shutdown)

	require.NoError(t, wait(t, done))
	assert.Contains(t, logger.getMessages(), "failed to sync logger")
}

func TestServesProcessorOverListener(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(1 << 20)
	shutdown := make(chan struct{})

	sm := server.NewServerManager(nil, nil).
		WithGRPCServer(rpc.NewServer(rpc.ServerConfig{}), "bufconn").
		WithGRPCListener(lis).
		WithShutdownChannel(shutdown)

	done := run(t, sm)
	<-sm.ServersStarted()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	got, err := rpc.NewClient(conn).Process(context.Background(), &rpc.Transactions{
		Transactions: []rpc.Transaction{{Type: 0, Client: 3, Tx: 1, Amount: "4.2"}},
	})
	require.NoError(t, err)
	require.Len(t, got.Accounts, 1)
	assert.Equal(t, "4.2", got.Accounts[0].Available)

	require.NoError(t, conn.Close())
	close(shutdown)
	require.NoError(t, wait(t, done))
}
