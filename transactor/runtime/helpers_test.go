package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor/log"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type entry struct {
	level  log.Level
	msg    string
	fields map[string]any
}

// testLogger captures log calls for assertions.
type testLogger struct {
	mu      sync.Mutex
	entries []entry
	logged  chan struct{}
}

func newTestLogger() *testLogger {
	return &testLogger{logged: make(chan struct{}, 1)}
}

func (l *testLogger) Log(_ context.Context, level log.Level, msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	values := make(map[string]any, len(fields))
	for _, f := range fields {
		values[f.Key] = f.Value
	}

	l.entries = append(l.entries, entry{level: level, msg: msg, fields: values})

	select {
	case l.logged <- struct{}{}:
	default:
	}
}

func (l *testLogger) snapshot() []entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]entry(nil), l.entries...)
}

func (l *testLogger) waitForLog(timeout time.Duration) bool {
	select {
	case <-l.logged:
		return true
	case <-time.After(timeout):
		return false
	}
}

func newTestTracerProvider(t *testing.T) (*trace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return provider, recorder
}
