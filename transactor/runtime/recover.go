package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/LerianStudio/lib-transactor/transactor/log"
)

// Logger is the subset of log.Logger used by this package.
type Logger interface {
	Log(ctx context.Context, level log.Level, msg string, fields ...log.Field)
}

// PanicPolicy decides what happens after a panic has been recovered and recorded.
type PanicPolicy int

const (
	// KeepRunning swallows the panic.
	KeepRunning PanicPolicy = iota
	// CrashProcess re-panics after logging.
	CrashProcess
)

// String returns the policy name.
func (p PanicPolicy) String() string {
	switch p {
	case KeepRunning:
		return "KeepRunning"
	case CrashProcess:
		return "CrashProcess"
	default:
		return "Unknown"
	}
}

// RecoverAndLog recovers a panic and logs it. It must be called directly by defer.
//
//	defer runtime.RecoverAndLog(logger, "report-writer")
func RecoverAndLog(logger Logger, name string) {
	if r := recover(); r != nil {
		logPanicWithStack(context.Background(), logger, name, r, debug.Stack())
	}
}

// RecoverAndLogWithContext recovers a panic, logs it, counts it and marks the span in ctx.
func RecoverAndLogWithContext(ctx context.Context, logger Logger, component, name string) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		logPanicWithStack(ctx, logger, name, r, stack)
		recordPanicObservability(ctx, r, stack, component, name)
	}
}

// RecoverWithPolicyAndContext is RecoverAndLogWithContext followed by policy.
func RecoverWithPolicyAndContext(ctx context.Context, logger Logger, component, name string, policy PanicPolicy) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		logPanicWithStack(ctx, logger, name, r, stack)
		recordPanicObservability(ctx, r, stack, component, name)

		if policy == CrashProcess {
			panic(r)
		}
	}
}

// HandlePanicValue records a panic value already recovered by someone else,
// such as the Fiber recover middleware or a gRPC interceptor.
func HandlePanicValue(ctx context.Context, logger Logger, panicValue any, component, name string) {
	if panicValue == nil {
		return
	}

	stack := debug.Stack()
	logPanicWithStack(ctx, logger, name, panicValue, stack)
	recordPanicObservability(ctx, panicValue, stack, component, name)
}

func logPanicWithStack(ctx context.Context, logger Logger, name string, panicValue any, stack []byte) {
	if logger == nil {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	fields := []log.Field{
		log.String("source", name),
		log.String("panic_value", formatPanicValue(panicValue)),
	}

	if !IsProductionMode() {
		fields = append(fields, log.String("stack_trace", string(stack)))
	}

	logger.Log(ctx, log.LevelError, "panic recovered", fields...)
}

func recordPanicObservability(ctx context.Context, panicValue any, stack []byte, component, name string) {
	if ctx == nil {
		ctx = context.Background()
	}

	recordPanicMetric(ctx, component, name)
	RecordPanicToSpanWithComponent(ctx, panicValue, stack, component, name)
}

func formatPanicValue(value any) string {
	if IsProductionMode() {
		return redactedPanicMsg
	}

	switch v := value.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
