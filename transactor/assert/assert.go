package assert

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry/metrics"
	"github.com/LerianStudio/lib-transactor/transactor/runtime"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the subset of log.Logger used by assertions.
type Logger interface {
	Log(ctx context.Context, level log.Level, msg string, fields ...log.Field)
}

// ErrAssertionFailed is the sentinel wrapped by every AssertionError.
var ErrAssertionFailed = errors.New("assertion failed")

// AssertionSpanEventName is the span event added for a failed assertion.
const AssertionSpanEventName = constant.EventAssertionFailed

const maxValueLength = 200

var assertionFailedMetric = metrics.Metric{
	Name:        constant.MetricAssertionFailedTotal,
	Unit:        "1",
	Description: "Total number of failed assertions",
}

// AssertionError describes one failed assertion.
type AssertionError struct {
	Assertion string
	Message   string
	Component string
	Operation string
	Details   string
}

// Error returns the failure message followed by its key/value details.
func (e *AssertionError) Error() string {
	if e == nil {
		return ErrAssertionFailed.Error()
	}

	if e.Details == "" {
		return "assertion failed: " + e.Message
	}

	return "assertion failed: " + e.Message + "\n" + e.Details
}

// Unwrap returns ErrAssertionFailed.
func (e *AssertionError) Unwrap() error {
	return ErrAssertionFailed
}

// Asserter evaluates invariants for one component and operation.
// A nil *Asserter is valid and still returns errors, without telemetry.
type Asserter struct {
	logger    Logger
	factory   *metrics.MetricsFactory
	component string
	operation string
}

// New creates an Asserter. logger may be nil.
func New(logger Logger, component, operation string) *Asserter {
	return &Asserter{logger: logger, component: component, operation: operation}
}

// WithMetrics returns a copy that counts failures through factory.
func (a *Asserter) WithMetrics(factory *metrics.MetricsFactory) *Asserter {
	if a == nil {
		return nil
	}

	clone := *a
	clone.factory = factory

	return &clone
}

// That returns an error when ok is false.
//
//	if err := asserter.That(ctx, acc.Balanced(), "total must equal available + held", "client", id); err != nil {
//		return err
//	}
func (a *Asserter) That(ctx context.Context, ok bool, msg string, kv ...any) error {
	if ok {
		return nil
	}

	return a.fail(ctx, "That", msg, kv...)
}

// NotNil returns an error when v is nil, including typed nils inside interfaces.
func (a *Asserter) NotNil(ctx context.Context, v any, msg string, kv ...any) error {
	if !isNil(v) {
		return nil
	}

	return a.fail(ctx, "NotNil", msg, kv...)
}

// NoError returns an error when err is not nil, attaching its text and type.
func (a *Asserter) NoError(ctx context.Context, err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}

	pairs := make([]any, 0, len(kv)+4)
	pairs = append(pairs, "error", err.Error(), "error_type", fmt.Sprintf("%T", err))
	pairs = append(pairs, kv...)

	return a.fail(ctx, "NoError", msg, pairs...)
}

// Never always returns an error. Use it on unreachable branches.
func (a *Asserter) Never(ctx context.Context, msg string, kv ...any) error {
	return a.fail(ctx, "Never", msg, kv...)
}

func (a *Asserter) fail(ctx context.Context, assertion, msg string, kv ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var component, operation string
	if a != nil {
		component, operation = a.component, a.operation
	}

	details := formatKeyValueLines(withContextPairs(assertion, component, operation, kv))

	var stack []byte
	if !runtime.IsProductionMode() {
		stack = debug.Stack()
	}

	if a != nil && a.logger != nil {
		fields := []log.Field{
			log.String("assertion", assertion),
			log.String("details", details),
		}

		if len(stack) > 0 {
			fields = append(fields, log.String("stack_trace", string(stack)))
		}

		a.logger.Log(ctx, log.LevelError, "ASSERTION FAILED: "+msg, fields...)
	}

	if a != nil {
		a.recordMetric(ctx, assertion)
	}

	recordToSpan(ctx, assertion, msg, stack, component, operation)

	return &AssertionError{
		Assertion: assertion,
		Message:   msg,
		Component: component,
		Operation: operation,
		Details:   details,
	}
}

func (a *Asserter) recordMetric(ctx context.Context, assertion string) {
	if a.factory == nil {
		return
	}

	counter, err := a.factory.Counter(assertionFailedMetric)
	if err == nil {
		err = counter.WithLabels(map[string]string{
			"component": constant.SanitizeMetricLabel(a.component),
			"operation": constant.SanitizeMetricLabel(a.operation),
			"assertion": constant.SanitizeMetricLabel(assertion),
		}).AddOne(ctx)
	}

	if err != nil && a.logger != nil {
		a.logger.Log(ctx, log.LevelWarn, "failed to record assertion metric", log.Err(err))
	}
}

func recordToSpan(ctx context.Context, assertion, msg string, stack []byte, component, operation string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(constant.AttrPrefixAssertion+"name", assertion),
		attribute.String(constant.AttrPrefixAssertion+"message", msg),
	}

	if component != "" {
		attrs = append(attrs, attribute.String(constant.AttrPrefixAssertion+"component", component))
	}

	if operation != "" {
		attrs = append(attrs, attribute.String(constant.AttrPrefixAssertion+"operation", operation))
	}

	if len(stack) > 0 {
		attrs = append(attrs, attribute.String(constant.AttrPrefixAssertion+"stack", string(stack)))
	}

	span.AddEvent(AssertionSpanEventName, trace.WithAttributes(attrs...))
	span.RecordError(fmt.Errorf("%w: %s", ErrAssertionFailed, msg))
	span.SetStatus(codes.Error, statusMessage(component, operation))
}

func statusMessage(component, operation string) string {
	switch {
	case component != "" && operation != "":
		return fmt.Sprintf("assertion failed in %s/%s", component, operation)
	case component != "":
		return "assertion failed in " + component
	case operation != "":
		return "assertion failed in " + operation
	default:
		return "assertion failed"
	}
}

func withContextPairs(assertion, component, operation string, kv []any) []any {
	pairs := make([]any, 0, len(kv)+6)
	pairs = append(pairs, "assertion", assertion)

	if component != "" {
		pairs = append(pairs, "component", component)
	}

	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}

	return append(pairs, kv...)
}

func formatKeyValueLines(kv []any) string {
	var sb strings.Builder

	for i := 0; i < len(kv); i += 2 {
		if i > 0 {
			sb.WriteString("\n")
		}

		var value any = "MISSING_VALUE"
		if i+1 < len(kv) {
			value = kv[i+1]
		}

		fmt.Fprintf(&sb, "    %v=%s", kv[i], truncateValue(value))
	}

	return sb.String()
}

func truncateValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) <= maxValueLength {
		return s
	}

	return s[:maxValueLength] + "... (truncated " + strconv.Itoa(len(s)-maxValueLength) + " chars)"
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
