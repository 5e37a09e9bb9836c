package runtime

import (
	"context"
	"errors"
	"fmt"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrPanic is recorded on spans for recovered panics.
var ErrPanic = errors.New("panic")

// PanicSpanEventName is the span event added for a recovered panic.
const PanicSpanEventName = constant.EventPanicRecovered

// RecordPanicToSpan marks the span in ctx with a panic event and an error status.
func RecordPanicToSpan(ctx context.Context, panicValue any, stack []byte, goroutineName string) {
	RecordPanicToSpanWithComponent(ctx, panicValue, stack, "", goroutineName)
}

// RecordPanicToSpanWithComponent is RecordPanicToSpan with a component label.
func RecordPanicToSpanWithComponent(ctx context.Context, panicValue any, stack []byte, component, goroutineName string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	value := formatPanicValue(panicValue)

	attrs := []attribute.KeyValue{
		attribute.String(constant.AttrPrefixPanic+"value", value),
		attribute.String(constant.AttrPrefixPanic+"goroutine_name", goroutineName),
	}

	if component != "" {
		attrs = append(attrs, attribute.String(constant.AttrPrefixPanic+"component", component))
	}

	if len(stack) > 0 && !IsProductionMode() {
		attrs = append(attrs, attribute.String(constant.AttrPrefixPanic+"stack", string(stack)))
	}

	span.AddEvent(PanicSpanEventName, trace.WithAttributes(attrs...))
	span.RecordError(fmt.Errorf("%w: %s", ErrPanic, value))
	span.SetStatus(codes.Error, "panic recovered in "+goroutineName)
}
