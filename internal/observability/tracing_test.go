package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestContextHelpersAnnotateActiveSpan(t *testing.T) {
	sr := recordSpans(t)

	span, ctx := NewSpan(context.Background(), "op")
	AddTraceAttributesToContext(ctx, attribute.String("error.code", "NOT_FOUND"))
	RecordErrorInContext(ctx, errors.New("missing"))
	RecordErrorInContext(ctx, nil)
	assert.NotEmpty(t, span.TraceID())
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Contains(t, ended[0].Attributes(), attribute.String("error.code", "NOT_FOUND"))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "missing", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestContextHelpersWithoutSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		AddTraceAttributesToContext(context.Background(), attribute.Int("n", 1))
		RecordErrorInContext(context.Background(), errors.New("ignored"))
	})
}

func TestSpanSetError(t *testing.T) {
	sr := recordSpans(t)

	span, _ := NewSpan(context.Background(), "op")
	span.AddAttributes(attribute.String("thread_id", "t1"))
	span.SetError(errors.New("boom"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "op", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("thread_id", "t1"))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}
