// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/carterperez-dev/bloghub/internal/config"
)

func TestStartAndEndSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	ctx, span := StartSpan(context.Background(), "op.ok", attribute.String("k", "v"))
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	AddSpanEvent(ctx, "step")
	EndSpan(span, nil)

	_, span = StartSpan(context.Background(), "op.fail")
	EndSpan(span, ErrUpstream)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "op.ok", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("k", "v"))
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "step", spans[0].Events()[0].Name)

	assert.Equal(t, "op.fail", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestTelemetryDisabledStillTraces(t *testing.T) {
	tel, err := NewTelemetry(context.Background(),
		config.OtelConfig{Enabled: false, ServiceName: "bloghub"},
		config.AppConfig{},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	ctx, span := tel.Tracer.Start(context.Background(), "local")
	defer span.End()
	assert.NotEmpty(t, TraceIDFromContext(ctx))
}
