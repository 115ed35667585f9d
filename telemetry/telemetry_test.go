package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoOpClient(t *testing.T) {
	c, err := Setup(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, c.Disabled())

	_, span := c.Tracer().Start(context.Background(), SpanRun)
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, c.Shutdown(context.Background()))
}

func TestClientWithRecorder(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	c := NewClientWithProvider(tp)
	assert.False(t, c.Disabled())

	_, span := c.Tracer().Start(context.Background(), SpanRun)
	span.AddEvent(EventSyscall)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, SpanRun, ended[0].Name())
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, EventSyscall, ended[0].Events()[0].Name)
	require.NoError(t, c.Shutdown(context.Background()))
}

func TestNewClientDoesNotDial(t *testing.T) {
	c, err := NewClient(context.Background(), "127.0.0.1:4318")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4318", c.Endpoint())
	require.NoError(t, c.Shutdown(context.Background()))
}
