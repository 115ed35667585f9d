package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Client owns a tracer provider and its exporter.
type Client struct {
	endpoint string
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
	disabled bool // if true, spans are dropped
}

// NewNoOpClient returns a client whose tracer records nothing.
func NewNoOpClient() *Client {
	return &Client{
		provider: noop.NewTracerProvider(),
		disabled: true,
	}
}

// NewClient exports spans over OTLP/HTTP to endpoint ("host:port").
func NewClient(ctx context.Context, endpoint string) (*Client, error) {
	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter for %s: %w", endpoint, err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "yan85"))),
	)
	return &Client{endpoint: endpoint, provider: tp, sdk: tp}, nil
}

// NewClientWithProvider wraps an existing provider, e.g. one backed by a
// span recorder in tests.
func NewClientWithProvider(tp trace.TracerProvider) *Client {
	c := &Client{provider: tp}
	if sdk, ok := tp.(*sdktrace.TracerProvider); ok {
		c.sdk = sdk
	}
	return c
}

// Setup builds a client (no-op when endpoint is empty) and installs it as
// the global provider.
func Setup(ctx context.Context, endpoint string) (*Client, error) {
	c := NewNoOpClient()
	if endpoint != "" {
		var err error
		if c, err = NewClient(ctx, endpoint); err != nil {
			return nil, err
		}
	}
	otel.SetTracerProvider(c.provider)
	return c, nil
}

func (c *Client) Disabled() bool {
	return c.disabled
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) TracerProvider() trace.TracerProvider {
	return c.provider
}

func (c *Client) Tracer() trace.Tracer {
	return c.provider.Tracer(TracerName)
}

// Shutdown flushes pending spans. It is a no-op for disabled clients.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.sdk == nil {
		return nil
	}
	return c.sdk.Shutdown(ctx)
}

// Tracer returns the tracer of the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
