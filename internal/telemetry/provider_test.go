package telemetry

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig())
	require.NoError(t, err)

	_, ok := p.TracerProvider.(noop.TracerProvider)
	assert.True(t, ok)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	cfg := DefaultConfig()
	cfg.Enabled = true

	p, err := NewProvider(context.Background(), cfg, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, span := Tracer(p).Start(context.Background(), "graphql login")
	span.SetAttributes(AttrOperation.String("login"))
	RecordError(span, errors.NewGraphQLError("login", stderrors.New("Invalid email or password")))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "graphql login", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "login", attrs["oneway.operation"])
	assert.Equal(t, "GQL-001", attrs["oneway.error_code"])
}

func TestNewProvider_NeverSample(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.SampleRate = 0

	p, err := NewProvider(context.Background(), cfg, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	_, span := Tracer(p).Start(context.Background(), "graphql getmembers")
	span.End()

	assert.Empty(t, recorder.Ended())
}

func TestRecordError_Success(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := Tracer(tp).Start(context.Background(), "rest /welcome")
	RecordError(span, nil)
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Ok, recorder.Ended()[0].Status().Code)
}

func TestProvider_NilShutdown(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}
