package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := Init(context.Background(), nil, "taskflow", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestStartEndRecordsTenantAndError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "ProjectService.Create", "tenant-1")
	End(span, errors.New("boom"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ProjectService.Create", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var tenant string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "tenant.id" {
			tenant = kv.Value.AsString()
		}
	}
	assert.Equal(t, "tenant-1", tenant)
}
