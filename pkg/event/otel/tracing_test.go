package otel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dshills/eventbus/pkg/event"
	busotel "github.com/dshills/eventbus/pkg/event/otel"
)

func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	return exporter, sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
}

func attr(span tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracingObserver_SpanPerPost(t *testing.T) {
	exporter, tp := newTestTracer()
	bus := event.NewBus(event.WithObserver(busotel.NewTracingObserver(tp.Tracer("test"))))
	bus.On(func() error { return nil })
	event.On(bus, func(int) error { return nil })

	_, _ = bus.Post()
	_, _ = event.Post(bus, 3)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "eventbus.post", spans[0].Name)
	assert.Equal(t, "eventbus.post int", spans[1].Name)

	id, ok := attr(spans[0], "eventbus.bus_id")
	require.True(t, ok)
	assert.Equal(t, bus.ID(), id)
	delivered, ok := attr(spans[1], "eventbus.delivered")
	require.True(t, ok)
	assert.Equal(t, "1", delivered)
	assert.Equal(t, codes.Ok, spans[1].Status.Code)
	assert.False(t, spans[1].EndTime.Before(spans[1].StartTime))
}

func TestTracingObserver_ErrorStatus(t *testing.T) {
	exporter, tp := newTestTracer()
	bus := event.NewBus(event.WithObserver(busotel.NewTracingObserver(tp.Tracer("test"))))
	event.On(bus, func(string) error { return errors.New("refused") })

	_, err := event.Post(bus, "x")
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Status.Description, "refused")
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestObservers_FanOut(t *testing.T) {
	exporter, tp := newTestTracer()
	reader, mp := newTestMeter()
	metrics, err := busotel.NewMetricsObserver(mp.Meter("test"))
	require.NoError(t, err)

	var seen int
	obs := busotel.Observers(
		metrics,
		nil,
		busotel.NewTracingObserver(tp.Tracer("test")),
		event.ObserverFunc(func(event.PostRecord) { seen++ }),
	)
	bus := event.NewBus(event.WithObserver(obs))
	bus.On(func() error { return nil })
	_, _ = bus.Post()

	assert.Equal(t, 1, seen)
	assert.Len(t, exporter.GetSpans(), 1)
	assert.Equal(t, int64(1), sumOf(t, findMetric(collectMetrics(t, reader), "eventbus.posts")))
}
