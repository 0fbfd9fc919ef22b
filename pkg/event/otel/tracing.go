// Package otel reports event bus posts to OpenTelemetry.
//
// Both observers plug into a bus through event.WithObserver:
//
//	metrics, err := otel.NewMetricsObserver(meterProvider.Meter("eventbus"))
//	tracing := otel.NewTracingObserver(tracerProvider.Tracer("eventbus"))
//	bus := event.NewBus(event.WithObserver(otel.Observers(metrics, tracing)))
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/eventbus/pkg/event"
)

// TracingObserver records one span per observed post. The span covers the
// post's start time and duration; a failing post gets an error status.
type TracingObserver struct {
	tracer trace.Tracer
}

// NewTracingObserver creates a TracingObserver using tracer.
func NewTracingObserver(tracer trace.Tracer) *TracingObserver {
	return &TracingObserver{tracer: tracer}
}

// ObservePost implements event.Observer.
func (o *TracingObserver) ObservePost(rec event.PostRecord) {
	attrs := append(postAttributes(rec),
		attribute.String("eventbus.bus_id", rec.BusID),
		attribute.Int("eventbus.delivered", rec.Delivered),
	)
	_, span := o.tracer.Start(context.Background(), spanName(rec),
		trace.WithTimestamp(rec.Start),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	if rec.Err != nil {
		span.RecordError(rec.Err)
		span.SetStatus(codes.Error, rec.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(rec.Start.Add(rec.Duration)))
}

func spanName(rec event.PostRecord) string {
	if rec.Path == "" {
		return "eventbus.post"
	}
	return "eventbus.post " + rec.Path
}

type multiObserver []event.Observer

func (m multiObserver) ObservePost(rec event.PostRecord) {
	for _, o := range m {
		o.ObservePost(rec)
	}
}

// Observers fans a post record out to every non-nil observer, in order.
func Observers(observers ...event.Observer) event.Observer {
	m := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}
