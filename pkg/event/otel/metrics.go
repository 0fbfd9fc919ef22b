package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dshills/eventbus/pkg/event"
)

// MetricsObserver records OpenTelemetry metrics for every observed post.
type MetricsObserver struct {
	posts      metric.Int64Counter
	deliveries metric.Int64Counter
	failures   metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewMetricsObserver creates the instruments on meter.
func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	posts, err := meter.Int64Counter("eventbus.posts",
		metric.WithDescription("Number of posts that reached a registry"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("eventbus.deliveries",
		metric.WithDescription("Number of successful subscriber invocations"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("eventbus.failures",
		metric.WithDescription("Number of posts stopped by a failing subscriber"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("eventbus.post.duration",
		metric.WithDescription("Duration of a post in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsObserver{
		posts:      posts,
		deliveries: deliveries,
		failures:   failures,
		duration:   duration,
	}, nil
}

// ObservePost implements event.Observer.
func (o *MetricsObserver) ObservePost(rec event.PostRecord) {
	ctx := context.Background()
	attrs := metric.WithAttributes(postAttributes(rec)...)

	o.posts.Add(ctx, 1, attrs)
	if rec.Delivered > 0 {
		o.deliveries.Add(ctx, int64(rec.Delivered), attrs)
	}
	if rec.Err != nil {
		o.failures.Add(ctx, 1, attrs)
	}
	o.duration.Record(ctx, rec.Duration.Seconds(), attrs)
}

// postAttributes leaves out the bus ID to keep metric cardinality bounded.
func postAttributes(rec event.PostRecord) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("eventbus.key", rec.Key),
		attribute.String("eventbus.payload", rec.Path),
	}
}
