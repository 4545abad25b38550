package command

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/opd-ai/go-helm/pkg/command"

type metrics struct {
	submitted metric.Int64Counter
	rejected  metric.Int64Counter
	executed  metric.Int64Counter
	cleared   metric.Int64Counter
	queueWait metric.Float64Histogram
	depth     metric.Int64ObservableGauge

	queued atomic.Int64
}

// newMetrics registers the scheduler instruments on m. A nil meter uses the
// global provider, which is a no-op unless one has been installed.
func newMetrics(m metric.Meter) (*metrics, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}

	mt := &metrics{}
	var err error

	mt.submitted, err = m.Int64Counter(
		"helm.orders.submitted",
		metric.WithDescription("Orders accepted into the queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating submitted counter: %w", err)
	}

	mt.rejected, err = m.Int64Counter(
		"helm.orders.rejected",
		metric.WithDescription("Orders refused at submission"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	mt.executed, err = m.Int64Counter(
		"helm.orders.executed",
		metric.WithDescription("Orders applied to the vessel"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating executed counter: %w", err)
	}

	mt.cleared, err = m.Int64Counter(
		"helm.orders.cleared",
		metric.WithDescription("Orders dropped by a clear before taking effect"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cleared counter: %w", err)
	}

	mt.queueWait, err = m.Float64Histogram(
		"helm.orders.queue_wait",
		metric.WithDescription("Time an order waited in the queue before preparation began"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue wait histogram: %w", err)
	}

	mt.depth, err = m.Int64ObservableGauge(
		"helm.orders.queue.depth",
		metric.WithDescription("Orders waiting behind the current one"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue depth gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(mt.depth, mt.queued.Load())
			return nil
		},
		mt.depth,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue depth callback: %w", err)
	}

	return mt, nil
}

func kindAttr(c Command) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("kind", c.Kind.String()))
}

func (mt *metrics) recordSubmitted(c Command) {
	mt.submitted.Add(context.Background(), 1, kindAttr(c))
}

func (mt *metrics) recordRejected(c Command) {
	mt.rejected.Add(context.Background(), 1, kindAttr(c))
}

func (mt *metrics) recordExecuted(c Command) {
	mt.executed.Add(context.Background(), 1, kindAttr(c))
}

func (mt *metrics) recordCleared(c Command) {
	mt.cleared.Add(context.Background(), 1, kindAttr(c))
}

func (mt *metrics) recordQueueWait(c Command, wait time.Duration) {
	mt.queueWait.Record(context.Background(), float64(wait)/float64(time.Millisecond), kindAttr(c))
}
