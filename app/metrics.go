package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ExecutorMetrics records per-transaction executor metrics through OpenTelemetry.
type ExecutorMetrics struct {
	txCounter   metric.Int64Counter
	txDuration  metric.Float64Histogram
	blockHeight metric.Int64Gauge
}

// NewExecutorMetrics creates the executor instruments on meter
func NewExecutorMetrics(meter metric.Meter) (*ExecutorMetrics, error) {
	txCounter, err := meter.Int64Counter(
		"settlement.tx.total",
		metric.WithDescription("Total number of executed transactions"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, err
	}

	txDuration, err := meter.Float64Histogram(
		"settlement.tx.processing_time",
		metric.WithDescription("Transaction processing time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	blockHeight, err := meter.Int64Gauge(
		"settlement.block.height",
		metric.WithDescription("Last committed height"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, err
	}

	return &ExecutorMetrics{
		txCounter:   txCounter,
		txDuration:  txDuration,
		blockHeight: blockHeight,
	}, nil
}

// RecordTransaction records transaction metrics
func (m *ExecutorMetrics) RecordTransaction(ctx context.Context, op string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	attrs := metric.WithAttributes(
		attribute.String("tx.operation", op),
		attribute.String("tx.status", status),
	)
	m.txCounter.Add(ctx, 1, attrs)
	m.txDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordBlockHeight records the last committed height
func (m *ExecutorMetrics) RecordBlockHeight(ctx context.Context, height int64) {
	m.blockHeight.Record(ctx, height)
}
