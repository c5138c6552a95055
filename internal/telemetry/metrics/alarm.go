package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricOperationsTotal = "chronoguard_operations_total"    // counter
	MetricAlarmCount      = "chronoguard_alarm_count"         // up-down counter
	MetricFiredTotal      = "chronoguard_fired_total"         // counter
	MetricFiringHour      = "chronoguard_firing_hour_of_day"  // histogram
	MetricSentTotal       = "chronoguard_notify_sent_total"   // counter
	MetricFailedTotal     = "chronoguard_notify_failed_total" // counter
)

var (
	meter = otel.Meter("github.com/cloud-nimbus/chronoguard/internal/telemetry/metrics")

	operationsTotal metric.Int64Counter
	alarmCount      metric.Int64UpDownCounter
	firedTotal      metric.Int64Counter
	firingHour      metric.Float64Histogram
	sentTotal       metric.Int64Counter
	failedTotal     metric.Int64Counter

	initOnce sync.Once
)

// Init builds the OTel instruments against whatever MeterProvider is
// globally installed at call time. SetupPrometheus calls this once it has
// installed the Prometheus-backed provider; if nothing ever installs a
// real provider the instruments still work, recording into a no-op meter.
func Init() {
	initOnce.Do(register)
}

func register() {
	var err error

	operationsTotal, err = meter.Int64Counter(MetricOperationsTotal,
		metric.WithDescription("scheduler/processor/notifier operations by op, result, component"))
	if err != nil {
		operationsTotal = nil
	}

	alarmCount, err = meter.Int64UpDownCounter(MetricAlarmCount,
		metric.WithDescription("current number of alarms indexed in the scheduler"))
	if err != nil {
		alarmCount = nil
	}

	firedTotal, err = meter.Int64Counter(MetricFiredTotal,
		metric.WithDescription("total alarm firings published to alarm_events"))
	if err != nil {
		firedTotal = nil
	}

	firingHour, err = meter.Float64Histogram(MetricFiringHour,
		metric.WithDescription("hour of day (UTC) each alarm fires at, for load-distribution visibility"))
	if err != nil {
		firingHour = nil
	}

	sentTotal, err = meter.Int64Counter(MetricSentTotal,
		metric.WithDescription("total notifications sent successfully"))
	if err != nil {
		sentTotal = nil
	}

	failedTotal, err = meter.Int64Counter(MetricFailedTotal,
		metric.WithDescription("total notification send failures"))
	if err != nil {
		failedTotal = nil
	}
}

// RecordOperation emits a single operations_total observation.
func RecordOperation(ctx context.Context, op Op, result Result, component Component) {
	if operationsTotal == nil {
		return
	}
	operationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(op)),
		attribute.String("result", string(result)),
		attribute.String("component", string(component)),
	))
}

// SetAlarmCount adjusts the alarm_count gauge by delta (positive on
// Schedule, negative on Unschedule/one-shot removal).
func SetAlarmCount(ctx context.Context, delta int64) {
	if alarmCount == nil {
		return
	}
	alarmCount.Add(ctx, delta)
}

// RecordFiring records one alarm_events publish: increments fired_total and
// observes the UTC hour of day it fired at, in firing_hour_of_day.
func RecordFiring(ctx context.Context, hourUTC int) {
	if firedTotal != nil {
		firedTotal.Add(ctx, 1)
	}
	if firingHour != nil {
		firingHour.Record(ctx, float64(hourUTC))
	}
}

// RecordSent increments the successful-notification counter.
func RecordSent(ctx context.Context) {
	if sentTotal == nil {
		return
	}
	sentTotal.Add(ctx, 1)
}

// RecordFailed increments the failed-notification counter.
func RecordFailed(ctx context.Context) {
	if failedTotal == nil {
		return
	}
	failedTotal.Add(ctx, 1)
}
