package telemetry

import (
	"context"

	"github.com/cloud-nimbus/chronoguard/internal/telemetry/metrics"
)

// Op, Result, and Component are re-exported from internal/telemetry/metrics
// so callers outside the telemetry package (scheduler, processor, notifier)
// depend only on this package and can call
// telemetry.RecordOperation(telemetry.OpX, ...) directly.
type (
	Op        = metrics.Op
	Result    = metrics.Result
	Component = metrics.Component
)

const (
	OpSchedule   = metrics.OpSchedule
	OpUnschedule = metrics.OpUnschedule
	OpFire       = metrics.OpFire
	OpReload     = metrics.OpReload
	OpCleanup    = metrics.OpCleanup
	OpEnrich     = metrics.OpEnrich
	OpNotify     = metrics.OpNotify

	ResultSuccess = metrics.ResultSuccess
	ResultError   = metrics.ResultError

	ComponentScheduler = metrics.ComponentScheduler
	ComponentProcessor = metrics.ComponentProcessor
	ComponentNotifier  = metrics.ComponentNotifier
	ComponentStore     = metrics.ComponentStore
	ComponentBus       = metrics.ComponentBus
)

// RecordOperation records one operation outcome in operations_total.
func RecordOperation(ctx context.Context, op Op, result Result, component Component) {
	metrics.RecordOperation(ctx, op, result, component)
}

// SetAlarmCount adjusts the current alarm_count gauge.
func SetAlarmCount(ctx context.Context, delta int64) {
	metrics.SetAlarmCount(ctx, delta)
}

// RecordFiring records one alarm firing at the given UTC hour of day.
func RecordFiring(ctx context.Context, hourUTC int) {
	metrics.RecordFiring(ctx, hourUTC)
}

// RecordSent records one successful notification send.
func RecordSent(ctx context.Context) {
	metrics.RecordSent(ctx)
}

// RecordFailed records one failed notification send.
func RecordFailed(ctx context.Context) {
	metrics.RecordFailed(ctx)
}
