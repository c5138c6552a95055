// Package scheduler holds the in-memory time index and tick loop that
// drive alarm firing: wake up on a second-resolution tick, decide what's
// due now, act, reschedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cloud-nimbus/chronoguard/internal/alarm"
	"github.com/cloud-nimbus/chronoguard/internal/clock"
	cgerrors "github.com/cloud-nimbus/chronoguard/internal/errors"
	"github.com/cloud-nimbus/chronoguard/internal/events"
	"github.com/cloud-nimbus/chronoguard/internal/store"
	"github.com/cloud-nimbus/chronoguard/internal/telemetry"
	"github.com/cloud-nimbus/chronoguard/internal/timeutil"
)

// State is the scheduler's lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// cleanupInterval is how often the tick loop runs its orphaned-alarm and
// orphaned-store-row sweep.
const cleanupInterval = 10 * time.Minute

// statsInterval is how often the tick loop emits operational stats.
const statsInterval = 5 * time.Minute

// cleanupGracePeriod is how long a one-shot alarm may sit in the time
// index past its due instant before the cleanup sweep considers it
// abandoned. Its firing presumably already happened and it simply wasn't
// removed; the sweep is a backstop, not the normal removal path.
const cleanupGracePeriod = time.Hour

// retimeHourUTC is the UTC hour at which the daily DST self-heal sweep
// (Retime) runs for every recurring alarm.
const retimeHourUTC = 0

// retimeMinuteUTC is the UTC minute within retimeHourUTC.
const retimeMinuteUTC = 10

// Publisher is the subset of bus.EventBus the scheduler needs, declared
// locally so this package does not import bus directly.
type Publisher interface {
	Publish(ctx context.Context, topic, payload string) error
}

var tracer = otel.Tracer("chronoguard/scheduler")

// Scheduler holds the authoritative in-memory alarm table and time index,
// guarded by a single RWMutex covering both; there are no per-index-level
// locks.
type Scheduler struct {
	mu sync.RWMutex
	// index is hour -> minute -> second -> set of alarm IDs.
	index map[int]map[int]map[int]map[string]struct{}
	table map[string]alarm.Alarm

	store           store.Store
	bus             Publisher
	clock           clock.Clock
	defaultTimezone string
	log             *zap.Logger

	state   State
	stateMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	firedCount int64
	statsMu    sync.Mutex
}

// New constructs a Scheduler. It does not start the tick loop; call Start
// for that.
func New(st store.Store, bus Publisher, ck clock.Clock, defaultTimezone string, log *zap.Logger) *Scheduler {
	return &Scheduler{
		index:           make(map[int]map[int]map[int]map[string]struct{}),
		table:           make(map[string]alarm.Alarm),
		store:           st,
		bus:             bus,
		clock:           ck,
		defaultTimezone: defaultTimezone,
		log:             log,
		state:           Idle,
	}
}

// Schedule validates req, computes utc_time, writes to the store, then
// atomically inserts into the in-memory table and time-index leaf.
func (s *Scheduler) Schedule(ctx context.Context, req alarm.Request) (alarm.Alarm, error) {
	now := s.clock.Now()
	a, err := alarm.Normalize(req, s.defaultTimezone, now, now)
	if err != nil {
		telemetry.RecordOperation(ctx, telemetry.OpSchedule, telemetry.ResultError, telemetry.ComponentScheduler)
		return alarm.Alarm{}, err
	}

	if err := s.store.Insert(ctx, a); err != nil {
		telemetry.RecordOperation(ctx, telemetry.OpSchedule, telemetry.ResultError, telemetry.ComponentScheduler)
		return alarm.Alarm{}, err
	}

	s.mu.Lock()
	s.insertLocked(a)
	s.mu.Unlock()

	telemetry.RecordOperation(ctx, telemetry.OpSchedule, telemetry.ResultSuccess, telemetry.ComponentScheduler)
	telemetry.SetAlarmCount(ctx, 1)

	return a, nil
}

// insertLocked adds a to the table and its time-index leaf. Caller must
// hold s.mu for writing.
func (s *Scheduler) insertLocked(a alarm.Alarm) {
	hh, mm, ss, err := timeutil.ParseTimeOfDay(a.UTCTime)
	if err != nil {
		// Normalize always produces a well-formed UTCTime; a malformed
		// value here can only come from a store row written outside this
		// process. Skip the alarm (neither table nor index) rather than panic.
		if s.log != nil {
			s.log.Error("scheduler: skipping alarm with malformed utc_time", zap.String("alarm_id", a.ID()), zap.Error(err))
		}
		return
	}
	s.table[a.ID()] = a
	s.leaf(hh, mm, ss, true)[a.ID()] = struct{}{}
}

// removeLocked removes a's entry from the table and its time-index leaf,
// pruning empty index nodes. Caller must hold s.mu for writing.
func (s *Scheduler) removeLocked(a alarm.Alarm) {
	delete(s.table, a.ID())
	hh, mm, ss, err := timeutil.ParseTimeOfDay(a.UTCTime)
	if err != nil {
		return
	}
	minutes, ok := s.index[hh]
	if !ok {
		return
	}
	seconds, ok := minutes[mm]
	if !ok {
		return
	}
	leaf, ok := seconds[ss]
	if !ok {
		return
	}
	delete(leaf, a.ID())
	if len(leaf) == 0 {
		delete(seconds, ss)
	}
	if len(seconds) == 0 {
		delete(minutes, mm)
	}
	if len(minutes) == 0 {
		delete(s.index, hh)
	}
}

// leaf returns the set at index[hh][mm][ss], creating intermediate maps if
// create is true and they don't exist. Caller must hold s.mu.
func (s *Scheduler) leaf(hh, mm, ss int, create bool) map[string]struct{} {
	minutes, ok := s.index[hh]
	if !ok {
		if !create {
			return nil
		}
		minutes = make(map[int]map[int]map[string]struct{})
		s.index[hh] = minutes
	}
	seconds, ok := minutes[mm]
	if !ok {
		if !create {
			return nil
		}
		seconds = make(map[int]map[string]struct{})
		minutes[mm] = seconds
	}
	leaf, ok := seconds[ss]
	if !ok {
		if !create {
			return nil
		}
		leaf = make(map[string]struct{})
		seconds[ss] = leaf
	}
	return leaf
}

// Unschedule removes the alarm keyed by (codeID, email, localTime) from the
// store and in-memory index. A missing alarm is reported as a non-error
// "not found" status, never an error, so concurrent double-deletion is
// harmless.
func (s *Scheduler) Unschedule(ctx context.Context, codeID, email, localTime string) (found bool, err error) {
	id := alarm.Alarm{CodeID: codeID, Email: email, LocalTime: localTime}.ID()

	n, err := s.store.Delete(ctx, codeID, email, localTime)
	if err != nil {
		telemetry.RecordOperation(ctx, telemetry.OpUnschedule, telemetry.ResultError, telemetry.ComponentScheduler)
		return false, err
	}

	s.mu.Lock()
	a, exists := s.table[id]
	if exists {
		s.removeLocked(a)
	}
	s.mu.Unlock()

	telemetry.RecordOperation(ctx, telemetry.OpUnschedule, telemetry.ResultSuccess, telemetry.ComponentScheduler)
	if exists {
		telemetry.SetAlarmCount(ctx, -1)
	}

	return n > 0 || exists, nil
}

// UpdateRecurrence mutates an existing alarm's recurrence flag, weekday
// set, or timezone, recomputing utc_time and re-indexing under one lock
// acquisition. The store row is replaced (delete + insert) since the
// mirror has no in-place update. Returns NotFoundError if the alarm is
// not in the in-memory table.
func (s *Scheduler) UpdateRecurrence(ctx context.Context, codeID, email, localTime string, isRecurring bool, daysOfWeek, timezone string) (alarm.Alarm, error) {
	id := alarm.Alarm{CodeID: codeID, Email: email, LocalTime: localTime}.ID()

	s.mu.RLock()
	current, exists := s.table[id]
	s.mu.RUnlock()
	if !exists {
		return alarm.Alarm{}, cgerrors.NewNotFoundError(id)
	}

	req := alarm.Request{
		CodeID:      current.CodeID,
		Email:       current.Email,
		LocalTime:   current.LocalTime,
		IsRecurring: isRecurring,
		DaysOfWeek:  daysOfWeek,
		Timezone:    timezone,
	}
	now := s.clock.Now()
	updated, err := alarm.Normalize(req, s.defaultTimezone, now, now)
	if err != nil {
		telemetry.RecordOperation(ctx, telemetry.OpSchedule, telemetry.ResultError, telemetry.ComponentScheduler)
		return alarm.Alarm{}, err
	}
	updated.CreatedAt = current.CreatedAt

	if _, err := s.store.Delete(ctx, codeID, email, localTime); err != nil {
		return alarm.Alarm{}, err
	}
	if err := s.store.Insert(ctx, updated); err != nil {
		return alarm.Alarm{}, err
	}

	s.mu.Lock()
	if prev, ok := s.table[id]; ok {
		s.removeLocked(prev)
	}
	s.insertLocked(updated)
	s.mu.Unlock()

	telemetry.RecordOperation(ctx, telemetry.OpSchedule, telemetry.ResultSuccess, telemetry.ComponentScheduler)
	return updated, nil
}

// List returns every alarm, ordered by (code_id, email, local_time),
// applying limit/offset.
func (s *Scheduler) List(limit, offset int) []alarm.Alarm {
	s.mu.RLock()
	all := make([]alarm.Alarm, 0, len(s.table))
	for _, a := range s.table {
		all = append(all, a)
	}
	s.mu.RUnlock()

	sortAlarms(all)

	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func sortAlarms(a []alarm.Alarm) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && less(a[j], a[j-1]); j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

func less(a, b alarm.Alarm) bool {
	if a.CodeID != b.CodeID {
		return a.CodeID < b.CodeID
	}
	if a.Email != b.Email {
		return a.Email < b.Email
	}
	return a.LocalTime < b.LocalTime
}

// Count returns the number of alarms currently in the in-memory table.
func (s *Scheduler) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// Clear removes every alarm from the in-memory table and index. It does
// not touch the store.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = make(map[int]map[int]map[int]map[string]struct{})
	s.table = make(map[string]alarm.Alarm)
}

// Reload clears the in-memory table and index, then reinserts every row
// read back from the store. Rows with a malformed utc_time are logged and
// skipped rather than aborting the reload.
func (s *Scheduler) Reload(ctx context.Context) error {
	rows, err := s.store.SelectAll(ctx)
	if err != nil {
		telemetry.RecordOperation(ctx, telemetry.OpReload, telemetry.ResultError, telemetry.ComponentScheduler)
		return err
	}

	s.mu.Lock()
	before := len(s.table)
	s.index = make(map[int]map[int]map[int]map[string]struct{})
	s.table = make(map[string]alarm.Alarm)
	for _, a := range rows {
		if err := a.Validate(); err != nil {
			if s.log != nil {
				s.log.Warn("scheduler: skipping malformed alarm on reload", zap.String("alarm_id", a.ID()), zap.Error(err))
			}
			continue
		}
		s.insertLocked(a)
	}
	after := len(s.table)
	s.mu.Unlock()

	telemetry.RecordOperation(ctx, telemetry.OpReload, telemetry.ResultSuccess, telemetry.ComponentScheduler)
	telemetry.SetAlarmCount(ctx, int64(after-before))
	return nil
}

// DueAt returns every alarm whose utc_time matches nowUTC's HH:MM:SS and
// whose days_of_week, evaluated in the alarm's own timezone at nowUTC,
// contains that day's weekday. Complexity is O(k) in the number of
// returned alarms: it reads exactly one time-index leaf.
func (s *Scheduler) DueAt(nowUTC time.Time) []alarm.Alarm {
	hh, mm, ss := nowUTC.Hour(), nowUTC.Minute(), nowUTC.Second()

	s.mu.RLock()
	leaf := s.leaf(hh, mm, ss, false)
	ids := make([]string, 0, len(leaf))
	for id := range leaf {
		ids = append(ids, id)
	}
	candidates := make([]alarm.Alarm, 0, len(ids))
	for _, id := range ids {
		candidates = append(candidates, s.table[id])
	}
	s.mu.RUnlock()

	due := make([]alarm.Alarm, 0, len(candidates))
	for _, a := range candidates {
		loc, err := timeutil.LoadLocation(a.Timezone)
		if err != nil {
			continue
		}
		today := timeutil.Weekday3(nowUTC, loc)
		if a.DaysOfWeek.Contains(weekdayFromLabel(today)) {
			due = append(due, a)
		}
	}
	return due
}

func weekdayFromLabel(label string) time.Weekday {
	switch label {
	case "Sun":
		return time.Sunday
	case "Mon":
		return time.Monday
	case "Tue":
		return time.Tuesday
	case "Wed":
		return time.Wednesday
	case "Thu":
		return time.Thursday
	case "Fri":
		return time.Friday
	case "Sat":
		return time.Saturday
	default:
		return time.Sunday
	}
}

// Start begins the 1-second tick loop. Calling Start on an already-Running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == Running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = Running

	s.wg.Add(1)
	go s.run(loopCtx)
}

// Stop halts the tick loop and blocks until it exits. Calling Stop on an
// already-Stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.stateMu.Lock()
	if s.state != Running {
		s.stateMu.Unlock()
		return
	}
	s.state = Stopped
	cancel := s.cancel
	s.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()

	lastRetimeDay := -1

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
			now := s.clock.Now().UTC()
			if now.Hour() == retimeHourUTC && now.Minute() == retimeMinuteUTC && now.YearDay() != lastRetimeDay {
				s.retimeRecurring(now)
				lastRetimeDay = now.YearDay()
			}
		case <-cleanupTicker.C:
			s.cleanup(ctx)
		case <-statsTicker.C:
			s.emitStats()
		}
	}
}

// tick processes one second of wall-clock time: find what's due, publish
// an AlarmEvent per alarm, then remove one-shots or leave recurring alarms
// indexed for their next matching day. A panic inside one tick is logged
// and absorbed; the loop never exits on one.
func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.Error("scheduler: tick panicked", zap.Any("panic", r))
		}
	}()

	now := s.clock.Now().UTC()
	due := s.DueAt(now)

	for _, a := range due {
		s.fireOne(ctx, a, now)
	}
}

// fireOne publishes a single alarm's firing event under its own span, so a
// trace backend can show each alarm's publish latency and outcome
// independently of the tick that triggered it.
func (s *Scheduler) fireOne(ctx context.Context, a alarm.Alarm, now time.Time) {
	spanCtx, span := tracer.Start(ctx, "scheduler.fire",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("chronoguard.alarm_id", a.ID()),
			attribute.Bool("chronoguard.recurring", a.IsRecurring),
		),
	)
	defer span.End()

	ev := events.NewAlarmEvent(a.ID(), a.CodeID, a.Email, a.LocalTime, a.UTCTime, a.IsRecurring, a.Timezone, now)
	if err := s.bus.Publish(spanCtx, events.TopicAlarmEvents, ev.String()); err != nil {
		span.RecordError(err)
		if s.log != nil {
			s.log.Error("scheduler: publish alarm_events failed", zap.String("alarm_id", a.ID()), zap.Error(err))
		}
		telemetry.RecordOperation(spanCtx, telemetry.OpFire, telemetry.ResultError, telemetry.ComponentScheduler)
		return
	}

	s.statsMu.Lock()
	s.firedCount++
	s.statsMu.Unlock()

	telemetry.RecordOperation(spanCtx, telemetry.OpFire, telemetry.ResultSuccess, telemetry.ComponentScheduler)
	telemetry.RecordFiring(spanCtx, now.Hour())

	if !a.IsRecurring {
		s.mu.Lock()
		s.removeLocked(a)
		s.mu.Unlock()
		telemetry.SetAlarmCount(spanCtx, -1)
	}
}

// retimeRecurring recomputes utc_time for every recurring alarm against
// ref, re-indexing any whose utc_time changed. One-shot alarms are never
// retimed. Without this sweep a recurring alarm's utc_time, computed once
// at ingest, would be an hour off after the next DST transition in its
// zone.
func (s *Scheduler) retimeRecurring(ref time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range s.table {
		if !a.IsRecurring {
			continue
		}
		retimed, err := a.Retime(ref)
		if err != nil {
			if s.log != nil {
				s.log.Warn("scheduler: retime failed", zap.String("alarm_id", id), zap.Error(err))
			}
			continue
		}
		if retimed.UTCTime == a.UTCTime {
			continue
		}
		s.removeLocked(a)
		s.insertLocked(retimed)
	}
}

// cleanup is the 10-minute defensive sweep: removes one-shot alarms still
// sitting in the index more than cleanupGracePeriod past their due
// instant, and asks the store for one-shot rows with no in-memory
// counterpart (the orphaned-row backstop for a processor delete that
// failed after the in-memory alarm was already removed).
func (s *Scheduler) cleanup(ctx context.Context) {
	now := s.clock.Now().UTC()

	s.mu.Lock()
	var stale []alarm.Alarm
	for _, a := range s.table {
		if a.IsRecurring {
			continue
		}
		hh, mm, ss, err := timeutil.ParseTimeOfDay(a.UTCTime)
		if err != nil {
			continue
		}
		due := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, ss, 0, time.UTC)
		if s.clock.IsExpired(due.Add(cleanupGracePeriod)) {
			stale = append(stale, a)
		}
	}
	for _, a := range stale {
		s.removeLocked(a)
	}
	if len(stale) > 0 {
		telemetry.SetAlarmCount(ctx, -int64(len(stale)))
	}
	inMemory := make(map[string]struct{}, len(s.table))
	for id := range s.table {
		inMemory[id] = struct{}{}
	}
	s.mu.Unlock()

	rows, err := s.store.SelectAll(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Error("scheduler: cleanup SelectAll failed", zap.Error(err))
		}
		telemetry.RecordOperation(ctx, telemetry.OpCleanup, telemetry.ResultError, telemetry.ComponentScheduler)
		return
	}
	for _, a := range rows {
		if a.IsRecurring {
			continue
		}
		if _, ok := inMemory[a.ID()]; ok {
			continue
		}
		if !s.clock.IsExpired(a.UpdatedAt.Add(cleanupGracePeriod)) {
			continue
		}
		if _, err := s.store.Delete(ctx, a.CodeID, a.Email, a.LocalTime); err != nil {
			if s.log != nil {
				s.log.Warn("scheduler: cleanup orphaned-row delete failed", zap.String("alarm_id", a.ID()), zap.Error(err))
			}
		}
	}
	telemetry.RecordOperation(ctx, telemetry.OpCleanup, telemetry.ResultSuccess, telemetry.ComponentScheduler)
}

// emitStats logs the current alarm count and the per-hour distribution of
// the time index. Firing rates are recorded continuously on the OTel side
// by RecordFiring; this is the human-readable summary.
func (s *Scheduler) emitStats() {
	s.statsMu.Lock()
	fired := s.firedCount
	s.statsMu.Unlock()

	s.mu.RLock()
	count := len(s.table)
	perHour := make(map[int]int, len(s.index))
	for hh, minutes := range s.index {
		for _, seconds := range minutes {
			for _, leaf := range seconds {
				perHour[hh] += len(leaf)
			}
		}
	}
	s.mu.RUnlock()

	if s.log != nil {
		s.log.Info("scheduler: operational stats",
			zap.Int("alarm_count", count),
			zap.Int64("fired_since_start", fired),
			zap.Any("alarms_per_utc_hour", perHour))
	}
}

// FiredCount returns the number of AlarmEvents published since the
// scheduler started, for telemetry and tests.
func (s *Scheduler) FiredCount() int64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.firedCount
}

// State reports the scheduler's current lifecycle state.
func (s *Scheduler) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}
