// Package errors defines the typed error kinds used across the scheduler,
// store, bus, processor, and notifier.
package errors

// Error messages for top-level setup operations.
const (
	ErrLoadConfig   = "failed to load configuration"
	ErrSetupOTel    = "failed to setup OpenTelemetry"
	ErrShutdownOTel = "failed to shutdown tracer provider"
	ErrStartStore   = "unable to open store connection pool"
	ErrStartBus     = "unable to connect to event bus"
)

// InvalidTimeError is returned when a local_time string is malformed or has
// an out-of-range component. Surfaced at the API boundary; never reaches the
// tick loop because Schedule validates before indexing.
type InvalidTimeError struct {
	Value string
	Err   error
}

func (e *InvalidTimeError) Error() string {
	return "invalid time \"" + e.Value + "\": " + e.Err.Error()
}

func (e *InvalidTimeError) Unwrap() error { return e.Err }

// NewInvalidTimeError creates an InvalidTimeError.
func NewInvalidTimeError(value string, err error) *InvalidTimeError {
	return &InvalidTimeError{Value: value, Err: err}
}

// InvalidTimezoneError is returned when a timezone name is not a known IANA
// zone.
type InvalidTimezoneError struct {
	Zone string
	Err  error
}

func (e *InvalidTimezoneError) Error() string {
	return "invalid timezone \"" + e.Zone + "\": " + e.Err.Error()
}

func (e *InvalidTimezoneError) Unwrap() error { return e.Err }

// NewInvalidTimezoneError creates an InvalidTimezoneError.
func NewInvalidTimezoneError(zone string, err error) *InvalidTimezoneError {
	return &InvalidTimezoneError{Zone: zone, Err: err}
}

// AlreadyExistsError is returned when an alarm's primary key
// (code_id, email, local_time) already exists in the store.
type AlreadyExistsError struct {
	AlarmID string
}

func (e *AlreadyExistsError) Error() string {
	return "alarm already exists: " + e.AlarmID
}

// NewAlreadyExistsError creates an AlreadyExistsError.
func NewAlreadyExistsError(alarmID string) *AlreadyExistsError {
	return &AlreadyExistsError{AlarmID: alarmID}
}

// NotFoundError is returned when a lookup misses. Unschedule never
// surfaces this to its caller (it reports "not found" as a status, not an
// error); Scheduler.UpdateRecurrence returns it for an alarm that is not in
// the in-memory table.
type NotFoundError struct {
	AlarmID string
}

func (e *NotFoundError) Error() string {
	return "alarm not found: " + e.AlarmID
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(alarmID string) *NotFoundError {
	return &NotFoundError{AlarmID: alarmID}
}

// StoreUnavailableError wraps a transient failure talking to the durable
// store. The tick loop is unaffected by this error class since it never
// reads the store directly.
type StoreUnavailableError struct {
	Operation string
	Err       error
}

func (e *StoreUnavailableError) Error() string {
	return "store unavailable during " + e.Operation + ": " + e.Err.Error()
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// NewStoreUnavailableError creates a StoreUnavailableError.
func NewStoreUnavailableError(operation string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{Operation: operation, Err: err}
}

// BusUnavailableError wraps a failed publish to the event bus. The caller
// logs and drops the event; recurring alarms retry naturally on the next
// matching day.
type BusUnavailableError struct {
	Topic string
	Err   error
}

func (e *BusUnavailableError) Error() string {
	return "bus unavailable publishing to " + e.Topic + ": " + e.Err.Error()
}

func (e *BusUnavailableError) Unwrap() error { return e.Err }

// NewBusUnavailableError creates a BusUnavailableError.
func NewBusUnavailableError(topic string, err error) *BusUnavailableError {
	return &BusUnavailableError{Topic: topic, Err: err}
}

// DescriptionLookupFailedError is never returned to a caller that aborts
// processing; the processor catches it and substitutes a synthetic
// description. It exists so the substitution decision can be logged with
// the original cause attached.
type DescriptionLookupFailedError struct {
	CodeID string
	Err    error
}

func (e *DescriptionLookupFailedError) Error() string {
	return "description lookup failed for " + e.CodeID + ": " + e.Err.Error()
}

func (e *DescriptionLookupFailedError) Unwrap() error { return e.Err }

// NewDescriptionLookupFailedError creates a DescriptionLookupFailedError.
func NewDescriptionLookupFailedError(codeID string, err error) *DescriptionLookupFailedError {
	return &DescriptionLookupFailedError{CodeID: codeID, Err: err}
}

// ConfigError represents configuration related errors.
type ConfigError struct {
	Operation string
	Err       error
}

func (e *ConfigError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new configuration error.
func NewConfigError(operation string, err error) *ConfigError {
	return &ConfigError{Operation: operation, Err: err}
}

// OTelError represents OpenTelemetry setup/shutdown errors.
type OTelError struct {
	Operation string
	Err       error
}

func (e *OTelError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e *OTelError) Unwrap() error { return e.Err }

// NewOTelError creates a new OpenTelemetry error.
func NewOTelError(operation string, err error) *OTelError {
	return &OTelError{Operation: operation, Err: err}
}
