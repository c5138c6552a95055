// Package store defines the durable-store interface the scheduler and
// processor depend on, independent of the backing engine.
package store

import (
	"context"

	"github.com/cloud-nimbus/chronoguard/internal/alarm"
)

// Store is the external relational mirror backing the in-memory scheduler.
// Implementations must raise AlreadyExistsError on a primary-key collision
// in Insert, and must treat Delete of a missing row as success reporting
// zero affected rows rather than an error.
type Store interface {
	// Insert adds a.  Returns *errors.AlreadyExistsError on a
	// (code_id, email, local_time) collision.
	Insert(ctx context.Context, a alarm.Alarm) error
	// Delete removes the row keyed by (codeID, email, localTime) and
	// reports how many rows were affected (0 or 1).
	Delete(ctx context.Context, codeID, email, localTime string) (int64, error)
	// SelectAll returns every alarm row in the store, in no particular
	// order; callers needing a stable ordering sort the result themselves.
	SelectAll(ctx context.Context) ([]alarm.Alarm, error)
	// GetDescription returns the human-readable description registered for
	// codeID, or ok=false if none is registered.
	GetDescription(ctx context.Context, codeID string) (description string, ok bool, err error)
	// Close releases any underlying resources (connection pool, etc).
	Close()
}
