// v0
// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// Filter narrows a Query. An empty UserID selects every user; a zero Since selects all time.
type Filter struct {
	UserID string
	Since  time.Time
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e scan.Event) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Store is the append-only event log behind the analytics pipeline.
// Implementations must be safe for concurrent use and append atomically.
type Store interface {
	// Append validates e, assigns an id and server timestamp when absent and persists it.
	Append(ctx context.Context, e scan.Event) (scan.Event, error)
	// Query returns every matching event in no particular order.
	Query(ctx context.Context, f Filter) ([]scan.Event, error)
	// Clear removes every event and reports how many were deleted.
	Clear(ctx context.Context) (int64, error)
	Close() error
}

// Pinger is implemented by stores backed by a remote engine.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// ErrTransient is matched by every TransientError through errors.Is.
var ErrTransient = errors.New("event store unavailable")

// TransientError marks a failure of the storage medium. Callers must surface it
// as a failed fetch and never substitute zero data.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("event store %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Is lets callers match with errors.Is(err, ErrTransient).
func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// Transient wraps err as a TransientError unless it already is one.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}

// prepare normalises and validates e and fills the server-side defaults.
func prepare(e scan.Event, now func() time.Time) (scan.Event, error) {
	e = scan.Normalize(e)
	if err := scan.Validate(e); err != nil {
		return scan.Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now().UTC()
	}
	return e, nil
}
