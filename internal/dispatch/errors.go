package dispatch

import (
	"errors"
	"fmt"

	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

var ErrUsage = errors.New("dispatch usage error")

// UsageError signals a driver bug: dispatch after finish, finish twice, an
// unknown entity kind, or use of a handler that already aborted.
type UsageError struct {
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("dispatch %s: %s", e.Op, e.Reason)
}

func (e *UsageError) Is(target error) bool { return target == ErrUsage }

// SequenceError is returned when an entity's group comes before the group
// that is already active, e.g. a node after ways started.
type SequenceError struct {
	Current osm.EntityKind
	Got     osm.EntityKind
	ID      int64
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("dispatch: %s %d arrived after %s group started", e.Got, e.ID, e.Current)
}

// CallbackError wraps an error returned by a registered callback.
type CallbackError struct {
	Event Event
	Err   error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("dispatch: %s callback: %v", e.Event, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }
