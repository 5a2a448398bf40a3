package bandsync

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the terminal outcome of a sync.
type Kind string

const (
	KindNotPaired   Kind = "not-paired"
	KindTileMissing Kind = "tile-missing"
	KindCancelled   Kind = "cancelled"
	KindFailed      Kind = "failed"
	KindSucceeded   Kind = "succeeded"
)

var (
	// ErrCancelled is recorded when the context was done between two states.
	ErrCancelled = errors.New("sync cancelled")
	// ErrBusy is returned when another tile write holds the guard.
	ErrBusy = errors.New("sync already in progress")
)

// timeFormat renders status timestamps, e.g. 10/15/2026 3:04:05 PM.
const timeFormat = "1/2/2006 3:04:05 PM"

// Status is the result of one sync, add or remove. Message is what gets
// persisted under the lastsync key.
type Status struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
	Err     error     `json:"-"`
}

func (s Status) OK() bool {
	return s.Kind == KindSucceeded
}

// Busy reports whether the operation was rejected because another one was
// running.
func (s Status) Busy() bool {
	return errors.Is(s.Err, ErrBusy)
}

// BusyStatus is returned without touching the band or persisted settings.
func BusyStatus(at time.Time) Status {
	return Status{Kind: KindFailed, Message: ErrBusy.Error(), At: at, Err: ErrBusy}
}

// FailedStatus reports err as a failure with its message.
func FailedStatus(at time.Time, err error) Status {
	return Status{Kind: KindFailed, Message: err.Error(), At: at, Err: err}
}

// syncStatus builds the persisted status of a sync run.
func syncStatus(kind Kind, mode Mode, at time.Time, err error) Status {
	when := at.Format(timeFormat)
	label := mode.label()

	var msg string
	switch kind {
	case KindSucceeded:
		msg = fmt.Sprintf("Successful %s occurred at %s.", label, when)
	case KindNotPaired:
		msg = fmt.Sprintf("Skipped %s at %s: no paired band was found.", label, when)
	case KindTileMissing:
		msg = fmt.Sprintf("Skipped %s at %s: the weather tile is not installed.", label, when)
	case KindCancelled:
		msg = fmt.Sprintf("Cancelled %s at %s.", label, when)
	default:
		msg = fmt.Sprintf("Failed %s occurred at %s:\r\n%v", label, when, err)
	}

	return Status{Kind: kind, Message: msg, At: at, Err: err}
}
