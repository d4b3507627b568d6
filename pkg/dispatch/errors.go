package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidBatchSize   = errors.New("invalid max batch size: must be greater than 0")
	ErrInvalidConcurrency = errors.New("invalid max concurrent batches: must not be negative")
	ErrInvalidDelay       = errors.New("invalid delay seconds: must not be negative")
	ErrInvalidLogger      = errors.New("invalid logger: must not be nil")
	ErrInvalidResolver    = errors.New("invalid resolver: must not be nil")
	ErrInvalidSerializer  = errors.New("invalid serializer: must not be nil")
	ErrInvalidTransport   = errors.New("invalid transport: must not be nil")
)

// BatchError describes one failed unit of a dispatch call.
//
// BatchIndex is the zero-based batch position within the destination group.
// It is -1 when the failure happened before any batch was formed (queue
// resolution or payload serialization).
type BatchError struct {
	Queue      string
	QueueURL   string
	BatchIndex int
	Entries    int
	Err        error
}

func (e *BatchError) Error() string {
	if e.BatchIndex < 0 {
		return fmt.Sprintf("queue %q: %v", e.Queue, e.Err)
	}
	return fmt.Sprintf("queue %q batch %d (%d entries): %v", e.Queue, e.BatchIndex, e.Entries, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Error is the aggregate failure of one list dispatch call. It enumerates
// every failed batch; sibling batches that succeeded are not rolled back.
//
// Cancelled is non-nil when the dispatch observed cancellation and stopped
// starting new batches; outcomes of batches already in flight are still
// included in Failed.
type Error struct {
	Planned   int
	Failed    []*BatchError
	Cancelled error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Cancelled != nil {
		fmt.Fprintf(&sb, "dispatch cancelled: %v", e.Cancelled)
		if len(e.Failed) == 0 {
			return sb.String()
		}
		sb.WriteString("; ")
	}
	if e.Planned > 0 {
		fmt.Fprintf(&sb, "dispatch failed for %d of %d batches", len(e.Failed), e.Planned)
	} else {
		fmt.Fprintf(&sb, "dispatch failed for %d units", len(e.Failed))
	}
	for _, f := range e.Failed {
		sb.WriteString(": ")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

// Unwrap exposes every underlying failure, so errors.Is and errors.As work
// through the aggregate (e.g. errors.Is(err, context.Canceled)).
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+1)
	for _, f := range e.Failed {
		errs = append(errs, f)
	}
	if e.Cancelled != nil {
		errs = append(errs, e.Cancelled)
	}
	return errs
}
