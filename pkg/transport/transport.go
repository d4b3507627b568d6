package transport

import (
	"context"
	"errors"
)

var (
	ErrEmptyBatch         = errors.New("batch must contain at least one entry")
	ErrBatchTooLarge      = errors.New("batch exceeds the transport entry limit")
	ErrBatchEntriesFailed = errors.New("transport rejected one or more batch entries")
	ErrDelayNotSupported  = errors.New("transport does not support delayed delivery")
)

// Entry is a single message inside one batch send call.
//
// ID correlates per-entry transport results within that call and carries no
// meaning outside of it.
type Entry struct {
	ID           string
	Body         string
	DelaySeconds int32
}

// Transport sends messages to a resolved queue URL.
//
// Implementations must not retry; transient failures are surfaced to the
// caller as-is.
type Transport interface {
	// SendSingle sends one message using the transport's plain send operation.
	SendSingle(ctx context.Context, queueURL, body string, delaySeconds int32) error

	// SendBatch sends all entries in one transport call. Entries must carry
	// pairwise distinct IDs and the batch must respect the transport's entry
	// limit. A partially failed batch is reported as an error wrapping
	// ErrBatchEntriesFailed that names every rejected entry.
	SendBatch(ctx context.Context, queueURL string, entries []Entry) error
}
