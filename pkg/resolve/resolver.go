// Package resolve maps logical queue names to the physical queue URLs used by
// the transport.
//
// Resolution is idempotent: a name that is already a queue URL resolves to
// itself. The Cached wrapper memoizes lookups so that repeated dispatch calls
// for the same queue do not hit the backend.
package resolve

import (
	"context"
	"errors"
)

var (
	ErrQueueNotFound   = errors.New("queue not found")
	ErrInvalidResolver = errors.New("invalid resolver: must not be nil")
)

// Resolver maps a logical queue name to a physical queue URL.
type Resolver interface {
	// Resolve returns the queue URL for the given logical name.
	//
	// Resolution is a pure function of the name: resolving the same name
	// twice returns the same URL. Passing an already resolved URL returns it
	// unchanged. Returns an error wrapping ErrQueueNotFound when no queue
	// exists for the name.
	Resolve(ctx context.Context, name string) (string, error)
}

// Identity resolves every name to itself. Used for transports whose
// destinations need no lookup, such as Kafka topics.
type Identity struct{}

func (Identity) Resolve(_ context.Context, name string) (string, error) {
	return name, nil
}
