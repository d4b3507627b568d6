package dispatch

import (
	"github.com/imperugo/sqs-dispatch/pkg/transport"
)

// Config holds the dispatch tuning knobs.
type Config struct {
	// MaxBatchSize caps entries per transport batch call. Must be in
	// [1, transport.MaxSQSBatchEntries] for the SQS transport.
	MaxBatchSize int

	// MaxConcurrentBatches caps in-flight batch send calls for one dispatch
	// invocation. Zero means no explicit cap (one goroutine per batch).
	MaxConcurrentBatches int64

	// DefaultDelaySeconds is applied to every message unless overridden
	// per call or per request.
	DefaultDelaySeconds int32
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:         transport.MaxSQSBatchEntries,
		MaxConcurrentBatches: 0,
		DefaultDelaySeconds:  0,
	}
}

func (c Config) validate() error {
	if c.MaxBatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxConcurrentBatches < 0 {
		return ErrInvalidConcurrency
	}
	if c.DefaultDelaySeconds < 0 {
		return ErrInvalidDelay
	}
	return nil
}
