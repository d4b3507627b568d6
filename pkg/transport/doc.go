// Package transport provides the queue transports used by the dispatcher.
//
// The package defines a narrow Transport interface with a plain single-message
// send and a batch send, plus two implementations: SQS (the primary backend)
// and Kafka. Transports never retry; retry policy belongs to the caller or the
// underlying SDK.
package transport
