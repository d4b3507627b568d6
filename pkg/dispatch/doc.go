// Package dispatch implements batched, queue-grouped message dispatch.
//
// The Client facade accepts single values, lists of values, or pre-built raw
// requests. Every list operation funnels into the Dispatcher, which resolves
// each logical queue name once, groups requests by resolved queue URL,
// partitions every group into transport-sized batches, and fans the batches
// out with bounded, cancellable concurrency.
//
// List operations follow a complete-all policy: a failing batch never aborts
// its siblings. The caller receives either nil or a single *Error enumerating
// every failed batch with its queue, batch index and cause.
package dispatch
