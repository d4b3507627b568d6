package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/imperugo/sqs-dispatch/pkg/batch"
	"github.com/imperugo/sqs-dispatch/pkg/metrics"
	"github.com/imperugo/sqs-dispatch/pkg/resolve"
	"github.com/imperugo/sqs-dispatch/pkg/transport"
)

// Dispatcher turns a mixed-destination set of requests into transport batch
// send calls.
//
// A Dispatcher holds no mutable state; every Dispatch invocation builds its
// groups and batches locally and discards them when it returns.
type Dispatcher struct {
	log      *zap.SugaredLogger
	resolver resolve.Resolver
	tr       transport.Transport
	metrics  *metrics.Metrics
	cfg      Config
}

// NewDispatcher creates a Dispatcher. The metrics argument may be nil.
func NewDispatcher(log *zap.SugaredLogger, resolver resolve.Resolver, tr transport.Transport, m *metrics.Metrics, cfg Config) (*Dispatcher, error) {
	if log == nil {
		return nil, ErrInvalidLogger
	}
	if resolver == nil {
		return nil, ErrInvalidResolver
	}
	if tr == nil {
		return nil, ErrInvalidTransport
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Dispatcher{
		log:      log,
		resolver: resolver,
		tr:       tr,
		metrics:  m,
		cfg:      cfg,
	}, nil
}

// destinationGroup collects the requests of one resolved queue URL, in input
// order. Queue keeps the first logical name that resolved to the URL for
// error reporting.
type destinationGroup struct {
	queue    string
	url      string
	requests []OutboundRequest
}

// plannedBatch is one future transport batch send call.
type plannedBatch struct {
	queue    string
	url      string
	index    int
	requests []OutboundRequest
}

// Dispatch sends all requests using the configured MaxBatchSize.
func (d *Dispatcher) Dispatch(ctx context.Context, requests []OutboundRequest) error {
	return d.dispatch(ctx, requests, d.cfg.MaxBatchSize)
}

// dispatch groups requests by resolved destination, partitions each group and
// fans the batches out. It waits for every started batch before returning;
// the result is nil or one *Error naming every failed batch.
func (d *Dispatcher) dispatch(ctx context.Context, requests []OutboundRequest, maxBatchSize int) error {
	if maxBatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	for _, r := range requests {
		if r.DelaySeconds < 0 {
			return ErrInvalidDelay
		}
	}
	if len(requests) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &Error{Cancelled: err}
	}

	groups, failed := d.groupByDestination(ctx, requests)

	var planned []plannedBatch
	for _, g := range groups {
		chunks, err := batch.Chunks(g.requests, maxBatchSize)
		if err != nil {
			return err
		}
		for i, chunk := range chunks {
			planned = append(planned, plannedBatch{queue: g.queue, url: g.url, index: i, requests: chunk})
		}
	}

	limit := d.cfg.MaxConcurrentBatches
	if limit <= 0 {
		limit = int64(len(planned))
	}
	sem := semaphore.NewWeighted(limit)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		cancelled error
	)
	for _, pb := range planned {
		// Acquire blocks while MaxConcurrentBatches sends are in flight and
		// fails once the context is cancelled, so no new batch starts after
		// cancellation is observed.
		if err := sem.Acquire(ctx, 1); err != nil {
			cancelled = err
			break
		}
		wg.Add(1)
		go func(pb plannedBatch) {
			defer wg.Done()
			defer sem.Release(1)
			if err := d.sendBatch(ctx, pb); err != nil {
				mu.Lock()
				failed = append(failed, &BatchError{
					Queue:      pb.queue,
					QueueURL:   pb.url,
					BatchIndex: pb.index,
					Entries:    len(pb.requests),
					Err:        err,
				})
				mu.Unlock()
			}
		}(pb)
	}
	wg.Wait()

	if len(failed) == 0 && cancelled == nil {
		return nil
	}
	if cancelled != nil {
		d.metrics.IncError(metrics.ErrTypeCancelled)
	}
	return &Error{Planned: len(planned), Failed: failed, Cancelled: cancelled}
}

// groupByDestination resolves every distinct queue name once and groups the
// requests by resolved URL, preserving input order within each group. A name
// that fails to resolve fails all requests addressed to it, reported as one
// BatchError; the remaining groups are unaffected.
func (d *Dispatcher) groupByDestination(ctx context.Context, requests []OutboundRequest) ([]*destinationGroup, []*BatchError) {
	var (
		urls     = make(map[string]string)
		bad      = make(map[string]struct{})
		byURL    = make(map[string]*destinationGroup)
		groups   []*destinationGroup
		failures []*BatchError
	)
	for _, r := range requests {
		if _, ok := bad[r.Queue]; ok {
			continue
		}
		url, ok := urls[r.Queue]
		if !ok {
			var err error
			url, err = d.resolver.Resolve(ctx, r.Queue)
			if err != nil {
				d.log.Warnw("failed to resolve queue", "queue", r.Queue, "error", err)
				d.metrics.IncError(metrics.ErrTypeResolution)
				bad[r.Queue] = struct{}{}
				failures = append(failures, &BatchError{Queue: r.Queue, BatchIndex: -1, Err: err})
				continue
			}
			urls[r.Queue] = url
		}

		g, ok := byURL[url]
		if !ok {
			g = &destinationGroup{queue: r.Queue, url: url}
			byURL[url] = g
			groups = append(groups, g)
		}
		g.requests = append(g.requests, r)
	}
	return groups, failures
}

// sendBatch issues exactly one transport batch send call for pb, generating a
// fresh unique entry id per request.
func (d *Dispatcher) sendBatch(ctx context.Context, pb plannedBatch) error {
	entries := make([]transport.Entry, 0, len(pb.requests))
	for _, r := range pb.requests {
		entries = append(entries, transport.Entry{
			ID:           uuid.NewString(),
			Body:         r.Body,
			DelaySeconds: r.DelaySeconds,
		})
	}

	d.metrics.IncBatchesInFlight()
	defer d.metrics.DecBatchesInFlight()

	start := time.Now()
	err := d.tr.SendBatch(ctx, pb.url, entries)
	d.metrics.RecordBatchSent(len(entries), err, time.Since(start).Seconds())
	if err != nil {
		d.metrics.IncError(metrics.ErrTypeTransport)
		d.log.Warnw("batch send failed",
			"queue", pb.queue,
			"queueURL", pb.url,
			"batchIndex", pb.index,
			"entries", len(entries),
			"error", err,
		)
		return err
	}

	d.log.Debugw("batch sent", "queue", pb.queue, "batchIndex", pb.index, "entries", len(entries))
	return nil
}
