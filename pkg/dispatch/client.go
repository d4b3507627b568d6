package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imperugo/sqs-dispatch/pkg/metrics"
	"github.com/imperugo/sqs-dispatch/pkg/resolve"
	"github.com/imperugo/sqs-dispatch/pkg/serialize"
	"github.com/imperugo/sqs-dispatch/pkg/transport"
)

// Client is the public dispatch facade.
//
// Single-item operations propagate the first error directly and use the
// transport's plain send. List operations delegate to the Dispatcher and
// return either nil or one aggregate *Error.
type Client struct {
	log        *zap.SugaredLogger
	resolver   resolve.Resolver
	serializer serialize.Serializer
	tr         transport.Transport
	metrics    *metrics.Metrics
	dispatcher *Dispatcher
	cfg        Config
}

// NewClient creates a Client. The metrics argument may be nil.
func NewClient(log *zap.SugaredLogger, resolver resolve.Resolver, serializer serialize.Serializer, tr transport.Transport, m *metrics.Metrics, cfg Config) (*Client, error) {
	if serializer == nil {
		return nil, ErrInvalidSerializer
	}
	dispatcher, err := NewDispatcher(log, resolver, tr, m, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		log:        log,
		resolver:   resolver,
		serializer: serializer,
		tr:         tr,
		metrics:    m,
		dispatcher: dispatcher,
		cfg:        cfg,
	}, nil
}

// SendOption overrides a Config default for a single call.
type SendOption func(*sendOptions)

type sendOptions struct {
	delaySeconds int32
	maxBatchSize int
}

// WithDelaySeconds sets the delivery delay applied to every message the call
// serializes, overriding Config.DefaultDelaySeconds. Raw sends ignore it;
// their requests carry their own delay.
func WithDelaySeconds(seconds int32) SendOption {
	return func(o *sendOptions) { o.delaySeconds = seconds }
}

// WithMaxBatchSize caps entries per transport batch call for this call only.
// It has no effect on single-message sends.
func WithMaxBatchSize(size int) SendOption {
	return func(o *sendOptions) { o.maxBatchSize = size }
}

func (c *Client) sendOptions(opts []SendOption) (sendOptions, error) {
	o := sendOptions{
		delaySeconds: c.cfg.DefaultDelaySeconds,
		maxBatchSize: c.cfg.MaxBatchSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.delaySeconds < 0 {
		return sendOptions{}, ErrInvalidDelay
	}
	if o.maxBatchSize <= 0 {
		return sendOptions{}, ErrInvalidBatchSize
	}
	return o, nil
}

// SendOne serializes value and sends it to the queue as a single message.
func (c *Client) SendOne(ctx context.Context, queue string, value any, opts ...SendOption) error {
	o, err := c.sendOptions(opts)
	if err != nil {
		return err
	}

	body, err := c.serializer.Serialize(value)
	if err != nil {
		return fmt.Errorf("failed to serialize payload for queue %q: %w", queue, err)
	}

	return c.SendRaw(ctx, OutboundRequest{
		Queue:        queue,
		Body:         body,
		DelaySeconds: o.delaySeconds,
	})
}

// SendMany serializes every value and dispatches one message per value, all
// addressed to the queue.
//
// A value that fails to serialize fails only that value: no transport call is
// made for it, and it is reported in the aggregate error alongside any batch
// failures while the remaining values are still dispatched.
func (c *Client) SendMany(ctx context.Context, queue string, values []any, opts ...SendOption) error {
	o, err := c.sendOptions(opts)
	if err != nil {
		return err
	}

	requests := make([]OutboundRequest, 0, len(values))
	var failed []*BatchError
	for i, v := range values {
		body, err := c.serializer.Serialize(v)
		if err != nil {
			c.log.Warnw("failed to serialize payload", "queue", queue, "index", i, "error", err)
			failed = append(failed, &BatchError{
				Queue:      queue,
				BatchIndex: -1,
				Err:        fmt.Errorf("failed to serialize value %d: %w", i, err),
			})
			continue
		}
		requests = append(requests, OutboundRequest{
			Queue:        queue,
			Body:         body,
			DelaySeconds: o.delaySeconds,
		})
	}

	err = c.dispatcher.dispatch(ctx, requests, o.maxBatchSize)
	if len(failed) == 0 {
		return err
	}

	agg := &Error{Failed: failed}
	if err != nil {
		var dispatchErr *Error
		if !errors.As(err, &dispatchErr) {
			return err
		}
		agg.Planned = dispatchErr.Planned
		agg.Failed = append(agg.Failed, dispatchErr.Failed...)
		agg.Cancelled = dispatchErr.Cancelled
	}
	return agg
}

// SendRaw resolves the request's queue and sends it as a single message using
// the plain send operation.
func (c *Client) SendRaw(ctx context.Context, req OutboundRequest) error {
	if req.DelaySeconds < 0 {
		return ErrInvalidDelay
	}

	url, err := c.resolver.Resolve(ctx, req.Queue)
	if err != nil {
		c.metrics.IncError(metrics.ErrTypeResolution)
		return fmt.Errorf("failed to resolve queue %q: %w", req.Queue, err)
	}

	start := time.Now()
	err = c.tr.SendSingle(ctx, url, req.Body, req.DelaySeconds)
	c.metrics.RecordSingleSend(err)
	if err != nil {
		c.metrics.IncError(metrics.ErrTypeTransport)
		return fmt.Errorf("failed to send message to queue %q: %w", req.Queue, err)
	}

	c.log.Debugw("message sent", "queue", req.Queue, "delaySeconds", req.DelaySeconds, "duration", time.Since(start))
	return nil
}

// SendRawMany dispatches pre-built requests, which may span multiple queues.
// Each request's own DelaySeconds is used; WithDelaySeconds has no effect.
func (c *Client) SendRawMany(ctx context.Context, requests []OutboundRequest, opts ...SendOption) error {
	o, err := c.sendOptions(opts)
	if err != nil {
		return err
	}
	return c.dispatcher.dispatch(ctx, requests, o.maxBatchSize)
}
