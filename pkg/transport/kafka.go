package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const kafkaFlushTimeoutMs = 10000

// entryIDHeader carries the batch entry id so per-entry delivery reports can
// be correlated on the consumer side.
const entryIDHeader = "x-entry-id"

var ErrInvalidProducer = errors.New("invalid kafka producer: must not be nil")

// Kafka is a Kafka implementation of Transport where the queue URL is a topic
// name.
//
// Sends are synchronous: each call blocks until a delivery report is received
// for every produced message. Kafka has no broker-side delayed delivery, so
// any entry with a nonzero delay is rejected with ErrDelayNotSupported.
//
// Close MUST be called exactly once to flush in-flight messages and release
// the producer.
type Kafka struct {
	producer *kafka.Producer
	log      *zap.SugaredLogger
	once     sync.Once
}

// NewKafka creates a Kafka-backed Transport.
func NewKafka(conf *kafka.ConfigMap, log *zap.SugaredLogger) (*Kafka, error) {
	if log == nil {
		return nil, ErrInvalidLogger
	}
	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &Kafka{producer: p, log: log}, nil
}

// SendSingle produces one message to the topic and waits for its delivery
// report.
func (t *Kafka) SendSingle(ctx context.Context, topic, body string, delaySeconds int32) error {
	if delaySeconds != 0 {
		return fmt.Errorf("%w: delaySeconds=%d", ErrDelayNotSupported, delaySeconds)
	}
	return t.SendBatch(ctx, topic, []Entry{{Body: body}})
}

// SendBatch produces all entries to the topic, then waits for every delivery
// report. A failed delivery is reported once per batch, wrapping
// ErrBatchEntriesFailed; already delivered entries are not rolled back.
func (t *Kafka) SendBatch(ctx context.Context, topic string, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyBatch
	}
	for _, e := range entries {
		if e.DelaySeconds != 0 {
			return fmt.Errorf("%w: entry %s has delaySeconds=%d", ErrDelayNotSupported, e.ID, e.DelaySeconds)
		}
	}

	deliveryCh := make(chan kafka.Event, len(entries))
	produced := 0
	var produceErr error
	for _, e := range entries {
		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{
				Topic:     &topic,
				Partition: kafka.PartitionAny,
			},
			Value: []byte(e.Body),
		}
		if e.ID != "" {
			msg.Headers = []kafka.Header{{Key: entryIDHeader, Value: []byte(e.ID)}}
		}
		if err := t.producer.Produce(msg, deliveryCh); err != nil {
			produceErr = fmt.Errorf("failed to produce entry %s: %w", e.ID, err)
			break
		}
		produced++
	}

	// Wait for the reports of everything that was handed to the producer,
	// even when a later Produce call failed.
	var failed []string
	for range produced {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-deliveryCh:
			if err := deliveryError(ev); err != nil {
				failed = append(failed, err.Error())
			}
		}
	}

	if produceErr != nil {
		return produceErr
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d deliveries failed: %v",
			ErrBatchEntriesFailed, len(failed), produced, failed)
	}

	t.log.Debugw("delivered batch", "topic", topic, "entries", produced)
	return nil
}

// Close flushes pending messages and closes the producer. Calling Close more
// than once does nothing.
func (t *Kafka) Close() {
	t.once.Do(func() {
		if remaining := t.producer.Flush(kafkaFlushTimeoutMs); remaining > 0 {
			t.log.Warnw("closing kafka producer with unflushed messages", "remaining", remaining)
		}
		t.producer.Close()
	})
}

func deliveryError(ev kafka.Event) error {
	switch e := ev.(type) {
	case *kafka.Message:
		if err := e.TopicPartition.Error; err != nil {
			return fmt.Errorf("delivery failed: %w", err)
		}
		return nil
	case kafka.Error:
		return fmt.Errorf("kafka error: code=%d fatal=%t: %w", e.Code(), e.IsFatal(), e)
	default:
		return fmt.Errorf("unexpected delivery event: %T", ev)
	}
}
