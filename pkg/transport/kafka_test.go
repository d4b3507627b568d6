package transport

import (
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestKafka(t *testing.T) *Kafka {
	t.Helper()
	tr, err := NewKafka(&kafka.ConfigMap{
		"bootstrap.servers": "localhost:9092",
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(tr.Close)
	return tr
}

func TestKafkaRejectsDelayedDelivery(t *testing.T) {
	tr := newTestKafka(t)

	err := tr.SendSingle(t.Context(), "orders", "body", 30)
	require.ErrorIs(t, err, ErrDelayNotSupported)

	err = tr.SendBatch(t.Context(), "orders", []Entry{
		{ID: "a", Body: "x"},
		{ID: "b", Body: "y", DelaySeconds: 10},
	})
	require.ErrorIs(t, err, ErrDelayNotSupported)
}

func TestKafkaSendBatchEmpty(t *testing.T) {
	tr := newTestKafka(t)
	require.ErrorIs(t, tr.SendBatch(t.Context(), "orders", nil), ErrEmptyBatch)
}

func TestKafkaCloseIdempotent(t *testing.T) {
	tr, err := NewKafka(&kafka.ConfigMap{
		"bootstrap.servers": "localhost:9092",
	}, zap.NewNop().Sugar())
	require.NoError(t, err)

	tr.Close()
	tr.Close()
}

func TestNewKafkaValidation(t *testing.T) {
	_, err := NewKafka(&kafka.ConfigMap{}, nil)
	require.ErrorIs(t, err, ErrInvalidLogger)
}
