package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"
)

// MaxSQSBatchEntries is the hard per-call entry limit of SendMessageBatch.
const MaxSQSBatchEntries = 10

var (
	ErrInvalidClient = errors.New("invalid sqs client: must not be nil")
	ErrInvalidLogger = errors.New("invalid logger: must not be nil")
)

// sqsSendAPI is the subset of the SQS client used for sending messages.
type sqsSendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// SQS is the Amazon SQS implementation of Transport.
type SQS struct {
	client sqsSendAPI
	log    *zap.SugaredLogger
}

// NewSQS creates an SQS transport. The client is typically a *sqs.Client from
// aws-sdk-go-v2.
func NewSQS(client sqsSendAPI, log *zap.SugaredLogger) (*SQS, error) {
	if client == nil {
		return nil, ErrInvalidClient
	}
	if log == nil {
		return nil, ErrInvalidLogger
	}
	return &SQS{client: client, log: log}, nil
}

// SendSingle sends one message via SendMessage.
func (t *SQS) SendSingle(ctx context.Context, queueURL, body string, delaySeconds int32) error {
	_, err := t.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(queueURL),
		MessageBody:  aws.String(body),
		DelaySeconds: delaySeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", queueURL, err)
	}
	return nil
}

// SendBatch sends all entries in one SendMessageBatch call.
//
// Entries rejected by SQS (oversize body, throttling, validation) are
// reported in a single error wrapping ErrBatchEntriesFailed; accepted entries
// in the same call are not rolled back.
func (t *SQS) SendBatch(ctx context.Context, queueURL string, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyBatch
	}
	if len(entries) > MaxSQSBatchEntries {
		return fmt.Errorf("%w: %d entries, limit %d", ErrBatchTooLarge, len(entries), MaxSQSBatchEntries)
	}

	batchEntries := make([]types.SendMessageBatchRequestEntry, 0, len(entries))
	for _, e := range entries {
		batchEntries = append(batchEntries, types.SendMessageBatchRequestEntry{
			Id:           aws.String(e.ID),
			MessageBody:  aws.String(e.Body),
			DelaySeconds: e.DelaySeconds,
		})
	}

	out, err := t.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: aws.String(queueURL),
		Entries:  batchEntries,
	})
	if err != nil {
		return fmt.Errorf("failed to send batch of %d to %s: %w", len(entries), queueURL, err)
	}

	if len(out.Failed) > 0 {
		return fmt.Errorf("%w: %s", ErrBatchEntriesFailed, describeFailed(out.Failed))
	}

	t.log.Debugw("sent batch", "queueURL", queueURL, "entries", len(entries))
	return nil
}

func describeFailed(failed []types.BatchResultErrorEntry) string {
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		parts = append(parts, fmt.Sprintf("id=%s code=%s senderFault=%t message=%q",
			aws.ToString(f.Id), aws.ToString(f.Code), f.SenderFault, aws.ToString(f.Message)))
	}
	return strings.Join(parts, "; ")
}
