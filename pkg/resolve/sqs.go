package resolve

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

// sqsURLAPI is the subset of the SQS client used for queue URL lookups.
type sqsURLAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
}

// SQSConfig configures logical name decoration before lookup.
//
// Prefix and Suffix let one deployment address a per-environment queue family
// (e.g. Prefix "staging-") without the callers knowing about it.
type SQSConfig struct {
	Prefix string
	Suffix string
}

// SQS resolves logical queue names to SQS queue URLs via GetQueueUrl.
type SQS struct {
	client sqsURLAPI
	log    *zap.SugaredLogger
	cfg    SQSConfig
}

// NewSQS creates an SQS-backed Resolver. The client is typically a
// *sqs.Client from aws-sdk-go-v2.
func NewSQS(client sqsURLAPI, log *zap.SugaredLogger, cfg SQSConfig) (*SQS, error) {
	if client == nil {
		return nil, ErrInvalidClient
	}
	if log == nil {
		return nil, ErrInvalidLogger
	}
	return &SQS{client: client, log: log, cfg: cfg}, nil
}

var (
	ErrInvalidClient = errors.New("invalid sqs client: must not be nil")
	ErrInvalidLogger = errors.New("invalid logger: must not be nil")
)

// Resolve looks up the queue URL for name, applying the configured prefix and
// suffix first. A name that is already a URL is returned as-is, undecorated.
func (r *SQS) Resolve(ctx context.Context, name string) (string, error) {
	if isQueueURL(name) {
		return name, nil
	}

	queueName := r.cfg.Prefix + name + r.cfg.Suffix
	out, err := r.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queueName),
	})
	if err != nil {
		var notFound *types.QueueDoesNotExist
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %q", ErrQueueNotFound, queueName)
		}
		return "", fmt.Errorf("failed to resolve queue %q: %w", queueName, err)
	}

	url := aws.ToString(out.QueueUrl)
	r.log.Debugw("resolved queue", "name", queueName, "url", url)
	return url, nil
}

func isQueueURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}
