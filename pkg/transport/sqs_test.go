package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSQSSendAPI struct {
	mock.Mock
}

func (m *mockSQSSendAPI) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sqs.SendMessageOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSQSSendAPI) SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sqs.SendMessageBatchOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

const testQueueURL = "https://sqs.eu-west-1.amazonaws.com/123/orders"

func TestSQSSendSingle(t *testing.T) {
	t.Parallel()
	api := &mockSQSSendAPI{}
	api.
		On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			return aws.ToString(in.QueueUrl) == testQueueURL &&
				aws.ToString(in.MessageBody) == `{"id":1}` &&
				in.DelaySeconds == 30
		})).
		Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil).
		Once()

	tr, err := NewSQS(api, zap.NewNop().Sugar())
	require.NoError(t, err)

	require.NoError(t, tr.SendSingle(t.Context(), testQueueURL, `{"id":1}`, 30))
	api.AssertExpectations(t)
}

func TestSQSSendBatchMapsEntries(t *testing.T) {
	t.Parallel()
	api := &mockSQSSendAPI{}
	api.
		On("SendMessageBatch", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageBatchInput) bool {
			if aws.ToString(in.QueueUrl) != testQueueURL || len(in.Entries) != 2 {
				return false
			}
			return aws.ToString(in.Entries[0].Id) == "a" &&
				aws.ToString(in.Entries[0].MessageBody) == "one" &&
				in.Entries[0].DelaySeconds == 5 &&
				aws.ToString(in.Entries[1].Id) == "b"
		})).
		Return(&sqs.SendMessageBatchOutput{}, nil).
		Once()

	tr, err := NewSQS(api, zap.NewNop().Sugar())
	require.NoError(t, err)

	err = tr.SendBatch(t.Context(), testQueueURL, []Entry{
		{ID: "a", Body: "one", DelaySeconds: 5},
		{ID: "b", Body: "two"},
	})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestSQSSendBatchSizeLimits(t *testing.T) {
	t.Parallel()
	tr, err := NewSQS(&mockSQSSendAPI{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	err = tr.SendBatch(t.Context(), testQueueURL, nil)
	require.ErrorIs(t, err, ErrEmptyBatch)

	oversize := make([]Entry, MaxSQSBatchEntries+1)
	err = tr.SendBatch(t.Context(), testQueueURL, oversize)
	require.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestSQSSendBatchPartialFailure(t *testing.T) {
	t.Parallel()
	api := &mockSQSSendAPI{}
	api.
		On("SendMessageBatch", mock.Anything, mock.Anything).
		Return(&sqs.SendMessageBatchOutput{
			Successful: []types.SendMessageBatchResultEntry{{Id: aws.String("a")}},
			Failed: []types.BatchResultErrorEntry{{
				Id:          aws.String("b"),
				Code:        aws.String("MessageTooLong"),
				SenderFault: true,
				Message:     aws.String("body exceeds limit"),
			}},
		}, nil).
		Once()

	tr, err := NewSQS(api, zap.NewNop().Sugar())
	require.NoError(t, err)

	err = tr.SendBatch(t.Context(), testQueueURL, []Entry{{ID: "a", Body: "x"}, {ID: "b", Body: "y"}})
	require.ErrorIs(t, err, ErrBatchEntriesFailed)
	assert.Contains(t, err.Error(), "id=b")
	assert.Contains(t, err.Error(), "MessageTooLong")
	api.AssertExpectations(t)
}

func TestSQSSendBatchTransportError(t *testing.T) {
	t.Parallel()
	api := &mockSQSSendAPI{}
	sendErr := errors.New("throttled")
	api.
		On("SendMessageBatch", mock.Anything, mock.Anything).
		Return(nil, sendErr).
		Once()

	tr, err := NewSQS(api, zap.NewNop().Sugar())
	require.NoError(t, err)

	err = tr.SendBatch(t.Context(), testQueueURL, []Entry{{ID: "a", Body: "x"}})
	require.ErrorIs(t, err, sendErr)
	api.AssertExpectations(t)
}

func TestNewSQSValidation(t *testing.T) {
	t.Parallel()
	_, err := NewSQS(nil, zap.NewNop().Sugar())
	require.ErrorIs(t, err, ErrInvalidClient)

	_, err = NewSQS(&mockSQSSendAPI{}, nil)
	require.ErrorIs(t, err, ErrInvalidLogger)
}
