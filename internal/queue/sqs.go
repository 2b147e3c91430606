package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"vodconverter/internal/logging"
)

// SQSAPI is the subset of the SQS client used by the consumer.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSOptions configures long polling.
type SQSOptions struct {
	QueueURL          string
	WaitTimeSeconds   int32
	MaxMessages       int32
	VisibilityTimeout int32
}

// SQSConsumer receives job messages from an SQS queue.
type SQSConsumer struct {
	client SQSAPI
	opts   SQSOptions
	logger *slog.Logger
}

// NewSQS constructs an SQS-backed consumer.
func NewSQS(client SQSAPI, opts SQSOptions, logger *slog.Logger) *SQSConsumer {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SQSConsumer{
		client: client,
		opts:   opts,
		logger: logger.With(logging.String(logging.FieldComponent, "queue.sqs")),
	}
}

// Receive long-polls the queue once.
func (c *SQSConsumer) Receive(ctx context.Context) ([]Message, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(c.opts.QueueURL),
		MaxNumberOfMessages:   c.opts.MaxMessages,
		WaitTimeSeconds:       c.opts.WaitTimeSeconds,
		MessageAttributeNames: []string{"All"},
	}
	if c.opts.VisibilityTimeout > 0 {
		input.VisibilityTimeout = c.opts.VisibilityTimeout
	}
	out, err := c.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("receive sqs messages: %w", err)
	}
	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msg := Message{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		}
		if len(m.MessageAttributes) > 0 {
			msg.Attributes = make(map[string]string, len(m.MessageAttributes))
			for name, attr := range m.MessageAttributes {
				msg.Attributes[name] = aws.ToString(attr.StringValue)
			}
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		c.logger.Debug("received messages", logging.Int("count", len(messages)))
	}
	return messages, nil
}

// Ack deletes the message from the queue.
func (c *SQSConsumer) Ack(ctx context.Context, msg Message) error {
	if msg.ReceiptHandle == "" {
		return fmt.Errorf("ack message %s: missing receipt handle", msg.ID)
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.opts.QueueURL),
		ReceiptHandle: aws.String(msg.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete sqs message %s: %w", msg.ID, err)
	}
	return nil
}

// Close is a no-op; the SQS client holds no connections of its own.
func (c *SQSConsumer) Close() error { return nil }
