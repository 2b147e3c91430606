package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"vodconverter/internal/config"
	"vodconverter/internal/queue"
)

type fakeSQS struct {
	receiveInput *sqs.ReceiveMessageInput
	messages     []types.Message
	receiveErr   error
	deleted      []string
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receiveInput = in
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	out := &sqs.ReceiveMessageOutput{Messages: f.messages}
	f.messages = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSReceiveMapsMessages(t *testing.T) {
	fake := &fakeSQS{messages: []types.Message{{
		MessageId:     aws.String("m-1"),
		Body:          aws.String(`{"key":"a"}`),
		ReceiptHandle: aws.String("rh-1"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"source": {DataType: aws.String("String"), StringValue: aws.String("upload")},
		},
	}}}
	consumer := queue.NewSQS(fake, queue.SQSOptions{QueueURL: "https://sqs.local/q", WaitTimeSeconds: 20, MaxMessages: 5}, nil)

	msgs, err := consumer.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.ID != "m-1" || string(msg.Body) != `{"key":"a"}` || msg.ReceiptHandle != "rh-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Attributes["source"] != "upload" {
		t.Fatalf("expected attribute, got %v", msg.Attributes)
	}
	in := fake.receiveInput
	if aws.ToString(in.QueueUrl) != "https://sqs.local/q" || in.WaitTimeSeconds != 20 || in.MaxNumberOfMessages != 5 {
		t.Fatalf("unexpected receive input %+v", in)
	}
	if in.VisibilityTimeout != 0 {
		t.Fatalf("visibility timeout should be unset, got %d", in.VisibilityTimeout)
	}

	if err := consumer.Ack(context.Background(), msg); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "rh-1" {
		t.Fatalf("expected delete of rh-1, got %v", fake.deleted)
	}
}

func TestSQSEmptyReceive(t *testing.T) {
	consumer := queue.NewSQS(&fakeSQS{}, queue.SQSOptions{QueueURL: "q"}, nil)
	msgs, err := consumer.Receive(context.Background())
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty batch, got %v %v", msgs, err)
	}
}

func TestSQSReceiveError(t *testing.T) {
	boom := errors.New("throttled")
	consumer := queue.NewSQS(&fakeSQS{receiveErr: boom}, queue.SQSOptions{QueueURL: "q"}, nil)
	if _, err := consumer.Receive(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestSQSAckRequiresReceiptHandle(t *testing.T) {
	consumer := queue.NewSQS(&fakeSQS{}, queue.SQSOptions{QueueURL: "q"}, nil)
	if err := consumer.Ack(context.Background(), queue.Message{ID: "x"}); err == nil {
		t.Fatal("expected error for missing receipt handle")
	}
}

func TestNewSelectsDriver(t *testing.T) {
	c, err := queue.New(config.Queue{Driver: queue.DriverSQS, QueueURL: "q"}, queue.Dependencies{SQS: &fakeSQS{}})
	if err != nil {
		t.Fatalf("New sqs: %v", err)
	}
	if _, ok := c.(*queue.SQSConsumer); !ok {
		t.Fatalf("expected SQS consumer, got %T", c)
	}

	if _, err := queue.New(config.Queue{Driver: queue.DriverSQS}, queue.Dependencies{}); err == nil {
		t.Fatal("expected error without sqs client")
	}

	r, err := queue.New(config.Queue{Driver: queue.DriverRedis, RedisAddr: "127.0.0.1:0", RedisKey: "k"}, queue.Dependencies{})
	if err != nil {
		t.Fatalf("New redis: %v", err)
	}
	if _, ok := r.(*queue.RedisConsumer); !ok {
		t.Fatalf("expected Redis consumer, got %T", r)
	}
	_ = r.Close()

	if _, err := queue.New(config.Queue{Driver: "kafka"}, queue.Dependencies{}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
