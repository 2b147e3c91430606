package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vodconverter/internal/config"
)

// ErrClosed is returned by Receive after Close.
var ErrClosed = errors.New("queue consumer closed")

// Message is a single job delivery.
type Message struct {
	ID            string
	Body          []byte
	ReceiptHandle string
	Attributes    map[string]string
}

// Consumer delivers job messages and removes them once handled.
//
// Receive blocks for at most the driver's long-poll window and may return an
// empty batch. Ack removes a message so it is not redelivered.
type Consumer interface {
	Receive(ctx context.Context) ([]Message, error)
	Ack(ctx context.Context, msg Message) error
	Close() error
}

// Driver names accepted by queue.driver.
const (
	DriverSQS   = "sqs"
	DriverRedis = "redis"
)

// Dependencies carries the pre-built clients a consumer may need.
type Dependencies struct {
	SQS    SQSAPI
	Logger *slog.Logger
}

// New builds the consumer selected by cfg.Queue.Driver.
func New(cfg config.Queue, deps Dependencies) (Consumer, error) {
	switch cfg.Driver {
	case DriverSQS, "":
		if deps.SQS == nil {
			return nil, fmt.Errorf("sqs consumer requires an sqs client")
		}
		return NewSQS(deps.SQS, SQSOptions{
			QueueURL:          cfg.QueueURL,
			WaitTimeSeconds:   int32(cfg.WaitTimeSeconds),
			MaxMessages:       int32(cfg.MaxMessages),
			VisibilityTimeout: int32(cfg.VisibilityTimeout),
		}, deps.Logger), nil
	case DriverRedis:
		return NewRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
			Wait:     time.Duration(cfg.WaitTimeSeconds) * time.Second,
		}, deps.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported queue driver %q", cfg.Driver)
	}
}
