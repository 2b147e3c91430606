package queue_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"vodconverter/internal/queue"
)

// Set VODCONVERTER_TEST_REDIS_ADDR to run against a live server.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("VODCONVERTER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VODCONVERTER_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestRedisPublishReceive(t *testing.T) {
	addr := redisAddr(t)
	key := "vodconverter-test-" + uuid.NewString()
	consumer := queue.NewRedis(queue.RedisOptions{Addr: addr, Key: key, Wait: time.Second}, nil)
	t.Cleanup(func() { _ = consumer.Close() })

	ctx := context.Background()
	if err := consumer.Publish(ctx, []byte(`{"key":"a"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	msgs, err := consumer.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 1 || string(msgs[0].Body) != `{"key":"a"}` || msgs[0].ID == "" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if err := consumer.Ack(ctx, msgs[0]); err != nil {
		t.Fatalf("Ack: %v", err)
	}

	msgs, err = consumer.Receive(ctx)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty list after pop, got %v %v", msgs, err)
	}
}

func TestRedisReceiveAfterClose(t *testing.T) {
	consumer := queue.NewRedis(queue.RedisOptions{Addr: "127.0.0.1:0", Key: "k"}, nil)
	if err := consumer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := consumer.Receive(context.Background()); !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := consumer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
