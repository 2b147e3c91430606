package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vodconverter/internal/logging"
)

// RedisOptions configures the list-backed consumer.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Wait     time.Duration
}

// RedisConsumer pops job messages from a Redis list.
//
// BLPOP removes the entry on delivery, so Ack has nothing left to do and a
// crash mid-job loses the message.
type RedisConsumer struct {
	client *redis.Client
	key    string
	wait   time.Duration
	logger *slog.Logger
	closed atomic.Bool
}

// NewRedis connects to Redis with opts.
func NewRedis(opts RedisOptions, logger *slog.Logger) *RedisConsumer {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisWithClient(client, opts.Key, opts.Wait, logger)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, key string, wait time.Duration, logger *slog.Logger) *RedisConsumer {
	if wait <= 0 {
		wait = time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RedisConsumer{
		client: client,
		key:    key,
		wait:   wait,
		logger: logger.With(logging.String(logging.FieldComponent, "queue.redis")),
	}
}

// Receive blocks up to the configured wait for one entry.
func (c *RedisConsumer) Receive(ctx context.Context) ([]Message, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	result, err := c.client.BLPop(ctx, c.wait, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop %s: %w", c.key, err)
	}
	// result is [key, value]
	if len(result) < 2 {
		return nil, nil
	}
	msg := Message{ID: uuid.NewString(), Body: []byte(result[1])}
	c.logger.Debug("received message", logging.String(logging.FieldMessageID, msg.ID))
	return []Message{msg}, nil
}

// Ack is a no-op because BLPOP already removed the entry.
func (c *RedisConsumer) Ack(context.Context, Message) error { return nil }

// Close releases the client connection pool.
func (c *RedisConsumer) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.client.Close()
}

// Publish pushes a raw body onto the list. Used by tooling and tests.
func (c *RedisConsumer) Publish(ctx context.Context, body []byte) error {
	if err := c.client.RPush(ctx, c.key, body).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", c.key, err)
	}
	return nil
}
