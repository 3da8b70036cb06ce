package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Message is one stream entry. Err is set when the payload could not be
// parsed; such entries are still returned so they can be acknowledged.
type Message struct {
	ID    string
	Event FeedEvent
	Err   error
}

type Consumer interface {
	// EnsureGroup creates the group (and stream) if missing.
	EnsureGroup(ctx context.Context, stream, group string) error
	// Read returns entries never delivered to the group. block 0 waits forever.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)
	// ReadPending returns entries delivered to this consumer but not acked.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)
	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
	Pending(ctx context.Context, stream, group string) (int64, error)
}

type RedisConsumer struct {
	client *redis.Client
	log    *logrus.Entry
}

func NewConsumer(client *redis.Client, log *logrus.Entry) Consumer {
	return &RedisConsumer{client: client, log: log}
}

// EnsureGroup starts new groups at "0" so entries published before the first
// worker came up are still processed.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}

	c.log.WithFields(logrus.Fields{"stream": stream, "group": group}).Info("Consumer group created")
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.read(ctx, stream, group, consumer, ">", count, block)
}

func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	// a negative block omits BLOCK so the call returns immediately
	return c.read(ctx, stream, group, consumer, "0", count, -1)
}

func (c *RedisConsumer) read(ctx context.Context, stream, group, consumer, id string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, id},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s: %w", id, err)
	}

	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, perr := ParseFeedEvent(msg.Values)
			messages = append(messages, Message{ID: msg.ID, Event: event, Err: perr})
		}
	}

	if len(messages) > 0 {
		c.log.WithFields(logrus.Fields{
			"stream": stream, "consumer": consumer, "from": id, "count": len(messages),
		}).Debug("Read OK")
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	info, err := c.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending: %w", err)
	}
	return info.Count, nil
}
