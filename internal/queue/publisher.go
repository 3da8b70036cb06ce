package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	// Publish appends the event and returns the stream entry id.
	Publish(ctx context.Context, stream string, event FeedEvent) (messageID string, err error)
}

type RedisPublisher struct {
	client *redis.Client
	log    *logrus.Entry
}

func NewPublisher(client *redis.Client, log *logrus.Entry) Publisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event FeedEvent) (string, error) {
	startTime := time.Now()
	fields := logrus.Fields{"stream": stream, "type": event.Type}

	values, err := event.ToMap()
	if err != nil {
		p.log.WithFields(fields).WithError(err).Error("Publish failed")
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		p.log.WithFields(fields).WithError(err).Error("Publish failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.WithFields(fields).WithFields(logrus.Fields{
		"msg_id":   messageID,
		"duration": time.Since(startTime),
	}).Debug("Publish OK")
	return messageID, nil
}
