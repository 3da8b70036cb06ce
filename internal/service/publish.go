package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/queue"
)

// publish sends a feed event after the store write it describes has landed.
// A nil publisher disables feed events; failures are logged, never returned.
func publish(ctx context.Context, publisher queue.Publisher, log *logrus.Entry, event queue.FeedEvent) {
	if publisher == nil {
		return
	}

	entry := log.WithField("event", event.Type)
	msgID, err := publisher.Publish(ctx, queue.StreamFeed, event)
	if err != nil {
		entry.WithError(err).Warn("Failed to publish feed event")
		return
	}
	entry.WithField("msg_id", msgID).Debug("Published feed event")
}
