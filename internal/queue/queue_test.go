package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/logger"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFeedEvent_RoundTrip(t *testing.T) {
	created := time.UnixMilli(1_700_000_000_123)
	e := NewPostCreatedEvent("p1", "u1", created)

	values, err := e.ToMap()
	require.NoError(t, err)
	assert.Equal(t, EventPostCreated, values["type"])

	got, err := ParseFeedEvent(values)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.Equal(t, int64(1_700_000_000_123), got.Timestamp)
}

func TestParseFeedEvent_MissingData(t *testing.T) {
	_, err := ParseFeedEvent(map[string]interface{}{"type": "x"})
	assert.Error(t, err)
}

func TestPublishConsumeAck(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	pub := NewPublisher(client, logger.Discard())
	con := NewConsumer(client, logger.Discard())

	require.NoError(t, con.EnsureGroup(ctx, StreamFeed, ConsumerGroupFeed))
	require.NoError(t, con.EnsureGroup(ctx, StreamFeed, ConsumerGroupFeed), "second EnsureGroup must tolerate BUSYGROUP")

	_, err := pub.Publish(ctx, StreamFeed, NewUserFollowedEvent("f1", "a1"))
	require.NoError(t, err)
	_, err = pub.Publish(ctx, StreamFeed, NewUserPurgedEvent("gone"))
	require.NoError(t, err)

	msgs, err := con.Read(ctx, StreamFeed, ConsumerGroupFeed, "w1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, EventUserFollowed, msgs[0].Event.Type)
	assert.Equal(t, "a1", msgs[0].Event.FolloweeID)
	assert.Equal(t, "gone", msgs[1].Event.UserID)

	pending, err := con.ReadPending(ctx, StreamFeed, ConsumerGroupFeed, "w1", 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, con.Ack(ctx, StreamFeed, ConsumerGroupFeed, msgs[0].ID, msgs[1].ID))
	pending, err = con.ReadPending(ctx, StreamFeed, ConsumerGroupFeed, "w1", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRead_MalformedEntryIsReturnedWithErr(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	con := NewConsumer(client, logger.Discard())
	require.NoError(t, con.EnsureGroup(ctx, StreamFeed, ConsumerGroupFeed))

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: StreamFeed, Values: map[string]interface{}{"type": "junk"}}).Err())

	msgs, err := con.Read(ctx, StreamFeed, ConsumerGroupFeed, "w1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Error(t, msgs[0].Err)
}
