package changefeed

import (
	"context"
	"testing"
	"time"

	"copyforge/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannel = "copyforge:changes:test"

type node struct {
	feed   *Feed
	bridge *RedisBridge
	seen   *recorder
	done   chan error
}

func startNode(t *testing.T, ctx context.Context, addr string) *node {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	feed := New(logger.Discard())
	in := &node{
		feed:   feed,
		bridge: NewRedisBridge(client, testChannel, feed, logger.Discard()),
		seen:   &recorder{},
		done:   make(chan error, 1),
	}
	feed.Subscribe(in.seen.Publish)
	go func() { in.done <- in.bridge.Run(ctx) }()
	// The bridge joins the local feed only once its Redis subscription is confirmed.
	require.Eventually(t, func() bool { return feed.SubscriberCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	return in
}

func TestRedisBridgeRelaysBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := startNode(t, ctx, mr.Addr())
	b := startNode(t, ctx, mr.Addr())

	a.feed.Publish(Event{Category: CategoryDismissals, UserID: 5})

	want := Event{Category: CategoryDismissals, UserID: 5, Origin: a.bridge.instance}
	require.Eventually(t, func() bool { return len(b.seen.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []Event{want}, b.seen.snapshot())

	// Neither instance echoes: a ignores its own message, b does not re-send a remote one.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []Event{{Category: CategoryDismissals, UserID: 5}}, a.seen.snapshot())
	assert.Len(t, b.seen.snapshot(), 1)

	cancel()
	for _, in := range []*node{a, b} {
		select {
		case err := <-in.done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("bridge did not stop")
		}
		assert.Equal(t, 1, in.feed.SubscriberCount(), "bridge unsubscribes on exit")
	}
}

func TestRedisBridgeRunFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()
	f := New(logger.Discard())
	b := NewRedisBridge(client, testChannel, f, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Error(t, b.Run(ctx))
	assert.Zero(t, f.SubscriberCount())
}
