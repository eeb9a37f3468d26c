package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const bridgeBuffer = 64

// RedisBridge relays local events to a Redis pub/sub channel and republishes
// events from other instances on the local feed.
type RedisBridge struct {
	client   redis.UniversalClient
	channel  string
	instance string
	feed     *Feed
	out      chan Event
	log      logrus.FieldLogger
}

func NewRedisBridge(client redis.UniversalClient, channel string, feed *Feed, log logrus.FieldLogger) *RedisBridge {
	return &RedisBridge{
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		feed:     feed,
		out:      make(chan Event, bridgeBuffer),
		log:      log,
	}
}

// Run subscribes to the channel and relays events until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}

	unsubscribe := b.feed.Subscribe(b.forward)
	defer unsubscribe()

	in := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.out:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
				b.log.WithError(err).Warn("redis bridge: publish failed")
			}
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			b.deliver(msg.Payload)
		}
	}
}

// forward queues locally originated events. Remote events already carry an
// origin and are not sent back out.
func (b *RedisBridge) forward(ev Event) {
	if ev.Origin != "" {
		return
	}
	ev.Origin = b.instance
	select {
	case b.out <- ev:
	default:
		b.log.WithField("category", ev.Category).Warn("redis bridge: outbound buffer full, dropping event")
	}
}

func (b *RedisBridge) deliver(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		b.log.WithError(err).Warn("redis bridge: bad payload")
		return
	}
	if ev.Origin == b.instance || ev.Origin == "" {
		return
	}
	b.feed.Publish(ev)
}
