package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"folio/api/internal/logging"
)

// RedisBridge joins brokers in different processes through one Redis
// channel. Local events go out; events from other origins come in.
type RedisBridge struct {
	client  *redis.Client
	broker  *Broker
	channel string
	logger  *slog.Logger
	ready   chan struct{}
}

func NewRedisBridge(client *redis.Client, broker *Broker, channel string) *RedisBridge {
	return &RedisBridge{
		client:  client,
		broker:  broker,
		channel: channel,
		logger:  logging.New("pubsub"),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the bridge is subscribed to the channel.
func (r *RedisBridge) Ready() <-chan struct{} {
	return r.ready
}

// Run relays events until ctx is cancelled.
func (r *RedisBridge) Run(ctx context.Context) error {
	ps := r.client.Subscribe(ctx, r.channel)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	local := r.broker.Subscribe()
	defer local.Close()
	remote := ps.Channel()
	close(r.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-local.C:
			if !ok {
				return nil
			}
			if ev.Origin != r.broker.Origin() {
				continue
			}
			if err := Announce(ctx, r.client, r.channel, ev); err != nil {
				r.logger.Warn("publish event", "key", ev.Key, "error", err)
			}
		case msg, ok := <-remote:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.logger.Warn("decode event", "error", err)
				continue
			}
			if ev.Origin == r.broker.Origin() || ev.Key == "" {
				continue
			}
			r.broker.Deliver(ev)
		}
	}
}

// Announce publishes one event on channel. Short-lived processes use it to
// tell running bridges about their writes without running a bridge.
func Announce(ctx context.Context, client *redis.Client, channel string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return client.Publish(ctx, channel, payload).Err()
}
