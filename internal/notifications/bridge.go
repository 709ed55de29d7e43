package notifications

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/roperito/roperito-backend/pkg/logger"
)

const (
	bridgeChannel       = "events"
	bridgeRetryInterval = 2 * time.Second
)

type pubsubClient interface {
	Publish(ctx context.Context, channel string, payload any) (int64, error)
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
	ChannelName(name string) string
}

// Bridge fans relay envelopes out through a redis channel so a user connected
// to any API instance receives events raised on another one.
type Bridge struct {
	client  pubsubClient
	channel string
	logg    *logger.Logger
}

// NewBridge binds the bridge to the namespaced relay channel.
func NewBridge(client pubsubClient, logg *logger.Logger) *Bridge {
	return &Bridge{client: client, channel: client.ChannelName(bridgeChannel), logg: logg}
}

// Channel is the redis channel the bridge uses.
func (b *Bridge) Channel() string {
	return b.channel
}

// PublishEnvelope implements Publisher.
func (b *Bridge) PublishEnvelope(ctx context.Context, payload []byte) error {
	if _, err := b.client.Publish(ctx, b.channel, payload); err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

// Run subscribes and hands every message to relay until ctx ends,
// resubscribing after connection failures.
func (b *Bridge) Run(ctx context.Context, relay *Relay) error {
	ctx = b.withComponent(ctx)
	for {
		err := b.consume(ctx, relay)
		if ctx.Err() != nil {
			return nil
		}
		if b.logg != nil {
			b.logg.Warn(ctx, fmt.Sprintf("relay.bridge_disconnected: %v", err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(bridgeRetryInterval):
		}
	}
}

func (b *Bridge) consume(ctx context.Context, relay *Relay) error {
	sub, err := b.client.Subscribe(ctx, b.channel)
	if err != nil {
		return err
	}
	defer sub.Close()

	if b.logg != nil {
		b.logg.Info(ctx, "relay.bridge_subscribed")
	}
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", b.channel)
			}
			if err := relay.DeliverEnvelope([]byte(msg.Payload)); err != nil && b.logg != nil {
				b.logg.Warn(ctx, "relay.bridge_bad_message: "+err.Error())
			}
		}
	}
}

func (b *Bridge) withComponent(ctx context.Context) context.Context {
	if b.logg == nil {
		return ctx
	}
	return b.logg.WithComponent(ctx, "relay-bridge")
}
