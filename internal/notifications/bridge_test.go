package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePubSub struct {
	published map[string][]any
	subErr    error
	subCalls  int
}

func (f *fakePubSub) Publish(_ context.Context, channel string, payload any) (int64, error) {
	if f.published == nil {
		f.published = make(map[string][]any)
	}
	f.published[channel] = append(f.published[channel], payload)
	return 1, nil
}

func (f *fakePubSub) Subscribe(context.Context, ...string) (*redislib.PubSub, error) {
	f.subCalls++
	return nil, f.subErr
}

func (f *fakePubSub) ChannelName(name string) string {
	return "rp:relay:" + name
}

func TestBridgePublishesOnNamespacedChannel(t *testing.T) {
	client := &fakePubSub{}
	bridge := NewBridge(client, nil)
	assert.Equal(t, "rp:relay:events", bridge.Channel())

	require.NoError(t, bridge.PublishEnvelope(context.Background(), []byte(`{}`)))
	assert.Len(t, client.published["rp:relay:events"], 1)
}

func TestBridgeRunStopsWithContext(t *testing.T) {
	client := &fakePubSub{subErr: errors.New("connection refused")}
	bridge := NewBridge(client, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx, NewRelay(NewRegistry(nil), nil, nil)) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
	assert.GreaterOrEqual(t, client.subCalls, 1)
}
