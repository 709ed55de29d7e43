package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roperito/roperito-backend/pkg/enums"
)

type capturePublisher struct {
	payloads [][]byte
	err      error
}

func (p *capturePublisher) PublishEnvelope(_ context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return p.err
}

func decodeFrame(t *testing.T, raw []byte) Frame {
	t.Helper()
	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestRelayDeliversLocallyWithoutBridge(t *testing.T) {
	registry := NewRegistry(nil)
	buyer, seller := uuid.New(), uuid.New()
	bc := detachedClient(registry, buyer, 4)
	sc := detachedClient(registry, seller, 4)
	registry.Register(bc)
	registry.Register(sc)

	relay := NewRelay(registry, nil, nil)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	relay.now = func() time.Time { return fixed }

	relay.Notify(context.Background(), enums.EventNewOrder, map[string]string{"id": "o-1"}, buyer, seller, buyer)

	frame := decodeFrame(t, <-bc.send)
	assert.Equal(t, enums.EventNewOrder, frame.Event)
	assert.JSONEq(t, `{"id":"o-1"}`, string(frame.Data))
	assert.True(t, fixed.Equal(frame.SentAt))
	assert.Len(t, bc.send, 0, "duplicate recipients receive one frame")

	frame = decodeFrame(t, <-sc.send)
	assert.Equal(t, enums.EventNewOrder, frame.Event)
}

func TestRelayPublishesThroughBridge(t *testing.T) {
	registry := NewRegistry(nil)
	user := uuid.New()
	c := detachedClient(registry, user, 4)
	registry.Register(c)

	pub := &capturePublisher{}
	relay := NewRelay(registry, pub, nil)
	relay.Notify(context.Background(), enums.EventSellerReply, map[string]int{"n": 1}, user)

	require.Len(t, pub.payloads, 1)
	assert.Len(t, c.send, 0, "bridge owns delivery")

	require.NoError(t, relay.DeliverEnvelope(pub.payloads[0]))
	frame := decodeFrame(t, <-c.send)
	assert.Equal(t, enums.EventSellerReply, frame.Event)
}

func TestRelayFallsBackWhenBridgeFails(t *testing.T) {
	registry := NewRegistry(nil)
	user := uuid.New()
	c := detachedClient(registry, user, 4)
	registry.Register(c)

	relay := NewRelay(registry, &capturePublisher{err: errors.New("redis down")}, nil)
	relay.Notify(context.Background(), enums.EventOrderCancelled, struct{}{}, user)

	frame := decodeFrame(t, <-c.send)
	assert.Equal(t, enums.EventOrderCancelled, frame.Event)
}

func TestRelayIgnoresUnknownEventsAndEmptyRecipients(t *testing.T) {
	registry := NewRegistry(nil)
	user := uuid.New()
	c := detachedClient(registry, user, 4)
	registry.Register(c)
	pub := &capturePublisher{}
	relay := NewRelay(registry, pub, nil)

	relay.Notify(context.Background(), enums.EventName("bogus"), nil, user)
	relay.Notify(context.Background(), enums.EventNewOrder, nil, uuid.Nil)
	assert.Empty(t, pub.payloads)
	assert.Len(t, c.send, 0)

	assert.Error(t, relay.DeliverEnvelope([]byte("not json")))
	assert.Error(t, relay.DeliverEnvelope([]byte(`{"user_ids":[],"frame":{"event":"bogus"}}`)))
}
