// Package notifications pushes order and inquiry lifecycle events to the
// websocket sessions of the users involved. Delivery is best effort: there is
// no persistence and no retry.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/pkg/enums"
	"github.com/roperito/roperito-backend/pkg/logger"
)

// Frame is what clients receive.
type Frame struct {
	Event  enums.EventName `json:"event"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

// envelope carries a frame and its recipients across instances.
type envelope struct {
	UserIDs []uuid.UUID `json:"user_ids"`
	Frame   Frame       `json:"frame"`
}

// Publisher hands envelopes to every API instance.
type Publisher interface {
	PublishEnvelope(ctx context.Context, payload []byte) error
}

// Relay turns domain events into frames and routes them either through the
// cross-instance bridge or straight to the local registry.
type Relay struct {
	registry  *Registry
	publisher Publisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewRelay builds a relay. With a nil publisher events only reach local sessions.
func NewRelay(registry *Registry, publisher Publisher, logg *logger.Logger) *Relay {
	return &Relay{
		registry:  registry,
		publisher: publisher,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Notify sends event to every session of the given users. It never fails the caller.
func (r *Relay) Notify(ctx context.Context, event enums.EventName, data any, userIDs ...uuid.UUID) {
	if err := r.notify(ctx, event, data, userIDs); err != nil && r.logg != nil {
		r.logg.Warn(r.logg.WithField(ctx, "event", string(event)), "relay.notify_failed: "+err.Error())
	}
}

func (r *Relay) notify(ctx context.Context, event enums.EventName, data any, userIDs []uuid.UUID) error {
	if !event.IsValid() {
		return fmt.Errorf("unknown event %q", event)
	}
	recipients := dedupe(userIDs)
	if len(recipients) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	env := envelope{UserIDs: recipients, Frame: Frame{Event: event, Data: raw, SentAt: r.now()}}

	if r.publisher != nil {
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("encode envelope: %w", err)
		}
		err = r.publisher.PublishEnvelope(ctx, payload)
		if err == nil {
			return nil
		}
		r.deliver(env)
		return fmt.Errorf("publish via bridge, delivered locally: %w", err)
	}
	r.deliver(env)
	return nil
}

// deliver writes env to the sessions held by this instance.
func (r *Relay) deliver(env envelope) {
	frame, err := json.Marshal(env.Frame)
	if err != nil {
		return
	}
	for _, userID := range env.UserIDs {
		r.registry.Deliver(string(env.Frame.Event), userID, frame)
	}
}

// DeliverEnvelope decodes a bridged payload and delivers it locally.
func (r *Relay) DeliverEnvelope(payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Frame.Event.IsValid() {
		return fmt.Errorf("unknown event %q", env.Frame.Event)
	}
	r.deliver(env)
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
