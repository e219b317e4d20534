package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/cache"
	"github.com/chathub-dev/chathub/pkg/eventbus"
	"github.com/chathub-dev/chathub/pkg/pglistener"
)

const publishTimeout = 5 * time.Second

// Stream event types pushed to clients over SSE and websocket.
const (
	EventNewMessage     = "new_message"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
)

// MessageEventsHandler bridges decoded row-change events onto the delivery
// fabric: the redis channel of the affected group and the local websocket
// hub. It is the only fan-out path; nothing publishes at write time.
type MessageEventsHandler struct {
	cache *cache.Client
	hub   application.Huber
	log   *logrus.Logger
}

func RegisterMessageEventHandlers(app application.Application) *eventbus.Subscription {
	handler := &MessageEventsHandler{
		cache: app.Cache(),
		hub:   app.Websocket(),
		log:   app.Logger(),
	}
	return app.EventPublisher().Subscribe(pglistener.TopicMessageChange, handler.onMessageChange)
}

func (h *MessageEventsHandler) onMessageChange(event any) {
	change, ok := event.(*pglistener.ChangeEvent)
	if !ok {
		h.log.WithField("event", event).Warn("unexpected event type on message change topic")
		return
	}
	if change.Operation == pglistener.OpTest {
		h.log.WithField("message", change.Message).Info("test notification received")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"type": eventType(change),
		"data": change,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to encode stream event")
		return
	}

	channel := group.EventChannel(change.GroupID)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := h.cache.Publish(ctx, channel, string(payload)); err != nil {
		h.log.WithError(err).WithField("channel", channel).Error("failed to publish stream event")
	}

	if h.hub != nil {
		h.hub.BroadcastToChannel(channel, payload)
	}
}

func eventType(change *pglistener.ChangeEvent) string {
	switch {
	case change.Operation == pglistener.OpInsert:
		return EventNewMessage
	case change.Operation == pglistener.OpDelete, change.IsSoftDelete():
		return EventMessageDeleted
	default:
		return EventMessageUpdated
	}
}
