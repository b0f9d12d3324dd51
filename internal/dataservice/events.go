package dataservice

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/domain"
	redisstore "github.com/gosuda/tenantdesk/internal/store/redis"
)

// Publisher delivers a payload to a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// EventType names a change to a collection.
type EventType string

const (
	EventInserted EventType = "inserted"
	EventUpdated  EventType = "updated"
	EventDeleted  EventType = "deleted"
	EventSaved    EventType = "saved"
	EventCleared  EventType = "cleared"
)

// Event is the payload published after a successful write.
type Event struct {
	Type       EventType `json:"type"`
	Collection string    `json:"collection"`
	ID         string    `json:"id,omitempty"`
}

// publish is best effort: a lost event never fails the write that caused it.
func (s *Service) publish(ctx context.Context, scope domain.Scope, coll domain.Collection, typ EventType, id string) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(Event{Type: typ, Collection: coll.Name, ID: id})
	if err != nil {
		log.Error().Err(err).Msg("encode change event")
		return
	}

	channel := redisstore.CollectionChannel(scope, coll.Name)
	if err := s.events.Publish(ctx, channel, payload); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("publish change event")
	}
}
