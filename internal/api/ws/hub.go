package ws

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/server/middleware"
	redisstore "github.com/gosuda/tenantdesk/internal/store/redis"
)

// Subscriber delivers the payloads published on a channel until the returned
// cleanup func is called or ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub streams collection change events to websocket clients.
type Hub struct {
	pubsub Subscriber
}

// NewHub creates a hub. A nil subscriber disables live feeds.
func NewHub(pubsub Subscriber) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeCollection handles GET /ws/collections/{collection}. The caller only
// receives events published under its own scope.
func (h *Hub) ServeCollection(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	coll, err := domain.Lookup(chi.URLParam(r, "collection"))
	if err != nil {
		http.Error(w, `{"error":"unknown collection"}`, http.StatusNotFound)
		return
	}

	if h.pubsub == nil {
		http.Error(w, `{"error":"live updates unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	channel := redisstore.CollectionChannel(actor.Scope(), coll.Name)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	// Clients never send; CloseRead answers pings and cancels ctx on close.
	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
