package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/suryap3105/EchoGenesis/internal/events"
)

// streamWriteTimeout bounds one websocket write. A client that cannot keep
// up gets disconnected instead of backing up the bus.
const streamWriteTimeout = 5 * time.Second

// heartbeatInterval keeps idle connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// StreamHandler streams organism events over a websocket. Mounted both on
// /api/events/stream (all organisms) and /api/organisms/{id}/stream (one).
type StreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(bus *events.Bus, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		bus: bus,
		log: log.With().Str("handler", "stream").Logger(),
	}
}

// ServeHTTP upgrades the connection and forwards bus events until the
// client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	organismID := chi.URLParam(r, "id")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The REST API is already open CORS-wide; the stream follows.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	h.log.Info().Str("organism_id", organismID).Msg("Client connected to event stream")

	ch := h.bus.Subscribe(organismID)
	defer h.bus.Unsubscribe(ch)

	ctx := r.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("organism_id", organismID).Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-ch:
			if err := h.write(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("Stream write failed, dropping client")
				return
			}

		case <-heartbeat.C:
			if err := conn.Ping(ctx); err != nil {
				h.log.Debug().Err(err).Msg("Heartbeat failed, dropping client")
				return
			}
		}
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, event events.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, event)
}
