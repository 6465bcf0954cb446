package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	watchWSReadLimit    = 4 << 10
	watchWSPingInterval = 30 * time.Second
	watchWSWriteTimeout = 10 * time.Second
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WatchTopic handles GET /v1/topics/{topic}/watch — WebSocket endpoint
// streaming log entries as they are appended to a topic.
func (h *Handler) WatchTopic(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("watch ws upgrade failed")
		return
	}
	defer conn.Close()

	entries, cancel := h.service.Watch(topic)
	defer cancel()

	// Drain the client side so close frames are processed; subscribers
	// are write-only.
	conn.SetReadLimit(watchWSReadLimit)
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchWSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(watchWSWriteTimeout))
			if err := conn.WriteJSON(entry); err != nil {
				log.Debug().Err(err).Str("topic", topic).Msg("watch ws write")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(watchWSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
