package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/technosupport/arena-watch/internal/events"
	"github.com/technosupport/arena-watch/internal/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware already filtered browser origins
	},
}

type wsMessage struct {
	Type     string           `json:"type"`
	Snapshot *stream.Snapshot `json:"snapshot,omitempty"`
	Event    *events.Event    `json:"event,omitempty"`
}

// ServeEvents sends a snapshot, then every new event until either side
// goes away. Slow clients lose events rather than stall the stream.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch, cancel := h.Stream.Subscribe(stream.DefaultSubscriberBuffer)
	defer cancel()

	snap := h.Stream.Snapshot()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
		return
	}
	log.Printf("[WS] Connected %s", r.RemoteAddr)

	// reader only detects close and keeps pong deadlines fresh
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Printf("[WS] Disconnected %s", r.RemoteAddr)
			return
		case e, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream stopped"))
				return
			}
			if err := conn.WriteJSON(wsMessage{Type: "event", Event: &e}); err != nil {
				log.Printf("[WS] Write to %s failed: %v", r.RemoteAddr, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
