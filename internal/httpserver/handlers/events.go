package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pinstack/pinstack/internal/client"
	"github.com/pinstack/pinstack/internal/httpserver/deps"
	"github.com/pinstack/pinstack/internal/logger"
	"github.com/pinstack/pinstack/internal/utils"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API serves the local UI; cross-origin tabs of the same UI
	// are still the same user.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events upgrades to a WebSocket and streams client events (session
// transitions, snapshot replacements, surfaced errors) so every open
// tab of the same user stays live. On connect the current state and
// snapshot are pushed first so a new tab starts consistent.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Warn("websocket upgrade failed", logger.Error(err))
			return
		}
		defer utils.Close(conn)

		events, cancel := d.Client.Subscribe()
		defer cancel()

		state := d.Client.State()
		hello := []client.Event{
			{Type: client.EventSession, Session: &state},
			{Type: client.EventSnapshot, Bookmarks: d.Client.Snapshot()},
		}
		for _, ev := range hello {
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		}

		// Reader goroutine: we never expect client frames, but reading
		// is what detects a closed tab.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(conn, ev); err != nil {
					d.Logger.Debug("websocket write failed", logger.Error(err))
					return
				}
			case <-ticker.C:
				deadline := time.Now().Add(writeTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev client.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}
