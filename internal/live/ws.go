package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// command is a client→server control frame for joining/leaving groups.
type command struct {
	Action  string `json:"action"`
	MatchID string `json:"matchId,omitempty"`
}

// HandleWS upgrades the connection and serves it until disconnect. Group
// membership is scoped to the connection: it is acquired through command
// frames and fully released when the connection goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	sub := h.Subscribe()

	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
}

// readPump consumes command frames and tears the subscriber down on
// disconnect or protocol error.
func (h *Hub) readPump(conn *websocket.Conn, sub *Subscriber) {
	defer func() {
		h.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}

		switch cmd.Action {
		case "join-match":
			if cmd.MatchID != "" {
				h.Join(sub, cmd.MatchID)
				h.Send(sub, EventJoinedMatch, map[string]string{
					"matchId": cmd.MatchID,
					"message": "Successfully joined match room",
				})
			}
		case "leave-match":
			if cmd.MatchID != "" {
				h.Leave(sub, cmd.MatchID)
			}
		case "join-live-matches":
			h.JoinLive(sub)
		case "leave-live-matches":
			h.LeaveLive(sub)
		}
	}
}

// writePump drains the subscriber channel onto the wire and keeps the
// connection alive through proxies with periodic pings.
func (h *Hub) writePump(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Receive():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
