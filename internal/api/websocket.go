package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gyaneshwarpardhi/plantboard/internal/hub"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GET /v1/ws: stream reload notices. The first message is the current
// dataset status so a client can render without a separate request.
func (h *Handler) notices(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	notices, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	st := h.store.Status()
	hello := hub.Notice{Type: hub.TypeStatus, Snapshot: st.ID, State: string(st.State), Rows: st.Rows, At: time.Now()}
	if err := write(conn, hello); err != nil {
		return
	}

	// Read pump: only used to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case n, ok := <-notices:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			if err := write(conn, n); err != nil {
				slog.Debug("websocket write failed", "err", err)
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func write(conn *websocket.Conn, n hub.Notice) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(n)
}
