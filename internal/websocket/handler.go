package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients. An empty originPatterns accepts any origin.
// The optional "list" query parameter scopes the client to one list.
func HandleWebSocket(hub *Hub, logger *slog.Logger, originPatterns []string) http.HandlerFunc {
	opts := &ws.AcceptOptions{
		OriginPatterns:     originPatterns,
		InsecureSkipVerify: len(originPatterns) == 0,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			logger.Warn("websocket accept", "error", err, "remote", r.RemoteAddr)
			return
		}

		client := NewClient(hub, conn, r.URL.Query().Get("list"))
		client.Run(r.Context())
	}
}
