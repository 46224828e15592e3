package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // local UI, any origin
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "remote", r.RemoteAddr)
		client := NewClient(hub, conn, r.RemoteAddr)
		client.Run(r.Context())
		logger.Debug("websocket disconnected", "remote", r.RemoteAddr)
	}
}
