package handler

import (
	"net/http"
	"time"

	"scanserver/internal/logger"
	hub "scanserver/internal/service/websocket"

	"github.com/gorilla/websocket"
)

const (
	// Viewers only send pongs and close frames.
	maxViewerMessage = 512
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
	pingWriteWait    = 5 * time.Second
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler attaches a display viewer to the hub. Snapshots are
// written by the hub; this handler only keeps the connection alive and
// notices when the viewer goes away.
func ViewWebsocketHandler(hubService *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		conn.SetReadLimit(maxViewerMessage)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		hubService.Register(conn)
		defer hubService.Unregister(conn)

		stopPing := make(chan struct{})
		defer close(stopPing)
		go keepAlive(conn, stopPing)

		for {
			if _, _, err := conn.NextReader(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warning("Viewer %s dropped: %v", r.RemoteAddr, err)
				}
				return
			}
		}
	}
}

// keepAlive pings the viewer until stop is closed. Control frames may be
// written concurrently with the hub's data frames.
func keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWriteWait)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
