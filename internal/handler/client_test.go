package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scanserver/internal/logger"
	hub "scanserver/internal/service/websocket"

	"github.com/gorilla/websocket"
)

func TestViewWebsocketHandler_ReceivesSnapshots(t *testing.T) {
	hubService := hub.NewHubService(logger.Discard())
	go hubService.Run()
	defer hubService.Stop()
	hubService.Broadcast([]byte(`{"type":"snapshot"}`))

	server := httptest.NewServer(ViewWebsocketHandler(hubService, logger.Discard()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(data) != `{"type":"snapshot"}` {
		t.Errorf("Unexpected greeting: %s", data)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	deadline := time.Now().Add(2 * time.Second)
	for hubService.GetClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := hubService.GetClientCount(); n != 0 {
		t.Errorf("Expected viewer unregistered after close, %d left", n)
	}
}
