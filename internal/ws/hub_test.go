package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := NewUpgrader(nil, true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(context.Background(), conn, "u1", "user:u1:chats")
		if !hub.Register(client) {
			client.Close()
			return
		}
		defer hub.Unregister(client)

		go client.WritePump()
		client.SendJSON(NewEvent(EventTypeChats, []string{"room-1"}))
		client.ReadPump()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubDeliversAndTracksConnections(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub)
	conn := dial(t, srv)

	var ev struct {
		Type    string   `json:"type"`
		Payload []string `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if ev.Type != EventTypeChats || len(ev.Payload) != 1 || ev.Payload[0] != "room-1" {
		t.Errorf("event = %+v", ev)
	}

	waitFor(t, func() bool { return hub.UserConnections("u1") == 1 })
	if stats := hub.Stats(); stats.Total != 1 || stats.Users != 1 {
		t.Errorf("Stats() = %+v, want one connection", stats)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.Stats().Connections == 0 })
	if hub.UserConnections("u1") != 0 {
		t.Error("user still registered after disconnect")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub)
	conn := dial(t, srv)
	defer conn.Close()

	waitFor(t, func() bool { return hub.Stats().Connections == 1 })
	hub.Shutdown()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	client := NewClient(context.Background(), nil, "u2", "t")
	if hub.Register(client) {
		t.Error("Register() after Shutdown should fail")
	}
}

func TestUpgraderCheckOrigin(t *testing.T) {
	upgrader := NewUpgrader([]string{"http://localhost:3000"}, false)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://evil.example", false},
		{"", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws/chats", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := upgrader.CheckOrigin(r); got != tt.want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !NewUpgrader(nil, true).CheckOrigin(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Error("allowAll upgrader rejected request")
	}
}

func TestFinishFlushesLastEventThenCloses(t *testing.T) {
	refused := make(chan bool, 1)
	upgrader := NewUpgrader(nil, true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(context.Background(), conn, "u1", "chat:c1:messages")
		go client.WritePump()
		client.Finish(ErrorEvent("not allowed for this user"))
		refused <- !client.SendJSON(NewEvent(EventTypeMessages, []string{"late"}))
		client.ReadPump()
	}))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	var ev OutEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if ev.Type != EventTypeError || ev.Message != "not allowed for this user" {
		t.Errorf("event = %+v, want error event", ev)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() after Finish should fail on a closed connection")
	}
	if !<-refused {
		t.Error("SendJSON after Finish should be refused")
	}
}
