package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fixmyarea-be/models"
)

func dial(t *testing.T, hub *Hub, role models.Role) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, models.Identity{Role: role}); err != nil {
			t.Errorf("serve: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	conn := dial(t, hub, models.RoleCitizen)
	waitForClients(t, hub, 1)

	hub.Publish(EventComplaintCreated, map[string]string{"title": "Pothole"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Type != EventComplaintCreated {
		t.Errorf("expected %s, got %s", EventComplaintCreated, event.Type)
	}
}

func TestWorkerRemovedOnlyReachesAdmins(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	citizen := dial(t, hub, models.RoleCitizen)
	admin := dial(t, hub, models.RoleAdmin)
	waitForClients(t, hub, 2)

	hub.Publish(EventWorkerRemoved, map[string]string{"workerId": "w1"})
	hub.Publish(EventComplaintStatus, map[string]string{"status": "Resolved"})

	_ = admin.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := admin.ReadMessage()
	if err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if !strings.Contains(string(data), EventWorkerRemoved) {
		t.Errorf("expected admin to receive worker removal first, got %s", data)
	}

	_ = citizen.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = citizen.ReadMessage()
	if err != nil {
		t.Fatalf("citizen read: %v", err)
	}
	if !strings.Contains(string(data), EventComplaintStatus) {
		t.Errorf("expected citizen to skip worker removal, got %s", data)
	}
}

func TestRejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"https://dashboard.example"}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example")

	if hub.upgrader.CheckOrigin(req) {
		t.Error("expected unknown origin to be rejected")
	}
	req.Header.Set("Origin", "https://dashboard.example")
	if !hub.upgrader.CheckOrigin(req) {
		t.Error("expected configured origin to be accepted")
	}
}
