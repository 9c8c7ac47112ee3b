package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutricoach/api/internal/domain"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestHub_PublishReachesSubscriber dials a real websocket and checks that an
// event published for the user arrives, and that other users do not get it.
func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	userID := primitive.NewObjectID()
	registered := make(chan struct{})

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := hub.Register(userID, conn)
		close(registered)
		hub.Serve(c)
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("client was never registered")
	}

	hub.Publish(primitive.NewObjectID(), Event{Kind: "other.user"})
	hub.Publish(userID, Event{Kind: KindDailyUpdated, Daily: &domain.DailyNutrition{TotalCalories: 640, MealsCount: 2}})

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != KindDailyUpdated || got.Daily == nil || got.Daily.TotalCalories != 640 {
		t.Errorf("unexpected event %+v", got)
	}
	if n := hub.Connections(userID); n != 1 {
		t.Errorf("connections = %d, want 1", n)
	}
}

// TestHub_UnregisterOnClose verifies a closed client is dropped.
func TestHub_UnregisterOnClose(t *testing.T) {
	hub := NewHub()
	userID := primitive.NewObjectID()
	served := make(chan struct{})

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(hub.Register(userID, conn))
		close(served)
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	ws.Close()

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after client closed")
	}
	if n := hub.Connections(userID); n != 0 {
		t.Errorf("connections = %d, want 0", n)
	}
}
