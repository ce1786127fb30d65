package notify

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHistoryRingAndStats(t *testing.T) {
	h := NewHub()

	for i := 0; i < 150; i++ {
		h.Publish(New("tick", "s1", PriorityInfo, nil))
	}

	recent := h.Recent(0)
	if len(recent) != historySize {
		t.Fatalf("history holds %d, want %d", len(recent), historySize)
	}
	if got := len(h.Recent(10)); got != 10 {
		t.Errorf("Recent(10) = %d entries", got)
	}

	stats := h.Snapshot()
	if stats.Published != 150 {
		t.Errorf("published = %d, want 150", stats.Published)
	}
	if stats.Delivered != 0 || stats.Subscribers != 0 {
		t.Errorf("no subscribers expected, got %+v", stats)
	}
}

func TestEntityScopedDelivery(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	global, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial global: %v", err)
	}
	defer global.Close()

	scoped, _, err := websocket.DefaultDialer.Dial(wsURL+"?entity=s1", nil)
	if err != nil {
		t.Fatalf("dial scoped: %v", err)
	}
	defer scoped.Close()

	waitForSubscribers(t, h, 2)

	h.Publish(New("siege_initiated", "s1", PriorityCritical, map[string]any{"scenario_id": "w1"}))
	h.Publish(New("disease_outbreak", "s2", PriorityWarning, nil))

	// The global subscriber sees both notifications.
	var n Notification
	for _, want := range []string{"siege_initiated", "disease_outbreak"} {
		global.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := global.ReadJSON(&n); err != nil {
			t.Fatalf("global read: %v", err)
		}
		if n.Type != want {
			t.Errorf("global got %q, want %q", n.Type, want)
		}
	}

	// The scoped subscriber only sees its entity.
	scoped.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := scoped.ReadJSON(&n); err != nil {
		t.Fatalf("scoped read: %v", err)
	}
	if n.Type != "siege_initiated" || n.EntityID != "s1" {
		t.Errorf("scoped got %+v", n)
	}

	scoped.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if err := scoped.ReadJSON(&n); err == nil {
		t.Errorf("scoped subscriber received foreign notification %+v", n)
	}
}

func TestDisconnectedSubscriberIsDropped(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitForSubscribers(t, h, 1)
	conn.Close()

	// Publishing into the closed connection drops the subscriber.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.Publish(New("tick", "s1", PriorityInfo, nil))
		if h.Snapshot().Subscribers == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber not dropped, stats %+v", h.Snapshot())
}

func waitForSubscribers(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Snapshot().Subscribers >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("only %d subscribers after wait, want %d", h.Snapshot().Subscribers, want)
}
