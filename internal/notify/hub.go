package notify

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const historySize = 100

// Hub is a websocket-backed Sink. Clients subscribe either to a single
// entity id (?entity=...) or globally (no query parameter); Publish
// fans each notification out to the matching subscribers. The hub also
// keeps a short in-memory history for late joiners and diagnostics.
type Hub struct {
	mu       sync.Mutex
	global   map[*subscriber]struct{}
	byEntity map[string]map[*subscriber]struct{}

	history []Notification
	stats   Stats

	upgrader websocket.Upgrader
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes to conn
}

// Stats summarizes hub activity.
type Stats struct {
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Subscribers int    `json:"subscribers"`
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		global:   make(map[*subscriber]struct{}),
		byEntity: make(map[string]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish implements Sink. Delivery failures drop the subscriber; the
// publishing engine is never blocked or failed by a slow client.
func (h *Hub) Publish(n Notification) {
	h.mu.Lock()
	h.stats.Published++
	h.history = append(h.history, n)
	if len(h.history) > historySize {
		h.history = h.history[len(h.history)-historySize:]
	}

	targets := make([]*subscriber, 0, len(h.global))
	for s := range h.global {
		targets = append(targets, s)
	}
	for s := range h.byEntity[n.EntityID] {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.mu.Lock()
		err := s.conn.WriteJSON(n)
		s.mu.Unlock()
		if err != nil {
			slog.Debug("notification delivery failed, dropping subscriber", "error", err)
			h.drop(s)
			continue
		}
		h.mu.Lock()
		h.stats.Delivered++
		h.mu.Unlock()
	}
}

// ServeHTTP upgrades the request to a websocket subscription. An
// `entity` query parameter scopes the subscription to one entity id;
// without it the client receives every notification.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := &subscriber{conn: conn}
	entity := r.URL.Query().Get("entity")

	h.mu.Lock()
	if entity == "" {
		h.global[s] = struct{}{}
	} else {
		if h.byEntity[entity] == nil {
			h.byEntity[entity] = make(map[*subscriber]struct{})
		}
		h.byEntity[entity][s] = struct{}{}
	}
	h.stats.Subscribers++
	h.mu.Unlock()

	// Reader loop exists only to notice disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(s)
				return
			}
		}
	}()
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.global[s]; ok {
		delete(h.global, s)
		h.stats.Subscribers--
	}
	for entity, subs := range h.byEntity {
		if _, ok := subs[s]; ok {
			delete(subs, s)
			h.stats.Subscribers--
			if len(subs) == 0 {
				delete(h.byEntity, entity)
			}
		}
	}
	h.mu.Unlock()
	s.conn.Close()
}

// Recent returns up to limit notifications from the history, newest
// last.
func (h *Hub) Recent(limit int) []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.history) {
		limit = len(h.history)
	}
	out := make([]Notification, limit)
	copy(out, h.history[len(h.history)-limit:])
	return out
}

// Snapshot returns current hub statistics.
func (h *Hub) Snapshot() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
