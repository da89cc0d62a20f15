package ws

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	EventTypeChats    = "chats"
	EventTypeMessages = "messages"
	EventTypeScratch  = "scratch"
	EventTypeError    = "error"
)

// OutEvent исходящее событие: полный снимок в Payload.
type OutEvent struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(eventType string, payload any) OutEvent {
	return OutEvent{Type: eventType, Payload: payload, Timestamp: time.Now().UTC()}
}

func ErrorEvent(message string) OutEvent {
	return OutEvent{Type: EventTypeError, Message: message, Timestamp: time.Now().UTC()}
}

type Stats struct {
	Connections   atomic.Int64
	Total         atomic.Int64
	EventsSent    atomic.Int64
	EventsDropped atomic.Int64
}

type StatsSnapshot struct {
	Connections   int64 `json:"connections"`
	Total         int64 `json:"total"`
	EventsSent    int64 `json:"eventsSent"`
	EventsDropped int64 `json:"eventsDropped"`
	Users         int   `json:"users"`
}

// Hub реестр открытых соединений.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	byUser   map[string]int
	stats    Stats
	shutdown bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[string]int),
	}
}

// Register возвращает false, если хаб уже остановлен.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return false
	}

	c.hub = h
	h.clients[c] = struct{}{}
	h.byUser[c.UserID]++
	h.stats.Connections.Inc()
	h.stats.Total.Inc()
	return true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if h.byUser[c.UserID]--; h.byUser[c.UserID] <= 0 {
		delete(h.byUser, c.UserID)
	}
	h.stats.Connections.Dec()
}

// UserConnections число открытых соединений пользователя.
func (h *Hub) UserConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.byUser[userID]
}

func (h *Hub) Stats() StatsSnapshot {
	h.mu.RLock()
	users := len(h.byUser)
	h.mu.RUnlock()

	return StatsSnapshot{
		Connections:   h.stats.Connections.Load(),
		Total:         h.stats.Total.Load(),
		EventsSent:    h.stats.EventsSent.Load(),
		EventsDropped: h.stats.EventsDropped.Load(),
		Users:         users,
	}
}

// Shutdown закрывает все соединения; новые не принимаются.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.shutdown = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
