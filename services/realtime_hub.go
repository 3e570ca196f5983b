package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"foodlog/models"
)

const defaultWriteWait = 10 * time.Second

// WSClient is one websocket subscriber. Writes are serialized per connection
// and must finish within WriteWait (10s when zero).
type WSClient struct {
	SessionID string
	Conn      *websocket.Conn
	WriteWait time.Duration

	wmu sync.Mutex
}

func (c *WSClient) Write(messageType int, data []byte) error {
	wait := c.WriteWait
	if wait <= 0 {
		wait = defaultWriteWait
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// RealtimeHub fans entry events out to every socket of a session.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[string]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.SessionID] == nil {
		h.clients[c.SessionID] = make(map[*WSClient]struct{})
	}
	h.clients[c.SessionID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.SessionID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.SessionID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Subscribers returns the number of open sockets for a session.
func (h *RealtimeHub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

type entryEvent struct {
	Kind  string           `json:"kind"`
	Entry models.FoodEntry `json:"entry"`
}

func (h *RealtimeHub) EntryCommitted(sessionID string, e models.FoodEntry) {
	h.broadcast(sessionID, entryEvent{Kind: "entry.created", Entry: e})
}

func (h *RealtimeHub) EntryRemoved(sessionID string, e models.FoodEntry) {
	h.broadcast(sessionID, entryEvent{Kind: "entry.removed", Entry: e})
}

func (h *RealtimeHub) broadcast(sessionID string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[sessionID]))
	for c := range h.clients[sessionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		if err := c.Write(websocket.TextMessage, msg); err != nil {
			h.Unregister(c)
		}
	}
}
