package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/mvaldes/quadrant-governance/internal/domain"
)

// Topics for the global feeds. Team-scoped notifications go to
// "team:<uuid>".
const (
	TopicTerritory = "territory"
	TopicWars      = "wars"
)

// Hub fans governance notifications out to subscribed websocket clients.
// It implements service.Notifier; broadcasts are best-effort and a slow
// client is skipped rather than blocking the engine.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[string]bool
	stopped bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]map[string]bool)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.clients[client] = make(map[string]bool)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topics, ok := h.clients[client]; ok {
		topics[topic] = true
	}
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topics, ok := h.clients[client]; ok {
		delete(topics, topic)
	}
}

// Stop closes every client connection
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]map[string]bool)
}

func (h *Hub) broadcast(topic string, msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Printf("ERROR [websocket] marshal %s: %v", msgType, err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR [websocket] marshal %s: %v", msgType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client, topics := range h.clients {
		if !topics[topic] {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the frame
		}
	}
}

func (h *Hub) TeamStateChanged(e domain.TeamStateChanged) {
	msgType := MessageTypeTeamState
	if e.Change == "dissolved" {
		msgType = MessageTypeTeamDissolved
	}
	h.broadcast("team:"+e.TeamID.String(), msgType, e)
}

func (h *Hub) TerritoryControlChanged(e domain.TerritoryControlChanged) {
	h.broadcast(TopicTerritory, MessageTypeTerritoryControl, e)
	if e.NewController != nil {
		h.broadcast("team:"+e.NewController.String(), MessageTypeTerritoryControl, e)
	}
	if e.PreviousController != nil {
		h.broadcast("team:"+e.PreviousController.String(), MessageTypeTerritoryControl, e)
	}
}

func (h *Hub) WarStatusChanged(e domain.WarStatusChanged) {
	h.broadcast(TopicWars, MessageTypeWarStatus, e)
}

func (h *Hub) TreasuryChanged(e domain.TreasuryChanged) {
	h.broadcast("team:"+e.TeamID.String(), MessageTypeTreasury, e)
}
