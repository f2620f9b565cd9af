package handlers

import (
	"log"
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/mvaldes/quadrant-governance/internal/api/middleware"
	"github.com/mvaldes/quadrant-governance/internal/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

type WebSocketHandler struct {
	hub      *websocket.Hub
	verifier *middleware.TokenVerifier
}

func NewWebSocketHandler(hub *websocket.Hub, verifier *middleware.TokenVerifier) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
	}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on websocket dials, so the token rides
	// the query string here.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	actorID, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, actorID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
