package handlers

import (
	"log"
	"net/http"

	"github.com/dom/blog-api/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type FeedHandler struct {
	hub      *websocket.Hub
	upgrader ws.Upgrader
}

// NewFeedHandler accepts upgrades from any origin when allowAll is set, and
// otherwise only from the listed origins.
func NewFeedHandler(hub *websocket.Hub, allowedOrigins []string) *FeedHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &FeedHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// Handle upgrades the connection and subscribes it to post events. The feed
// is public, like the post listing.
func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Printf("ERROR [handlers.FeedHandler] upgrade failed: %v", err)
		return
	}

	websocket.NewClient(h.hub, conn).Serve()
}
