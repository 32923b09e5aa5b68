package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/dom/blog-api/internal/domain"
)

const broadcastBufferSize = 256

// Hub fans post events out to every connected feed client. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Subscriber is not keeping up; drop it.
					log.Printf("WARN [websocket.Hub] dropping slow feed client")
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop closes every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues a post event for broadcast. It never blocks the caller; when
// the broadcast buffer is full the event is dropped and logged.
func (h *Hub) Publish(event domain.PostEvent) {
	msg, err := NewPostMessage(event)
	if err != nil {
		log.Printf("ERROR [websocket.Publish] Failed to build %s message: %v", event.Type, err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR [websocket.Publish] Failed to marshal %s message: %v", event.Type, err)
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		log.Printf("WARN [websocket.Publish] broadcast buffer full, dropping %s", event.Type)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
