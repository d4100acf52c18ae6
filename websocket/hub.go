package websocket

import (
	"sync"

	"github.com/charmbracelet/log"

	"sonata/types"
)

// Hub fans library events out to every connected websocket client.
type Hub interface {
	Run()
	Broadcast(event types.LibraryEvent)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

type hub struct {
	clients map[*Client]bool

	broadcast  chan types.LibraryEvent
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new event hub.
func NewHub() Hub {
	return &hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan types.LibraryEvent, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop.
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Debug("websocket client disconnected")

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for delivery to all clients. Events are dropped
// rather than blocking library operations when the hub is saturated.
func (h *hub) Broadcast(event types.LibraryEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Warn("websocket broadcast channel full, dropping event", "type", event.Type)
	}
}

// RegisterClient adds a client to the hub.
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient removes a client from the hub.
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
