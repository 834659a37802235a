// Package websocket pushes application events to connected dashboards.
// Organisers receive events for their own organisation; reviewers receive
// every event.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/models"
)

// reviewersRoom is the room every admin and state reviewer joins.
const reviewersRoom = "reviewers"

type broadcastMessage struct {
	rooms   []string
	message []byte
}

type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan broadcastMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan broadcastMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("websocket hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for room, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, room)
			}
			h.mutex.Unlock()
			h.log.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			if _, ok := h.clients[client.room]; !ok {
				h.clients[client.room] = make(map[*Client]bool)
			}
			h.clients[client.room][client] = true
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			h.remove(client)
			h.mutex.Unlock()

		case bm := <-h.broadcast:
			h.mutex.Lock()
			for _, room := range bm.rooms {
				for client := range h.clients[room] {
					select {
					case client.send <- bm.message:
					default:
						// Slow consumer.
						h.remove(client)
					}
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// remove must be called with the mutex held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.room]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.room)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Broadcast sends event to the owning organisation and to reviewers. It
// never blocks the caller; events are dropped when the hub is backed up.
func (h *Hub) Broadcast(event models.ApplicationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal application event", zap.Error(err))
		return
	}
	rooms := []string{reviewersRoom}
	if !event.OrganizationID.IsZero() {
		rooms = append(rooms, event.OrganizationID.Hex())
	}
	select {
	case h.broadcast <- broadcastMessage{rooms: rooms, message: data}:
	default:
		h.log.Warn("websocket broadcast dropped", zap.String("application_id", event.ApplicationID))
	}
}

func roomFor(role, orgID string) string {
	if models.IsReviewer(role) {
		return reviewersRoom
	}
	return orgID
}
