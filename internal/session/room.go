package session

import (
	"sync"

	"collabtext/internal/models"
)

// Room is the fan-out group for one document. Membership mirrors the
// document store's participant set; the hub updates both together.
type Room struct {
	ID      string
	mu      sync.Mutex
	clients map[string]*Client
}

func NewRoom(id string) *Room {
	return &Room{ID: id, clients: make(map[string]*Client)}
}

func (r *Room) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Unregister drops a connection and returns the remaining member count.
// Unknown ids are skipped.
func (r *Room) Unregister(connectionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, connectionID)
	return len(r.clients)
}

func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast delivers a frame to every member except exceptID. The member
// set is snapshotted first so delivery never holds the room lock; a
// connection that unregisters mid-fanout just misses the frame.
func (r *Room) Broadcast(exceptID string, frame models.WSFrame) {
	r.mu.Lock()
	targets := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		if id == exceptID {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.Unlock()

	for _, c := range targets {
		c.Send(frame)
	}
}

// BroadcastAll delivers a frame to every member, sender included.
func (r *Room) BroadcastAll(frame models.WSFrame) {
	r.Broadcast("", frame)
}
