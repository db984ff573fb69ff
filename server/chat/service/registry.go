package service

import "sync"

// Registry tracks connected clients and maps room ids to the clients
// currently joined to them.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:   map[string]map[*Client]struct{}{},
		clients: map[*Client]struct{}{},
	}
}

// Register records a connected client. After CloseAll it closes c instead
// and reports false.
func (r *Registry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		c.Close()
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// Unregister removes c from every room and forgets it.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range c.rooms {
		r.leaveLocked(roomID, c)
	}
	delete(r.clients, c)
}

func (r *Registry) Connected() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll closes every connected client and refuses new ones. Each write
// pump then sends a normal closure frame and its read loop returns.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	r.closed = true
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	return len(clients)
}

func (r *Registry) Join(roomID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		members = map[*Client]struct{}{}
		r.rooms[roomID] = members
	}
	members[c] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

func (r *Registry) Leave(roomID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, c)
}

func (r *Registry) leaveLocked(roomID string, c *Client) {
	delete(c.rooms, roomID)
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// LeaveAll removes c from every room it joined.
func (r *Registry) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range c.rooms {
		r.leaveLocked(roomID, c)
	}
}

func (r *Registry) IsMember(roomID string, c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID][c]
	return ok
}

func (r *Registry) Members(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.rooms[roomID]))
	for c := range r.rooms[roomID] {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Broadcast queues payload on every member and returns how many accepted
// it. Members whose send buffer is full are removed and closed.
func (r *Registry) Broadcast(roomID string, payload []byte) int {
	var delivered int
	var slow []*Client

	r.mu.RLock()
	for c := range r.rooms[roomID] {
		if c.trySend(payload) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range slow {
		r.drop(c)
	}
	return delivered
}

func (r *Registry) drop(c *Client) {
	r.LeaveAll(c)
	c.Close()
}
