// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"sync"
)

// Conn is the write side of one live viewer connection. Implementations must
// be safe for concurrent writes.
type Conn interface {
	WriteMessage(data []byte) error
}

// Registry maps poll codes to the set of connections currently viewing that
// poll. It is local to one process; cross-process delivery is the bus's job.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]map[Conn]struct{}
	joined map[Conn]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[Conn]struct{}),
		joined: make(map[Conn]string),
	}
}

// Join adds a connection to a poll's room, creating the room if needed. A
// connection watching another poll is moved, not duplicated.
func (r *Registry) Join(c Conn, pollCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.joined[c]; ok {
		if prev == pollCode {
			return
		}
		r.removeLocked(c, prev)
	}

	room, ok := r.rooms[pollCode]
	if !ok {
		room = make(map[Conn]struct{})
		r.rooms[pollCode] = room
	}
	room[c] = struct{}{}
	r.joined[c] = pollCode
}

// Leave removes a connection from whatever room it is in. Rooms left empty
// are deleted so the map does not accumulate dead poll codes.
func (r *Registry) Leave(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pollCode, ok := r.joined[c]; ok {
		r.removeLocked(c, pollCode)
	}
}

func (r *Registry) removeLocked(c Conn, pollCode string) {
	delete(r.joined, c)
	if room, ok := r.rooms[pollCode]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(r.rooms, pollCode)
		}
	}
}

// Broadcast writes payload to every connection in the poll's room and
// returns how many writes succeeded. Connections whose write fails are
// removed; a dead peer is never an error for the caller.
func (r *Registry) Broadcast(pollCode string, payload []byte) int {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.rooms[pollCode]))
	for c := range r.rooms[pollCode] {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	sent := 0
	for _, c := range conns {
		if err := c.WriteMessage(payload); err != nil {
			r.Leave(c)
			continue
		}
		sent++
	}
	return sent
}

// Viewers reports how many connections are watching a poll.
func (r *Registry) Viewers(pollCode string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms[pollCode])
}
