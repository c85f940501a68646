// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package bus implements an in-process publish/subscribe channel.
//
// Vote processors publish coalesced tally updates to TopicPollUpdates and the
// websocket layer subscribes for the lifetime of the server. In a
// multi-instance deployment this seam is where an external broker would slot
// in; the semantics (topic fan-out, best-effort delivery of full-state
// messages) stay the same.
package bus

import (
	"log/slog"
	"sync"
)

// TopicPollUpdates carries models.VoteUpdate messages.
const TopicPollUpdates = "poll_updates"

// Manager fans out published messages to every channel registered on a topic.
type Manager struct {
	sync.Mutex
	listeners map[string][]chan interface{}
}

// NewManager returns a new Manager.
func NewManager() *Manager {
	return &Manager{
		listeners: make(map[string][]chan interface{}),
	}
}

// Register subscribes a listener channel to a topic. Listeners should be
// buffered; Emit never blocks on them.
func (m *Manager) Register(topic string, listener chan interface{}) {
	m.Lock()
	defer m.Unlock()

	m.listeners[topic] = append(m.listeners[topic], listener)
}

// Emit delivers data to every listener on the topic. A listener whose buffer
// is full has the message dropped: published tallies are full replacement
// state, so a later message supersedes anything missed, and a stalled
// subscriber must not wedge the vote processors.
func (m *Manager) Emit(topic string, data interface{}) {
	m.Lock()
	defer m.Unlock()

	for _, ch := range m.listeners[topic] {
		select {
		case ch <- data:
		default:
			slog.Warn("bus listener full, dropping message", "topic", topic)
		}
	}
}
