// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ttlstore implements an in-memory key store with per-key expiry.
//
// It backs three concerns that share the same "short-lived key" shape: the
// vote admission lock (SetNX, 24h), the broadcast cooldown (SetNX, 1s), and
// the result snapshot cache (Set/Get/Delete, 1h). Expired entries are
// dropped lazily on read and swept periodically by a janitor goroutine.
//
// The store is per-process. The admission lock is therefore advisory: a
// restart forgets held locks (fail-open), and the voter ledger's conditional
// insert remains the authoritative duplicate check.
package ttlstore

import (
	"sync"
	"time"
)

const sweepInterval = time.Minute

// item is a stored value with its expiry.
type item struct {
	value     []byte
	expiresAt int64 // Unix nanoseconds
}

func (it item) expired(now int64) bool {
	return now > it.expiresAt
}

// Store is a mutex-guarded TTL key store.
type Store struct {
	mu    sync.Mutex
	items map[string]item
	done  chan struct{}
}

// New creates a Store and starts its janitor.
func New() *Store {
	s := &Store{
		items: make(map[string]item),
		done:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Close stops the janitor. The store remains usable; keys simply stop being
// swept in the background.
func (s *Store) Close() {
	close(s.done)
}

// SetNX atomically creates key with the given TTL if it is absent or
// expired. Returns true if the key was created (caller won the slot).
func (s *Store) SetNX(key string, ttl time.Duration) bool {
	now := time.Now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.items[key]; ok && !it.expired(now) {
		return false
	}
	s.items[key] = item{expiresAt: now + ttl.Nanoseconds()}
	return true
}

// Set stores value under key for the given TTL, replacing any prior entry.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	now := time.Now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = item{value: value, expiresAt: now + ttl.Nanoseconds()}
}

// Get returns the value stored under key, or false if absent or expired.
func (s *Store) Get(key string) ([]byte, bool) {
	now := time.Now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return nil, false
	}
	if it.expired(now) {
		delete(s.items, key)
		return nil, false
	}
	return it.value, true
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// Len reports the number of live entries (expired-but-unswept included).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

func (s *Store) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			s.mu.Lock()
			for key, it := range s.items {
				if it.expired(now) {
					delete(s.items, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
