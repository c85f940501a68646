// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the livepoll API server.

Livepoll is a real-time audience polling service: voters submit a vote
against a short poll code, a durable queue absorbs submission bursts, and
connected viewers see the tally update live over WebSockets.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=livepoll.db FINGERPRINT_SALT=... go run main.go

Or with flags:

	go run main.go -p 3319 -d livepoll.db -fingerprint-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - FINGERPRINT_SALT (-fingerprint-salt): Secret for voter fingerprint HMAC

Optional settings:

  - PORT (-p): Server port (default: 3319)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - QUEUE_PATH (-q): Vote queue file (default: votes.queue)
  - WORKER_COUNT (-workers): Vote processor concurrency (default: 5)

# Architecture

A vote flows through four stages, each owned by one package:

  - handlers: intake gate and read endpoints (202 on accept)
  - queue: durable at-least-once work queue backed by bbolt
  - worker: dedup ledger check and atomic counter apply
  - ws: coalesced full-state broadcasts to poll viewers

Supporting packages:

  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and queue job types
  - auth: Poll codes, IDs, voter fingerprints
  - ttlstore: In-memory TTL keys (gate, cooldown, result cache)
  - bus: In-process pub/sub between workers and the WebSocket layer
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
