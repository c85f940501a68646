// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package handlers contains the HTTP request handlers for the livepoll API.
//
// Vote intake (voting.go) is deliberately thin: validate, fingerprint, gate,
// enqueue, 202. All correctness-critical work happens in the worker so that a
// burst of submissions costs the request path almost nothing.
//
// Read handlers (polls.go, results.go) query storage directly; results go
// through the TTL snapshot cache for public polls.
package handlers
