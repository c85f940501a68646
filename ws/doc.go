// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ws delivers live tally updates to viewer connections.

# Protocol

A viewer opens GET /ws and joins a poll by sending:

	{"type":"JOIN_POLL","pollCode":"QK4812"}

Whenever a coalesced broadcast fires for that poll, every joined viewer
receives the full replacement tally:

	{"type":"VOTE_UPDATE","pollCode":"QK4812","results":[{"text":"Red","votes":12}, ...]}

Because the payload is complete state rather than a delta, a viewer that
missed intermediate updates is still correct after applying the latest one.

# Pieces

  - Registry: per-process map of poll code -> live connections, with empty
    rooms reclaimed on leave/disconnect
  - Handler.ServeWS: the upgrade endpoint and per-connection read loop
  - Run: the bus subscriber that serializes each update once and fans it out

Write failures drop the offending connection and nothing else; dead peers are
reaped, never surfaced as errors.
*/
package ws
