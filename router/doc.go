// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the livepoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, q, store, wsHandler, cfg)

# Endpoints

Health:

	GET /health

Voting (public):

	POST /polls/{code}/votes - Submit a vote (202 accepted into the queue)

Retrieval (public):

	GET /polls/{code}         - Poll info and option texts (no counts)
	GET /polls/{code}/results - Current tally (private polls: creator only)

Live updates:

	GET /ws - WebSocket endpoint; send a JOIN_POLL message to subscribe

# Handler Initialization

The router creates handler instances with dependency injection:

	pollHandler := handlers.NewPollHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(q, store, cfg)
	resultsHandler := handlers.NewResultsHandler(db, store, cfg)

Vote intake never touches the database; it only writes to the queue. The
worker pool (package worker) consumes the queue and applies votes.
*/
package router
