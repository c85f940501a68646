// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/handlers"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/queue"
	"github.com/danielhkuo/livepoll/ttlstore"
	"github.com/danielhkuo/livepoll/ws"
)

func NewRouter(db *sql.DB, q *queue.Queue, store *ttlstore.Store, wsHandler *ws.Handler, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(q, store, cfg)
	resultsHandler := handlers.NewResultsHandler(db, store, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Vote intake (public)
	mux.HandleFunc("POST /polls/{code}/votes", middleware.WithLogging(votingHandler.SubmitVote))

	// Poll and results retrieval (public, results subject to visibility)
	mux.HandleFunc("GET /polls/{code}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("GET /polls/{code}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Live updates (not wrapped in logging: the connection is long-lived)
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("livepoll API v1"))
	})

	return mux
}
