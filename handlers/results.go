// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/ttlstore"
)

type ResultsHandler struct {
	db    *sql.DB
	cache *ttlstore.Store
	cfg   cliparse.Config
}

func NewResultsHandler(db *sql.DB, cache *ttlstore.Store, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cache: cache, cfg: cfg}
}

// GetResults handles GET /polls/:code/results
//
// Only public polls are ever cached, so a cache hit needs no visibility
// check. Private results always go through the creator check below.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollCode := r.PathValue("code")
	if pollCode == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll code is required")
		return
	}

	cacheKey := ttlstore.ResultsKey(pollCode)
	if body, ok := h.cache.Get(cacheKey); ok {
		middleware.RawJSONResponse(w, http.StatusOK, body)
		return
	}

	var pollID, title string
	var isPublic bool
	var createdBy sql.NullString
	err := h.db.QueryRowContext(r.Context(),
		`SELECT id, title, is_public_result, created_by FROM poll WHERE poll_code = $1`, pollCode,
	).Scan(&pollID, &title, &isPublic, &createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to load poll", "error", err, "poll_code", pollCode)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	if !isPublic {
		requester := r.Header.Get("X-User-ID")
		if requester == "" || !createdBy.Valid || requester != createdBy.String {
			middleware.ErrorResponse(w, http.StatusForbidden, "Results for this poll are private")
			return
		}
	}

	rows, err := h.db.QueryContext(r.Context(),
		`SELECT text, votes FROM option WHERE poll_id = $1 ORDER BY position, id`, pollID)
	if err != nil {
		slog.Error("failed to load options", "error", err, "poll_code", pollCode)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load results")
		return
	}
	defer rows.Close()

	resp := models.ResultsResponse{Title: title, Results: []models.OptionResult{}}
	for rows.Next() {
		var res models.OptionResult
		if err := rows.Scan(&res.Text, &res.Votes); err != nil {
			slog.Error("failed to scan option", "error", err, "poll_code", pollCode)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load results")
			return
		}
		resp.TotalVotes += res.Votes
		resp.Results = append(resp.Results, res)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read options", "error", err, "poll_code", pollCode)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	for i := range resp.Results {
		pct := 0.0
		if resp.TotalVotes > 0 {
			pct = float64(resp.Results[i].Votes) / float64(resp.TotalVotes) * 100
		}
		resp.Results[i].Percentage = fmt.Sprintf("%.1f", pct)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode results", "error", err, "poll_code", pollCode)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	if isPublic {
		h.cache.Set(cacheKey, body, h.cfg.ResultCacheTTL)
	}
	middleware.RawJSONResponse(w, http.StatusOK, body)
}
