// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// GetPoll handles GET /polls/:code
//
// The response is voting metadata only: option texts without counts. Counts
// live behind /results so that a ballot screen never leaks a running tally.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollCode := r.PathValue("code")
	if pollCode == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll code is required")
		return
	}

	var pollID string
	resp := models.PollResponse{PollCode: pollCode}
	var expiresAt sql.NullTime
	err := h.db.QueryRowContext(r.Context(),
		`SELECT id, title, is_multiple_choice, is_public_result, expires_at, created_at
		 FROM poll WHERE poll_code = $1`, pollCode,
	).Scan(&pollID, &resp.Title, &resp.IsMultipleChoice, &resp.IsPublicResult, &expiresAt, &resp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to load poll", "error", err, "poll_code", pollCode)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
		return
	}
	if expiresAt.Valid {
		resp.ExpiresAt = &expiresAt.Time
	}

	rows, err := h.db.QueryContext(r.Context(),
		`SELECT text FROM option WHERE poll_id = $1 ORDER BY position, id`, pollID)
	if err != nil {
		slog.Error("failed to load options", "error", err, "poll_code", pollCode)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			slog.Error("failed to scan option", "error", err, "poll_code", pollCode)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
			return
		}
		resp.Options = append(resp.Options, text)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read options", "error", err, "poll_code", pollCode)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
