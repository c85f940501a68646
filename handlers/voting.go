// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/queue"
	"github.com/danielhkuo/livepoll/ttlstore"
)

type VotingHandler struct {
	queue *queue.Queue
	gate  *ttlstore.Store
	cfg   cliparse.Config
}

func NewVotingHandler(q *queue.Queue, gate *ttlstore.Store, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{queue: q, gate: gate, cfg: cfg}
}

// SubmitVote handles POST /polls/:code/votes
//
// The 202 promises only that the vote is durably queued. Whether it counts is
// decided later by the processor's ledger check; a duplicate that slips past
// the gate here is discarded there without the voter ever seeing an error.
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	pollCode := r.PathValue("code")
	if pollCode == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll code is required")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.SelectedOptions) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "selectedOptions must be a non-empty array")
		return
	}
	for _, opt := range req.SelectedOptions {
		if opt == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "selectedOptions must not contain empty strings")
			return
		}
	}

	userID := r.Header.Get("X-User-ID")
	fingerprint := auth.VoterFingerprint(middleware.GetClientIP(r), userID, h.cfg.FingerprintSalt)

	// Advisory fast path: absorbs double clicks and retried requests before
	// they cost queue or storage work
	admissionKey := ttlstore.AdmissionKey(pollCode, fingerprint)
	if !h.gate.SetNX(admissionKey, h.cfg.AdmissionTTL) {
		middleware.ErrorResponse(w, http.StatusForbidden, "You have already voted in this poll")
		return
	}

	job := models.VoteJob{
		ID:              uuid.NewString(),
		PollCode:        pollCode,
		SelectedOptions: req.SelectedOptions,
		Fingerprint:     fingerprint,
		UserID:          userID,
		SubmittedAt:     time.Now(),
	}

	if err := h.queue.Enqueue(job); err != nil {
		slog.Error("failed to enqueue vote", "error", err, "poll_code", pollCode)
		// The vote never queued; release the admission slot so a retry can
		// get through
		h.gate.Delete(admissionKey)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to accept vote")
		return
	}

	slog.Info("vote accepted", "poll_code", pollCode, "job_id", job.ID)

	middleware.JSONResponse(w, http.StatusAccepted, models.SubmitVoteResponse{
		Message: "Vote received and queued for processing",
	})
}
