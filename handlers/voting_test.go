// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/testutil"
	"github.com/danielhkuo/livepoll/ttlstore"
)

func submitRequest(code string, body interface{}, headers map[string]string) *http.Request {
	req := testutil.MakeRequest(http.MethodPost, "/polls/"+code+"/votes", body, headers)
	req.SetPathValue("code", code)
	return req
}

func TestSubmitVoteQueued(t *testing.T) {
	q := testutil.OpenTestQueue(t, 5)
	gate := ttlstore.New()
	t.Cleanup(gate.Close)
	h := NewVotingHandler(q, gate, testutil.GetTestConfig())

	w := httptest.NewRecorder()
	h.SubmitVote(w, submitRequest("AB1234", models.SubmitVoteRequest{
		SelectedOptions: []string{"Red"},
	}, nil))

	testutil.AssertStatus(t, w, http.StatusAccepted)

	if depth, err := q.Depth(); err != nil || depth != 1 {
		t.Fatalf("Expected 1 queued job, got %d (err %v)", depth, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Failed to dequeue: %v", err)
	}
	if d.Job.PollCode != "AB1234" {
		t.Errorf("Expected poll code AB1234, got %q", d.Job.PollCode)
	}
	if len(d.Job.SelectedOptions) != 1 || d.Job.SelectedOptions[0] != "Red" {
		t.Errorf("Unexpected selections: %v", d.Job.SelectedOptions)
	}
	if d.Job.ID == "" {
		t.Error("Expected a job ID")
	}
	if d.Job.Fingerprint == "" {
		t.Error("Expected a fingerprint")
	}
	if d.Job.SubmittedAt.IsZero() {
		t.Error("Expected a submission timestamp")
	}
}

func TestSubmitVoteValidation(t *testing.T) {
	q := testutil.OpenTestQueue(t, 5)
	gate := ttlstore.New()
	t.Cleanup(gate.Close)
	h := NewVotingHandler(q, gate, testutil.GetTestConfig())

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty selections", models.SubmitVoteRequest{SelectedOptions: []string{}}},
		{"missing selections", map[string]string{"other": "field"}},
		{"empty string selection", models.SubmitVoteRequest{SelectedOptions: []string{"Red", ""}}},
		{"no body", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.SubmitVote(w, submitRequest("AB1234", tt.body, nil))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}

	if depth, err := q.Depth(); err != nil || depth != 0 {
		t.Errorf("Rejected submissions must not enqueue, found %d jobs (err %v)", depth, err)
	}
}

func TestSubmitVoteDuplicateGate(t *testing.T) {
	q := testutil.OpenTestQueue(t, 5)
	gate := ttlstore.New()
	t.Cleanup(gate.Close)
	h := NewVotingHandler(q, gate, testutil.GetTestConfig())

	body := models.SubmitVoteRequest{SelectedOptions: []string{"Red"}}

	w := httptest.NewRecorder()
	h.SubmitVote(w, submitRequest("AB1234", body, nil))
	testutil.AssertStatus(t, w, http.StatusAccepted)

	// Same client, same poll: gated
	w = httptest.NewRecorder()
	h.SubmitVote(w, submitRequest("AB1234", body, nil))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "You have already voted in this poll" {
		t.Errorf("Unexpected gate message: %q", errResp.Message)
	}

	// A different user identity is a different fingerprint
	w = httptest.NewRecorder()
	h.SubmitVote(w, submitRequest("AB1234", body, map[string]string{"X-User-ID": "user-2"}))
	testutil.AssertStatus(t, w, http.StatusAccepted)

	if depth, err := q.Depth(); err != nil || depth != 2 {
		t.Errorf("Expected 2 queued jobs, got %d (err %v)", depth, err)
	}
}

func TestSubmitVoteGateIsPerPoll(t *testing.T) {
	q := testutil.OpenTestQueue(t, 5)
	gate := ttlstore.New()
	t.Cleanup(gate.Close)
	h := NewVotingHandler(q, gate, testutil.GetTestConfig())

	body := models.SubmitVoteRequest{SelectedOptions: []string{"Red"}}

	w := httptest.NewRecorder()
	h.SubmitVote(w, submitRequest("AB1234", body, nil))
	testutil.AssertStatus(t, w, http.StatusAccepted)

	w = httptest.NewRecorder()
	h.SubmitVote(w, submitRequest("CD5678", body, nil))
	testutil.AssertStatus(t, w, http.StatusAccepted)
}
