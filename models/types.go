// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Live update message types
const (
	MsgJoinPoll   = "JOIN_POLL"
	MsgVoteUpdate = "VOTE_UPDATE"
)

// Request types

type SubmitVoteRequest struct {
	SelectedOptions []string `json:"selectedOptions"`
}

// Response types

type SubmitVoteResponse struct {
	Message string `json:"message"`
}

type PollResponse struct {
	PollCode         string     `json:"poll_code"`
	Title            string     `json:"title"`
	Options          []string   `json:"options"`
	IsMultipleChoice bool       `json:"is_multiple_choice"`
	IsPublicResult   bool       `json:"is_public_result"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type OptionResult struct {
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage string `json:"percentage"`
}

type ResultsResponse struct {
	Title      string         `json:"title"`
	TotalVotes int            `json:"total_votes"`
	Results    []OptionResult `json:"results"`
}

// Domain types

type Poll struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	PollCode         string     `json:"poll_code"`
	IsMultipleChoice bool       `json:"is_multiple_choice"`
	IsPublicResult   bool       `json:"is_public_result"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedBy        string     `json:"-"` // Never expose in JSON
	CreatedAt        time.Time  `json:"created_at"`
}

type Option struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id"`
	Text     string `json:"text"`
	Votes    int    `json:"votes"`
	Position int    `json:"position"`
}

// VoteJob is the work item carried through the queue from intake to the
// processor. Attempts is incremented on every failed delivery.
type VoteJob struct {
	ID              string    `json:"id"`
	PollCode        string    `json:"poll_code"`
	SelectedOptions []string  `json:"selected_options"`
	Fingerprint     string    `json:"fingerprint"`
	UserID          string    `json:"user_id,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
	Attempts        int       `json:"attempts"`
}

// AuditVote is the immutable record of an accepted submission. It is written
// before the counters are touched and never updated.
type AuditVote struct {
	ID              string    `json:"id"`
	PollID          string    `json:"poll_id"`
	SelectedOptions []string  `json:"selected_options"`
	Fingerprint     string    `json:"-"` // Never expose in JSON
	UserID          string    `json:"user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Push messages

type JoinMessage struct {
	Type     string `json:"type"`
	PollCode string `json:"pollCode"`
}

// TallyResult is one option's count inside a VoteUpdate. It intentionally
// carries no percentage: viewers recompute display math from raw counts.
type TallyResult struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// VoteUpdate is the full replacement state pushed to every viewer of a poll
// after a coalesced broadcast fires. Because it carries the complete tally, a
// viewer that missed intermediate updates is still correct after applying it.
type VoteUpdate struct {
	Type     string        `json:"type"`
	PollCode string        `json:"pollCode"`
	Results  []TallyResult `json:"results"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
