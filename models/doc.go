// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain, and push-message types.

# Request Types

Types for parsing incoming JSON:

  - SubmitVoteRequest: selectedOptions ([]string)

# Response Types

Types for JSON responses:

  - SubmitVoteResponse: message
  - PollResponse: poll metadata and option texts, no counts
  - ResultsResponse: title, total_votes, per-option results with percentages
  - ErrorResponse: error, message

# Domain Types

  - Poll, Option: the stored poll definition and its counters
  - VoteJob: the queued work item (intake → processor)
  - AuditVote: immutable per-vote audit record

# Push Messages

Messages exchanged over the live update channel:

  - JoinMessage: {"type":"JOIN_POLL","pollCode":...} from viewer to server
  - VoteUpdate: {"type":"VOTE_UPDATE","pollCode":...,"results":[...]} pushed
    to every viewer of a poll when a coalesced broadcast fires
*/
package models
