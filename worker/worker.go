// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/livepoll/bus"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/queue"
	"github.com/danielhkuo/livepoll/ttlstore"
)

// Pool consumes vote jobs from the queue with a bounded number of workers
// and applies them to storage. Worker count is a throughput knob, not a
// correctness constraint: the voter ledger serializes conflicting applies.
type Pool struct {
	db    *sql.DB
	queue *queue.Queue
	locks *ttlstore.Store
	bus   *bus.Manager
	cfg   cliparse.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool wires a processor pool. Start must be called before jobs flow.
func NewPool(db *sql.DB, q *queue.Queue, locks *ttlstore.Store, b *bus.Manager, cfg cliparse.Config) *Pool {
	return &Pool{
		db:    db,
		queue: q,
		locks: locks,
		bus:   b,
		cfg:   cfg,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	slog.Info("vote processors started", "count", p.cfg.WorkerCount)
}

// Stop cancels the workers and waits for in-flight jobs to settle. Jobs
// dequeued but not yet acked are redelivered when the queue reopens.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		d, err := p.queue.Dequeue(ctx)
		if err != nil {
			// Context canceled: shutting down
			return
		}
		p.handle(ctx, d)
	}
}

func (p *Pool) handle(ctx context.Context, d *queue.Delivery) {
	jobCtx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	applied, err := p.process(jobCtx, d.Job)
	cancel()

	if err != nil {
		slog.Error("vote job failed",
			"job_id", d.Job.ID,
			"poll_code", d.Job.PollCode,
			"attempts", d.Job.Attempts,
			"error", err,
		)
		// Give a struggling store room to breathe before redelivery
		p.pause(ctx, backoff(d.Job.Attempts))
		if _, nerr := p.queue.Nack(d); nerr != nil {
			slog.Error("failed to nack job", "job_id", d.Job.ID, "error", nerr)
		}
		return
	}

	if aerr := p.queue.Ack(d); aerr != nil {
		slog.Error("failed to ack job", "job_id", d.Job.ID, "error", aerr)
	}
	if applied {
		p.afterApply(ctx, d.Job.PollCode)
	}
}

// process runs one job to a verdict. A nil error is terminal (success,
// duplicate, unknown or expired poll - never retried); a non-nil error is
// transient and triggers redelivery. applied reports whether counters moved.
func (p *Pool) process(ctx context.Context, job models.VoteJob) (applied bool, err error) {
	// Step 1: poll liveness
	var pollID string
	var isMulti bool
	var expiresAt sql.NullTime
	err = p.db.QueryRowContext(ctx, `
		SELECT id, is_multiple_choice, expires_at FROM poll WHERE poll_code = $1
	`, job.PollCode).Scan(&pollID, &isMulti, &expiresAt)

	if err == sql.ErrNoRows {
		slog.Warn("dropping vote for unknown poll", "poll_code", job.PollCode, "job_id", job.ID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("poll lookup: %w", err)
	}
	if expiresAt.Valid && expiresAt.Time.Before(time.Now()) {
		// Vote arrived after close: discarded, not an error
		return false, nil
	}

	// Step 2: audit record, keyed by job ID so redeliveries don't duplicate it
	selected, err := json.Marshal(job.SelectedOptions)
	if err != nil {
		return false, fmt.Errorf("marshal selections: %w", err)
	}
	var userID sql.NullString
	if job.UserID != "" {
		userID = sql.NullString{String: job.UserID, Valid: true}
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO audit_vote (id, poll_id, selected_options, fingerprint, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`, job.ID, pollID, string(selected), job.Fingerprint, userID, time.Now())
	if err != nil {
		return false, fmt.Errorf("audit write: %w", err)
	}

	// Step 3: atomic apply. The ledger insert and the counter increments are
	// one transaction, and the ledger's primary key is the precondition: of
	// two concurrent jobs for the same fingerprint, exactly one inserts a row
	// and only that one touches the counters.
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin apply: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO voter (poll_id, fingerprint, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, pollID, job.Fingerprint, time.Now())
	if err != nil {
		return false, fmt.Errorf("ledger insert: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ledger insert result: %w", err)
	}
	if inserted == 0 {
		// Authoritative duplicate. The voter already got a 202 at admission,
		// so this is logged and discarded, never surfaced.
		slog.Info("duplicate vote blocked by ledger",
			"poll_code", job.PollCode, "fingerprint", job.Fingerprint)
		return false, nil
	}

	selections := job.SelectedOptions
	if !isMulti && len(selections) > 1 {
		// Single-select poll: only the first choice counts
		selections = selections[:1]
	}

	matched := 0
	counted := make(map[string]bool, len(selections))
	for _, text := range selections {
		if counted[text] {
			continue
		}
		counted[text] = true

		res, err := tx.ExecContext(ctx, `
			UPDATE option SET votes = votes + 1 WHERE poll_id = $1 AND text = $2
		`, pollID, text)
		if err != nil {
			return false, fmt.Errorf("counter update: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			matched++
		}
	}
	if matched == 0 {
		// Ledger entry still stands: the fingerprint spent its vote on
		// options that don't exist
		slog.Warn("vote matched no options", "poll_code", job.PollCode, "job_id", job.ID)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("apply commit: %w", err)
	}
	return true, nil
}

// afterApply invalidates the read cache and, if this worker wins the
// coalescing window, publishes the fresh tally. Every vote in the window is
// counted in storage; only the broadcast is coalesced.
func (p *Pool) afterApply(ctx context.Context, pollCode string) {
	p.locks.Delete(ttlstore.ResultsKey(pollCode))

	if !p.locks.SetNX(ttlstore.CooldownKey(pollCode), p.cfg.BroadcastWindow) {
		return
	}

	results, err := p.tally(ctx, pollCode)
	if err != nil {
		// Best effort: storage already holds the truth and the next
		// successful broadcast or page load will show it
		slog.Error("failed to recompute tally", "poll_code", pollCode, "error", err)
		return
	}

	p.bus.Emit(bus.TopicPollUpdates, models.VoteUpdate{
		Type:     models.MsgVoteUpdate,
		PollCode: pollCode,
		Results:  results,
	})
	slog.Info("published tally update", "poll_code", pollCode)
}

func (p *Pool) tally(ctx context.Context, pollCode string) ([]models.TallyResult, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT o.text, o.votes
		FROM option o
		JOIN poll pl ON pl.id = o.poll_id
		WHERE pl.poll_code = $1
		ORDER BY o.position, o.id
	`, pollCode)
	if err != nil {
		return nil, fmt.Errorf("tally query: %w", err)
	}
	defer rows.Close()

	var results []models.TallyResult
	for rows.Next() {
		var tr models.TallyResult
		if err := rows.Scan(&tr.Text, &tr.Votes); err != nil {
			return nil, fmt.Errorf("tally scan: %w", err)
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}

// pause sleeps unless the pool is shutting down.
func (p *Pool) pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// backoff grows 100ms, 200ms, 400ms, ... capped at 2s.
func backoff(attempts int) time.Duration {
	d := 100 * time.Millisecond << uint(attempts)
	if d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}
