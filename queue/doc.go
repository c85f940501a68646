// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package queue implements the durable vote job queue.

# Lifecycle

Jobs live in one of three bbolt buckets:

	pending ──Dequeue──> inflight ──Ack──> gone
	   ^                    │
	   └──────Nack──────────┤ (attempts < max)
	                        └──Nack──> deadletter (attempts exhausted)

Enqueue commits the job to disk before returning, so the HTTP intake path can
answer "202 accepted" with the vote durably parked even if processing lags.

# Delivery Guarantees

At-least-once: a job is only removed on Ack, and jobs found inflight when the
queue is reopened are requeued (the previous process died mid-job). Workers
must therefore be idempotent - which the vote processor is, since applying a
vote is conditioned on the voter ledger.

Ordering is FIFO per queue file but not a guarantee: requeued jobs rejoin at
the tail.

# Dead Letters

A job whose attempt budget is spent moves to the deadletter bucket and is
logged at error level. DeadLetters() exposes the bucket for operator
inspection; nothing is ever silently dropped.
*/
package queue
