// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package worker applies queued votes to storage and triggers broadcasts.

# Processing Steps

Each job runs through four steps under a per-job timeout:

 1. Liveness: a missing poll drops the job with a warning, an expired poll
    drops it silently. Neither is retried.
 2. Audit: an audit_vote row is written keyed by the job ID, so a redelivered
    job does not duplicate the record.
 3. Atomic apply: one transaction inserts the fingerprint into the voter
    ledger (ON CONFLICT DO NOTHING) and increments the selected option
    counters only if the insert took. The ledger, not the admission gate, is
    the final arbiter of "already voted".
 4. On success: the result cache entry is invalidated and, if the 1s
    coalescing slot is won, the full tally is published on the bus.

# Failure Semantics

A nil verdict from processing is terminal and acked, including duplicates and
dead polls. A non-nil verdict is transient: the worker backs off briefly and
nacks, handing retry accounting to the queue.
*/
package worker
