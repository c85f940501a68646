// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - poll: Poll metadata, visibility, and expiry
  - option: Per-option vote counters (monotonically increasing)
  - voter: Per-poll fingerprint ledger used for duplicate detection
  - audit_vote: Append-only record of every applied vote

# Relationships

	poll 1──* option
	poll 1──* voter
	poll 1──* audit_vote

All foreign keys use ON DELETE CASCADE.

# The voter ledger

voter's primary key (poll_id, fingerprint) backs the authoritative dedup
check: the vote processor inserts into it with ON CONFLICT DO NOTHING in the
same transaction that increments the option counters. A zero-row insert means
the fingerprint already voted and the counters are left untouched.
*/
package db
