// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The schema is portable across SQLite and PostgreSQL: timestamps are always
// inserted explicitly by the application, so no NOW() defaults appear here.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    poll_code TEXT NOT NULL UNIQUE,
    is_multiple_choice BOOLEAN NOT NULL DEFAULT FALSE,
    is_public_result BOOLEAN NOT NULL DEFAULT TRUE,
    expires_at TIMESTAMP,
    created_by TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_code ON poll(poll_code);

-- Options (one row per choice; votes only ever increments)
CREATE TABLE IF NOT EXISTS option (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
    position INTEGER NOT NULL DEFAULT 0,
    UNIQUE (poll_id, text)
);

CREATE INDEX IF NOT EXISTS idx_option_poll_id ON option(poll_id);

-- Voter ledger. The primary key IS the dedup invariant: a fingerprint can be
-- recorded at most once per poll, and the conditional insert against this key
-- is the authoritative duplicate check.
CREATE TABLE IF NOT EXISTS voter (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    fingerprint TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (poll_id, fingerprint)
);

-- Audit trail, append-only, independent of the counters
CREATE TABLE IF NOT EXISTS audit_vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    selected_options TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    user_id TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_vote_poll_id ON audit_vote(poll_id);
`
