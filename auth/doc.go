// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identity derivation and code generation.

# Voter Fingerprints

A fingerprint is the per-poll dedup identity of one voter:

	fp := auth.VoterFingerprint(clientIP, userID, cfg.FingerprintSalt)

Authenticated submissions hash the user id; anonymous ones hash the source
address. Fingerprints are HMAC-SHA256 truncated to 64 bits - one-way, salted,
and only required to be unique within a single poll.

# Poll Codes

GeneratePollCode produces the short public code (two letters, four digits)
that voters and viewers type in. It is consumed by the poll-management layer
and by test fixtures; uniqueness comes from the database constraint.
*/
package auth
