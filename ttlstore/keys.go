// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ttlstore

// Key builders shared by the intake path, the vote processor, and the read
// path, so the three never disagree on naming.

// AdmissionKey is the advisory vote lock for one voter on one poll.
func AdmissionKey(pollCode, fingerprint string) string {
	return "vote_lock:" + pollCode + ":" + fingerprint
}

// CooldownKey is the broadcast coalescing slot for one poll.
func CooldownKey(pollCode string) string {
	return "broadcast_cooldown:" + pollCode
}

// ResultsKey is the cached result snapshot for one poll.
func ResultsKey(pollCode string) string {
	return "poll:results:" + pollCode
}
