// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GeneratePollCode creates a short public code: two uppercase letters
// followed by four digits (e.g. "QK4812"). Uniqueness is enforced by the
// poll table's UNIQUE constraint, not here.
func GeneratePollCode() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const digits = "0123456789"

	b := make([]byte, 6)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate poll code: %w", err)
	}

	code := make([]byte, 6)
	for i := 0; i < 2; i++ {
		code[i] = letters[int(b[i])%len(letters)]
	}
	for i := 2; i < 6; i++ {
		code[i] = digits[int(b[i])%len(digits)]
	}
	return string(code), nil
}

// HashIdentity creates a one-way hash of a voter identity (IP address or
// user id) for privacy. Includes salt to prevent rainbow table attacks.
func HashIdentity(identity, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(identity))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}

// VoterFingerprint derives the per-poll dedup identity for one submission.
// Authenticated votes dedup on the user id so the same account cannot vote
// twice from different addresses; anonymous votes fall back to the hashed
// source address.
func VoterFingerprint(clientIP, userID, salt string) string {
	if userID != "" {
		return HashIdentity("user:"+userID, salt)
	}
	return HashIdentity("ip:"+clientIP, salt)
}
