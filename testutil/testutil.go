// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/queue"
)

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp directory. Connections are capped at one so concurrent test
// writers serialize at the pool instead of tripping SQLITE_BUSY.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "livepoll_test.db") +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// OpenTestQueue creates a vote queue file in the test's temp directory.
func OpenTestQueue(t *testing.T, maxAttempts int) *queue.Queue {
	t.Helper()

	q, err := queue.Open(filepath.Join(t.TempDir(), "test.queue"), maxAttempts)
	if err != nil {
		t.Fatalf("Failed to open test queue: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3319,
		DatabaseType:    "sqlite",
		FingerprintSalt: "test-fingerprint-salt",
		WorkerCount:     5,
		MaxJobAttempts:  5,
		JobTimeout:      5 * time.Second,
		AdmissionTTL:    24 * time.Hour,
		BroadcastWindow: time.Second,
		ResultCacheTTL:  time.Hour,
	}
}

// PollFixture describes a poll to insert for a test. Zero values get
// sensible defaults (public single-choice poll with a generated code).
type PollFixture struct {
	Title          string
	Code           string
	Options        []string
	MultipleChoice bool
	PrivateResults bool
	ExpiresAt      *time.Time
	CreatedBy      string
}

// CreatePoll inserts a poll with its options and returns (pollID, pollCode).
func CreatePoll(t *testing.T, db *sql.DB, f PollFixture) (string, string) {
	t.Helper()

	if f.Title == "" {
		f.Title = "Test Poll"
	}
	if f.Code == "" {
		code, err := auth.GeneratePollCode()
		if err != nil {
			t.Fatalf("Failed to generate poll code: %v", err)
		}
		f.Code = code
	}

	pollID, err := auth.GenerateID(16)
	if err != nil {
		t.Fatalf("Failed to generate poll ID: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO poll (id, title, poll_code, is_multiple_choice, is_public_result,
		                  expires_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pollID, f.Title, f.Code, f.MultipleChoice, !f.PrivateResults,
		f.ExpiresAt, f.CreatedBy, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, text := range f.Options {
		optionID, err := auth.GenerateID(12)
		if err != nil {
			t.Fatalf("Failed to generate option ID: %v", err)
		}
		_, err = db.Exec(`
			INSERT INTO option (id, poll_id, text, votes, position)
			VALUES ($1, $2, $3, 0, $4)
		`, optionID, pollID, text, i)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}

	return pollID, f.Code
}

// OptionVotes returns the current vote count per option text.
func OptionVotes(t *testing.T, db *sql.DB, pollID string) map[string]int {
	t.Helper()

	rows, err := db.Query(`SELECT text, votes FROM option WHERE poll_id = $1`, pollID)
	if err != nil {
		t.Fatalf("Failed to query option votes: %v", err)
	}
	defer rows.Close()

	votes := make(map[string]int)
	for rows.Next() {
		var text string
		var n int
		if err := rows.Scan(&text, &n); err != nil {
			t.Fatalf("Failed to scan option votes: %v", err)
		}
		votes[text] = n
	}
	return votes
}

// LedgerCount returns the number of fingerprints recorded for a poll.
func LedgerCount(t *testing.T, db *sql.DB, pollID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM voter WHERE poll_id = $1`, pollID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count ledger entries: %v", err)
	}
	return n
}

// AuditCount returns the number of audit records for a poll.
func AuditCount(t *testing.T, db *sql.DB, pollID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM audit_vote WHERE poll_id = $1`, pollID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count audit records: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
