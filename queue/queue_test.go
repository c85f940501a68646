// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/livepoll/models"
)

func openTestQueue(t *testing.T, maxAttempts int) (*Queue, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.queue")
	q, err := Open(path, maxAttempts)
	if err != nil {
		t.Fatalf("Failed to open queue: %v", err)
	}
	return q, path
}

func testJob(id string) models.VoteJob {
	return models.VoteJob{
		ID:              id,
		PollCode:        "AB1234",
		SelectedOptions: []string{"Red"},
		Fingerprint:     "fp-" + id,
		SubmittedAt:     time.Now(),
	}
}

func TestEnqueueDequeueAck(t *testing.T) {
	q, _ := openTestQueue(t, 5)
	defer q.Close()

	if err := q.Enqueue(testJob("job-1")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if d.Job.ID != "job-1" {
		t.Errorf("Expected job-1, got %s", d.Job.ID)
	}

	// Dequeued but unacked: pending is empty
	depth, err := q.Depth()
	if err != nil {
		t.Fatalf("Depth failed: %v", err)
	}
	if depth != 0 {
		t.Errorf("Expected empty pending bucket, depth=%d", depth)
	}

	if err := q.Ack(d); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}
}

func TestDequeueOrdering(t *testing.T) {
	q, _ := openTestQueue(t, 5)
	defer q.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(testJob(id)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, want := range []string{"a", "b", "c"} {
		d, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if d.Job.ID != want {
			t.Errorf("Expected %s, got %s", want, d.Job.ID)
		}
		if err := q.Ack(d); err != nil {
			t.Fatalf("Ack failed: %v", err)
		}
	}
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	q, _ := openTestQueue(t, 5)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got := make(chan string, 1)
	go func() {
		d, err := q.Dequeue(ctx)
		if err != nil {
			return
		}
		got <- d.Job.ID
	}()

	time.Sleep(50 * time.Millisecond)
	if err := q.Enqueue(testJob("late")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case id := <-got:
		if id != "late" {
			t.Errorf("Expected 'late', got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake up on enqueue")
	}
}

func TestDequeueRespectsContext(t *testing.T) {
	q, _ := openTestQueue(t, 5)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestNackRequeuesWithAttempts(t *testing.T) {
	q, _ := openTestQueue(t, 3)
	defer q.Close()

	if err := q.Enqueue(testJob("flaky")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}

	requeued, err := q.Nack(d)
	if err != nil {
		t.Fatalf("Nack failed: %v", err)
	}
	if !requeued {
		t.Fatal("First Nack should requeue")
	}

	d, err = q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Redelivery failed: %v", err)
	}
	if d.Job.Attempts != 1 {
		t.Errorf("Expected attempts=1 on redelivery, got %d", d.Job.Attempts)
	}
	if d.Job.ID != "flaky" {
		t.Errorf("Expected same job back, got %s", d.Job.ID)
	}
}

func TestNackDeadLettersAtMaxAttempts(t *testing.T) {
	q, _ := openTestQueue(t, 2)
	defer q.Close()

	if err := q.Enqueue(testJob("doomed")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Attempt 1
	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	requeued, err := q.Nack(d)
	if err != nil {
		t.Fatalf("Nack failed: %v", err)
	}
	if !requeued {
		t.Fatal("Attempt 1 should be requeued")
	}

	// Attempt 2 exhausts the budget
	d, err = q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	requeued, err = q.Nack(d)
	if err != nil {
		t.Fatalf("Nack failed: %v", err)
	}
	if requeued {
		t.Fatal("Attempt 2 should be dead-lettered")
	}

	// Queue drained, dead letter recorded
	depth, _ := q.Depth()
	if depth != 0 {
		t.Errorf("Expected empty queue, depth=%d", depth)
	}

	dead, err := q.DeadLetters()
	if err != nil {
		t.Fatalf("DeadLetters failed: %v", err)
	}
	if len(dead) != 1 || dead[0].ID != "doomed" {
		t.Errorf("Expected doomed job in dead letters, got %+v", dead)
	}
}

func TestReopenRecoversInflight(t *testing.T) {
	q, path := openTestQueue(t, 5)

	if err := q.Enqueue(testJob("orphan")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Dequeue without acking, then simulate a crash by closing
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The orphaned job must come back on reopen
	q2, err := Open(path, 5)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer q2.Close()

	d, err := q2.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue after reopen failed: %v", err)
	}
	if d.Job.ID != "orphan" {
		t.Errorf("Expected recovered job 'orphan', got %s", d.Job.ID)
	}
}

func TestDepth(t *testing.T) {
	q, _ := openTestQueue(t, 5)
	defer q.Close()

	for i := 0; i < 4; i++ {
		if err := q.Enqueue(testJob(string(rune('a' + i)))); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	depth, err := q.Depth()
	if err != nil {
		t.Fatalf("Depth failed: %v", err)
	}
	if depth != 4 {
		t.Errorf("Expected depth 4, got %d", depth)
	}
}
