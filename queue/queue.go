// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queue

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"go.etcd.io/bbolt"

	"github.com/danielhkuo/livepoll/models"
)

// How often a blocked Dequeue re-checks the pending bucket. Wake-ups are
// normally driven by the notify channel; the ticker covers requeues from
// other processes' crash recovery.
const pollInterval = 250 * time.Millisecond

var (
	bucketPending  = []byte("pending")
	bucketInflight = []byte("inflight")
	bucketDead     = []byte("deadletter")
)

// Delivery is one job handed to a worker. The worker must finish with
// exactly one of Ack (done, terminal outcomes included) or Nack (transient
// failure, retry wanted).
type Delivery struct {
	Seq uint64
	Job models.VoteJob
}

// Queue is a durable FIFO job queue backed by a bbolt file.
//
// Jobs move pending -> inflight on Dequeue and leave inflight on Ack. A
// Nack either requeues the job (attempts incremented) or moves it to the
// dead-letter bucket once the attempt budget is spent. Jobs found inflight
// at Open are requeued, which makes delivery at-least-once across crashes.
type Queue struct {
	db          *bbolt.DB
	maxAttempts int
	notify      chan struct{}
}

// Open opens (creating if needed) the queue file and recovers any jobs that
// were inflight when the previous process died.
func Open(path string, maxAttempts int) (*Queue, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open queue: %w", err)
	}

	q := &Queue{
		db:          db,
		maxAttempts: maxAttempts,
		notify:      make(chan struct{}, 1),
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketPending, bucketInflight, bucketDead} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		// Crash recovery: anything inflight never got acked
		pending := tx.Bucket(bucketPending)
		inflight := tx.Bucket(bucketInflight)
		recovered := 0
		err := inflight.ForEach(func(k, v []byte) error {
			seq, err := pending.NextSequence()
			if err != nil {
				return err
			}
			if err := pending.Put(u64tob(seq), v); err != nil {
				return err
			}
			recovered++
			return nil
		})
		if err != nil {
			return err
		}
		if recovered > 0 {
			slog.Warn("requeued inflight vote jobs from previous run", "count", recovered)
		}
		// Cheaper than deleting key by key
		if err := tx.DeleteBucket(bucketInflight); err != nil {
			return err
		}
		_, err = tx.CreateBucket(bucketInflight)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return q, nil
}

// Close closes the underlying queue file.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue durably appends a job. It returns only after the job has been
// committed to disk, which is what lets the intake path answer 202.
func (q *Queue) Enqueue(job models.VoteJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.db.Update(func(tx *bbolt.Tx) error {
		pending := tx.Bucket(bucketPending)
		seq, err := pending.NextSequence()
		if err != nil {
			return err
		}
		return pending.Put(u64tob(seq), data)
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.wake()
	return nil
}

// Dequeue blocks until a job is available or ctx is done. The returned
// delivery is moved to the inflight bucket and survives a crash.
func (q *Queue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		d, err := q.tryDequeue()
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		case <-time.After(pollInterval):
		}
	}
}

func (q *Queue) tryDequeue() (*Delivery, error) {
	var d *Delivery

	err := q.db.Update(func(tx *bbolt.Tx) error {
		pending := tx.Bucket(bucketPending)
		inflight := tx.Bucket(bucketInflight)

		// Fresh cursor per iteration: the bucket is mutated inside the loop
		for {
			k, v := pending.Cursor().First()
			if k == nil {
				return nil
			}

			var job models.VoteJob
			if err := json.Unmarshal(v, &job); err != nil {
				// Unparseable payloads can never be processed; dead-letter
				// immediately rather than looping on them.
				slog.Error("dead-lettering unparseable vote job", "error", err)
				if err := moveToDead(tx, v); err != nil {
					return err
				}
				if err := pending.Delete(k); err != nil {
					return err
				}
				continue
			}

			if err := inflight.Put(k, v); err != nil {
				return err
			}
			if err := pending.Delete(k); err != nil {
				return err
			}
			d = &Delivery{Seq: btou64(k), Job: job}
			return nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	return d, nil
}

// Ack removes a delivered job from the inflight bucket. Call it for all
// terminal outcomes - success, duplicates, missing or expired polls.
func (q *Queue) Ack(d *Delivery) error {
	err := q.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketInflight).Delete(u64tob(d.Seq))
	})
	if err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// Nack records a failed delivery. The job is requeued with its attempt count
// incremented, or dead-lettered once maxAttempts deliveries have failed.
// Returns true if the job was requeued.
func (q *Queue) Nack(d *Delivery) (bool, error) {
	job := d.Job
	job.Attempts++
	requeue := job.Attempts < q.maxAttempts

	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("failed to marshal job: %w", err)
	}

	var deadCount int
	err = q.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketInflight).Delete(u64tob(d.Seq)); err != nil {
			return err
		}

		if requeue {
			pending := tx.Bucket(bucketPending)
			seq, err := pending.NextSequence()
			if err != nil {
				return err
			}
			return pending.Put(u64tob(seq), data)
		}

		if err := moveToDead(tx, data); err != nil {
			return err
		}
		deadCount = tx.Bucket(bucketDead).Stats().KeyN + 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to nack job: %w", err)
	}

	if requeue {
		q.wake()
	} else {
		// Operator-visible: dead-lettered jobs are never silently dropped
		slog.Error("vote job dead-lettered",
			"job_id", job.ID,
			"poll_code", job.PollCode,
			"attempts", job.Attempts,
			"dead_letters", humanize.Comma(int64(deadCount)),
		)
	}
	return requeue, nil
}

// Depth returns the number of pending jobs.
func (q *Queue) Depth() (int, error) {
	var n int
	err := q.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketPending).Stats().KeyN
		return nil
	})
	return n, err
}

// DeadLetters returns the dead-lettered jobs for operator inspection.
// Payloads that failed to parse are skipped.
func (q *Queue) DeadLetters() ([]models.VoteJob, error) {
	var jobs []models.VoteJob
	err := q.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDead).ForEach(func(k, v []byte) error {
			var job models.VoteJob
			if err := json.Unmarshal(v, &job); err == nil {
				jobs = append(jobs, job)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}
	return jobs, nil
}

// wake nudges one blocked Dequeue without ever blocking the caller.
func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func moveToDead(tx *bbolt.Tx, data []byte) error {
	dead := tx.Bucket(bucketDead)
	seq, err := dead.NextSequence()
	if err != nil {
		return err
	}
	return dead.Put(u64tob(seq), data)
}

func u64tob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btou64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
