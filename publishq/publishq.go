// Package publishq implements a durable relay-publish queue.
//
// Publishing to gossip relays is best-effort and flaky; records that fail to
// send must survive process restarts and retry with backoff rather than be
// lost. Tasks are persisted in BadgerDB and keyed by their next attempt time,
// so the scan order is the retry order.
package publishq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Retry policy defaults, tuned for relay publishing: quick first retry,
// capped exponential growth, jitter to avoid thundering herds.
const (
	DefaultMaxAttempts  = 5
	DefaultPollInterval = 5 * time.Second

	baseDelay  = 30 * time.Second
	maxDelay   = time.Hour
	jitterFrac = 0.2
)

var taskPrefix = []byte("publishq/")

// Publisher sends one signed record to the given relays and returns its
// event id. A non-nil error requeues the task.
type Publisher interface {
	Publish(ctx context.Context, record []byte, relays []string) (string, error)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, record []byte, relays []string) (string, error)

func (f PublisherFunc) Publish(ctx context.Context, record []byte, relays []string) (string, error) {
	return f(ctx, record, relays)
}

// Task is one queued publish.
type Task struct {
	ID            string   `json:"id"`
	Record        []byte   `json:"record"`
	Relays        []string `json:"relays"`
	Attempts      int      `json:"attempts"`
	MaxAttempts   int      `json:"maxAttempts"`
	NextAttemptAt int64    `json:"nextAttemptAt"`
	CreatedAt     int64    `json:"createdAt"`
	LastError     string   `json:"lastError,omitempty"`
}

// Queue is a durable publish queue backed by BadgerDB.
type Queue struct {
	db    *badger.DB
	owned bool
	pub   Publisher

	// Notify, when set, receives one line per queue outcome.
	Notify func(string)

	// now and jitter are test seams.
	now    func() int64
	jitter func() float64
}

// Open opens (or creates) a persistent queue at dir.
func Open(dir string, pub Publisher) (*Queue, error) {
	if dir == "" {
		return nil, errors.New("publishq: directory is required")
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	q := Wrap(db, pub)
	q.owned = true
	return q, nil
}

// OpenInMemory opens an in-memory queue. Tasks are lost on Close.
func OpenInMemory(pub Publisher) (*Queue, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	q := Wrap(db, pub)
	q.owned = true
	return q, nil
}

// Wrap adapts an already-open DB. Close is then the caller's responsibility.
func Wrap(db *badger.DB, pub Publisher) *Queue {
	return &Queue{
		db:     db,
		pub:    pub,
		now:    func() int64 { return time.Now().Unix() },
		jitter: func() float64 { return rand.Float64()*2 - 1 },
	}
}

// Close closes the underlying database if this queue opened it.
func (q *Queue) Close() error {
	if !q.owned {
		return nil
	}
	return q.db.Close()
}

// Enqueue persists a publish task. Zero-valued fields get defaults; the
// first attempt is delayed like a retry so a flapping relay is not hammered
// by a burst of enqueues.
func (q *Queue) Enqueue(t Task) (Task, error) {
	if len(t.Record) == 0 {
		return Task{}, errors.New("publishq: empty record")
	}
	now := q.now()
	if t.ID == "" {
		t.ID = fmt.Sprintf("%016x", rand.Int63())
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = now
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = DefaultMaxAttempts
	}
	if t.NextAttemptAt == 0 {
		t.NextAttemptAt = now + int64(q.retryDelay(t.Attempts+1)/time.Second)
	}
	if err := q.put(t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// ProcessOnce attempts the due task with the earliest next-attempt time.
//
// It reports whether a task was attempted. Exhausted tasks are dropped after
// MaxAttempts; failed ones are requeued with backoff. The publish error is
// never returned, only recorded on the task and surfaced via Notify.
func (q *Queue) ProcessOnce(ctx context.Context) (bool, error) {
	if q.pub == nil {
		return false, errors.New("publishq: no publisher configured")
	}
	now := q.now()
	t, key, ok, err := q.nextDue(now)
	if err != nil || !ok {
		return false, err
	}

	eventID, perr := q.pub.Publish(ctx, t.Record, t.Relays)
	if perr == nil {
		q.notify(fmt.Sprintf("queued publish succeeded (event %s)", eventID))
		return true, q.delete(key)
	}

	t.Attempts++
	t.LastError = perr.Error()
	if t.Attempts >= t.MaxAttempts {
		q.notify(fmt.Sprintf("queued publish failed permanently after %d attempts: %v", t.Attempts, perr))
		return true, q.delete(key)
	}

	t.NextAttemptAt = q.now() + int64(q.retryDelay(t.Attempts+1)/time.Second)
	q.notify(fmt.Sprintf("queued publish failed (attempt %d/%d): %v", t.Attempts, t.MaxAttempts, perr))
	if err := q.delete(key); err != nil {
		return true, err
	}
	return true, q.put(t)
}

// Run processes the queue until ctx is done.
func (q *Queue) Run(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		for {
			attempted, err := q.ProcessOnce(ctx)
			if err != nil {
				return err
			}
			if !attempted {
				break
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tasks returns all queued tasks in retry order.
func (q *Queue) Tasks() ([]Task, error) {
	var out []Task
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = taskPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(taskPrefix); it.ValidForPrefix(taskPrefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var t Task
				if err := json.Unmarshal(v, &t); err != nil {
					return err
				}
				out = append(out, t)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// retryDelay is capped exponential backoff with +/-20% jitter:
// base*2^(attempts-1) bounded by maxDelay, never below one second.
func (q *Queue) retryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseDelay
	for i := 1; i < attempts && d < maxDelay; i++ {
		d *= 2
	}
	if d > maxDelay {
		d = maxDelay
	}
	d = time.Duration(float64(d) * (1 + jitterFrac*q.jitter()))
	if d < time.Second {
		d = time.Second
	}
	return d
}

// taskKey orders tasks by next attempt time, then id.
func taskKey(t Task) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", taskPrefix, t.NextAttemptAt, t.ID))
}

func (q *Queue) put(t Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(taskKey(t), b)
	})
}

func (q *Queue) delete(key []byte) error {
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (q *Queue) nextDue(now int64) (Task, []byte, bool, error) {
	var t Task
	var key []byte
	found := false
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = taskPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Seek(taskPrefix)
		if !it.ValidForPrefix(taskPrefix) {
			return nil
		}
		item := it.Item()
		return item.Value(func(v []byte) error {
			var cand Task
			if err := json.Unmarshal(v, &cand); err != nil {
				return err
			}
			if cand.NextAttemptAt > now {
				return nil
			}
			t = cand
			key = item.KeyCopy(nil)
			found = true
			return nil
		})
	})
	return t, key, found, err
}

func (q *Queue) notify(msg string) {
	if q.Notify != nil {
		q.Notify(msg)
	}
}
