// Package testkit provides a conformance suite and an in-memory backend for
// record store implementations.
package testkit

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"ncc.pub/ncc/event"
	"ncc.pub/ncc/storage"
)

// NewStore constructs a fresh, empty store instance for a test.
// The returned store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.RecordStore

// Record returns canonical signed-record bytes whose content is derived from
// seed. The signature is shape-valid only; stores do not verify signatures.
func Record(t *testing.T, seed string) ([]byte, string) {
	t.Helper()
	ev := &event.Event{
		PubKey:    "0000000000000000000000000000000000000000000000000000000000000000",
		CreatedAt: 1700000000,
		Kind:      event.KindDocument,
		Tags:      []event.Tag{{"d", seed}},
		Content:   fmt.Sprintf("record for %s", seed),
		Sig:       sigZero,
	}
	ev.ID = ev.ComputeID()
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return b, ev.ID
}

const sigZero = "00000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		st := newStore(t)
		want, wantID := Record(t, "roundtrip")

		id, err := st.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put id mismatch: got %s want %s", id, wantID)
		}

		got, err := st.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		st := newStore(t)
		b, _ := Record(t, "idempotent")

		id1, err := st.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := st.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		st := newStore(t)
		b, id := Record(t, "missing")

		if st.Has(id) {
			t.Fatalf("Has returned true for missing id")
		}
		if _, err := st.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := st.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !st.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectMalformedID", func(t *testing.T) {
		st := newStore(t)
		if st.Has("not-a-record-id") {
			t.Fatalf("Has should be false for a malformed id")
		}
		if _, err := st.Get("not-a-record-id"); err == nil {
			t.Fatalf("Get should fail for a malformed id")
		}
	})

	t.Run("RejectIDMismatch", func(t *testing.T) {
		st := newStore(t)
		ev := &event.Event{
			ID:        sigZero[:64],
			PubKey:    sigZero[:64],
			CreatedAt: 1700000000,
			Kind:      event.KindDocument,
			Tags:      []event.Tag{{"d", "tampered"}},
			Content:   "tampered",
			Sig:       sigZero,
		}
		b, err := ev.Marshal()
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if _, err := st.Put(b); err == nil {
			t.Fatalf("Put should reject bytes whose declared id does not match")
		}
	})
}

// MemStore is an in-memory record store for tests.
type MemStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

var _ storage.RecordStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string][]byte)}
}

func (m *MemStore) Put(b []byte) (string, error) {
	id, err := storage.RecordID(b)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[id]; ok {
		if !bytes.Equal(existing, b) {
			return "", storage.ErrImmutable
		}
		return id, nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	m.records[id] = cp
	return id, nil
}

func (m *MemStore) Get(id string) ([]byte, error) {
	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

func (m *MemStore) Has(id string) bool {
	if !storage.ValidID(id) {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[id]
	return ok
}
