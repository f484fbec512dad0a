package storage_test

import (
	"errors"
	"strings"
	"testing"

	"ncc.pub/ncc/storage"
	"ncc.pub/ncc/storage/testkit"
)

func TestMemStoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.RecordStore {
		t.Helper()
		return testkit.NewMemStore()
	})
}

func TestRecordID(t *testing.T) {
	b, id := testkit.Record(t, "recordid")
	got, err := storage.RecordID(b)
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	if got != id {
		t.Fatalf("RecordID = %q, want %q", got, id)
	}
	if _, err := storage.RecordID([]byte("garbage")); !errors.Is(err, storage.ErrInvalidID) {
		t.Fatalf("RecordID(garbage): got %v want ErrInvalidID", err)
	}
}

func TestValidID(t *testing.T) {
	if !storage.ValidID(strings.Repeat("a0", 32)) {
		t.Fatal("valid id rejected")
	}
	for _, bad := range []string{"", "abc", strings.Repeat("A0", 32), strings.Repeat("g0", 32)} {
		if storage.ValidID(bad) {
			t.Fatalf("ValidID(%q) must be false", bad)
		}
	}
}

func TestMultiStoreFallback(t *testing.T) {
	primary := testkit.NewMemStore()
	secondary := testkit.NewMemStore()
	multi := storage.MultiStore{Adapters: []storage.RecordStore{primary, secondary}}

	// A record present only in the secondary is still retrievable.
	b, id := testkit.Record(t, "fallback")
	if _, err := secondary.Put(b); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := multi.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(b) {
		t.Fatal("bytes mismatch")
	}
	if !multi.Has(id) {
		t.Fatal("Has must consult all adapters")
	}

	// Put goes to the first adapter only.
	b2, id2 := testkit.Record(t, "primary-only")
	if _, err := multi.Put(b2); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !primary.Has(id2) {
		t.Fatal("Put must write the first adapter")
	}
	if secondary.Has(id2) {
		t.Fatal("Put must not write other adapters")
	}

	empty := storage.MultiStore{}
	if _, err := empty.Put(b2); err == nil {
		t.Fatal("empty MultiStore must reject Put")
	}
	if _, err := empty.Get(id2); !storage.IsNotFound(err) {
		t.Fatalf("empty MultiStore Get: got %v want ErrNotFound", err)
	}
}

func TestReplicatingStorePutAll(t *testing.T) {
	a := testkit.NewMemStore()
	b := testkit.NewMemStore()
	repl := storage.ReplicatingStore{Backends: []storage.NamedStore{
		{Name: "a", Store: a},
		{Name: "b", Store: b},
	}}

	rec, id := testkit.Record(t, "replicated")
	got, perBackend, err := repl.PutAll(rec)
	if err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}
	if got != id {
		t.Fatalf("PutAll id = %q, want %q", got, id)
	}
	if perBackend["a"] != id || perBackend["b"] != id {
		t.Fatalf("per-backend ids = %v", perBackend)
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatal("record must land in every backend")
	}

	if _, _, err := (storage.ReplicatingStore{}).PutAll(rec); err == nil {
		t.Fatal("empty ReplicatingStore must reject PutAll")
	}
}

func TestReplicatingStoreReadFallback(t *testing.T) {
	a := testkit.NewMemStore()
	b := testkit.NewMemStore()
	repl := storage.ReplicatingStore{Backends: []storage.NamedStore{
		{Name: "a", Store: a},
		{Name: "b", Store: b},
	}}

	rec, id := testkit.Record(t, "partial")
	if _, err := b.Put(rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := repl.Get(id); err != nil {
		t.Fatalf("Get must fall back: %v", err)
	}
	if !repl.Has(id) {
		t.Fatal("Has must fall back")
	}
}
