package badgerstore

import (
	"errors"
	"testing"

	"ncc.pub/ncc/storage"
	"ncc.pub/ncc/storage/testkit"
)

func TestBadgerStoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.RecordStore {
		t.Helper()
		st, err := OpenInMemory()
		if err != nil {
			t.Fatalf("OpenInMemory failed: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	b, id := testkit.Record(t, "persist")
	if _, err := st.Put(b); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	st2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open (reopen) failed: %v", err)
	}
	defer st2.Close()
	got, err := st2.Get(id)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != string(b) {
		t.Fatal("record bytes changed across reopen")
	}
}

func TestBadgerStoreGetMissing(t *testing.T) {
	st, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer st.Close()

	_, id := testkit.Record(t, "missing")
	if _, err := st.Get(id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get missing: got %v want ErrNotFound", err)
	}
}
