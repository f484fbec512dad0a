package storage

import "fmt"

// NamedStore associates a record store with a stable backend name.
//
// This is used for multi-backend orchestration where callers need to retain
// per-backend metadata (e.g., for reporting or auditing).
type NamedStore struct {
	Name  string
	Store RecordStore
}

// ReplicatingStore writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require all
// returned ids to match (otherwise ErrIDMismatch is returned).
//
// Use PutAll when you need the per-backend id mapping.
type ReplicatingStore struct {
	Backends []NamedStore
}

var _ RecordStore = (*ReplicatingStore)(nil)

// PutAll writes the same record bytes to all backends.
//
// It returns:
// - the canonical id (derived from bytes)
// - a map of backend name -> returned id
//
// If any backend returns a different id, ErrIDMismatch is returned.
func (r ReplicatingStore) PutAll(bytes []byte) (string, map[string]string, error) {
	want, err := parseForID(bytes)
	if err != nil {
		return "", nil, err
	}
	if len(r.Backends) == 0 {
		return "", nil, fmt.Errorf("storage: ReplicatingStore has no backends")
	}

	out := make(map[string]string, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return "", nil, fmt.Errorf("storage: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(bytes)
		if err != nil {
			return "", nil, err
		}
		out[b.Name] = got
		if got != want {
			return "", out, ErrIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingStore) Put(bytes []byte) (string, error) {
	id, _, err := r.PutAll(bytes)
	return id, err
}

func (r ReplicatingStore) Get(id string) ([]byte, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingStore) Has(id string) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}
