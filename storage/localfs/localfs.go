// Package localfs stores signed records on the local filesystem, one file
// per record, keyed by event id.
package localfs

import (
	"errors"
	"os"
	"path/filepath"

	"ncc.pub/ncc/storage"
)

// Store is a filesystem-backed record store.
//
// Records are stored immutably and keyed strictly by their content-derived
// id. This implementation is offline and deterministic: it never uses the
// network and never depends on wall-clock time.
type Store struct {
	root string
}

// New constructs a filesystem store rooted at root. The directory will be
// created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Put(bytes []byte) (string, error) {
	id, err := storage.RecordID(bytes)
	if err != nil {
		return "", err
	}

	path := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := s.Get(id)
			if rerr != nil {
				// If the file exists but is unreadable or corrupted, treat as an immutability violation.
				return "", storage.ErrImmutable
			}
			if string(existing) != string(bytes) {
				return "", storage.ErrImmutable
			}
			return id, nil
		}
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(bytes); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}

	return id, nil
}

func (s *Store) Get(id string) ([]byte, error) {
	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}
	path := s.pathFor(id)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	got, err := storage.RecordID(b)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, storage.ErrIDMismatch
	}
	return b, nil
}

func (s *Store) Has(id string) bool {
	if !storage.ValidID(id) {
		return false
	}
	_, err := os.Stat(s.pathFor(id))
	return err == nil
}

func (s *Store) pathFor(id string) string {
	return filepath.Join(s.root, id[:2], id)
}
