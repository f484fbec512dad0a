// Package badgerstore stores signed records in an embedded BadgerDB
// key-value database, keyed by event id.
package badgerstore

import (
	"bytes"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"ncc.pub/ncc/storage"
)

// Store is a BadgerDB-backed record store.
//
// Records are immutable once written. A Put of different bytes under an
// existing id returns ErrImmutable.
type Store struct {
	db    *badger.DB
	owned bool
}

var _ storage.RecordStore = (*Store)(nil)

// keyPrefix namespaces record keys so a Store can share a DB with other
// components (publish queue, drafts).
var keyPrefix = []byte("record/")

// Open opens (or creates) a persistent store at dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("badgerstore: directory is required")
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, owned: true}, nil
}

// OpenInMemory opens an in-memory store. Data is lost on Close.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, owned: true}, nil
}

// Wrap adapts an already-open DB. Close is then the caller's responsibility.
func Wrap(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database if this store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Put(b []byte) (string, error) {
	id, err := storage.RecordID(b)
	if err != nil {
		return "", err
	}
	key := append(keyPrefix, id...)
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			return item.Value(func(existing []byte) error {
				if !bytes.Equal(existing, b) {
					return storage.ErrImmutable
				}
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, b)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(id string) ([]byte, error) {
	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(append(keyPrefix, id...))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Has(id string) bool {
	if !storage.ValidID(id) {
		return false
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(append(keyPrefix, id...))
		return err
	})
	return err == nil
}
