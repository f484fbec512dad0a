// Package drafts stores local working copies of documents and succession
// records before they are signed and published.
//
// Drafts are local-first state in BadgerDB: they carry no signature and no
// event id until published, at which point the publish outcome is recorded
// on the draft.
package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Draft statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

var (
	ErrNotFound = errors.New("drafts: not found")

	draftPrefix = []byte("draft/")
	seqKey      = []byte("draft-seq")
)

// TagPair is one tag to attach to the published record.
type TagPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Draft is one local working copy.
type Draft struct {
	ID          uint64    `json:"id"`
	Kind        int       `json:"kind"`
	D           string    `json:"d"`
	Title       string    `json:"title,omitempty"`
	Content     string    `json:"content"`
	Tags        []TagPair `json:"tags,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   int64     `json:"createdAt"`
	UpdatedAt   int64     `json:"updatedAt"`
	PublishedAt int64     `json:"publishedAt,omitempty"`

	// EventID is set once the draft has been published.
	EventID string `json:"eventId,omitempty"`
}

// Store is a BadgerDB-backed draft store.
type Store struct {
	db    *badger.DB
	owned bool

	mu  sync.Mutex
	now func() int64
}

// Open opens (or creates) a persistent draft store at dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("drafts: directory is required")
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	s := Wrap(db)
	s.owned = true
	return s, nil
}

// OpenInMemory opens an in-memory draft store. Data is lost on Close.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	s := Wrap(db)
	s.owned = true
	return s, nil
}

// Wrap adapts an already-open DB. Close is then the caller's responsibility.
func Wrap(db *badger.DB) *Store {
	return &Store{db: db, now: func() int64 { return time.Now().Unix() }}
}

// Close closes the underlying database if this store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Create inserts a new draft and returns it with its assigned id.
func (s *Store) Create(kind int, d, title, content string, tags []TagPair) (Draft, error) {
	if d == "" {
		return Draft{}, errors.New("drafts: d is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dr := Draft{
		Kind:      kind,
		D:         d,
		Title:     title,
		Content:   content,
		Tags:      tags,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := nextSeq(txn)
		if err != nil {
			return err
		}
		dr.ID = id
		return putDraft(txn, dr)
	})
	if err != nil {
		return Draft{}, err
	}
	return dr, nil
}

// Update overwrites a draft's title, content, and tags.
func (s *Store) Update(id uint64, title, content string, tags []TagPair) (Draft, error) {
	return s.mutate(id, func(dr *Draft) {
		dr.Title = title
		dr.Content = content
		dr.Tags = tags
	})
}

// MarkPublished records the publish outcome on a draft.
func (s *Store) MarkPublished(id uint64, eventID string) (Draft, error) {
	return s.mutate(id, func(dr *Draft) {
		dr.Status = StatusPublished
		dr.EventID = eventID
		dr.PublishedAt = s.now()
	})
}

func (s *Store) mutate(id uint64, fn func(*Draft)) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dr Draft
	err := s.db.Update(func(txn *badger.Txn) error {
		got, err := getDraft(txn, id)
		if err != nil {
			return err
		}
		dr = got
		fn(&dr)
		dr.UpdatedAt = s.now()
		return putDraft(txn, dr)
	})
	if err != nil {
		return Draft{}, err
	}
	return dr, nil
}

// Get returns the draft with the given id.
func (s *Store) Get(id uint64) (Draft, error) {
	var dr Draft
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := getDraft(txn, id)
		if err != nil {
			return err
		}
		dr = got
		return nil
	})
	if err != nil {
		return Draft{}, err
	}
	return dr, nil
}

// Delete removes a draft.
func (s *Store) Delete(id uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := draftKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// List returns all drafts of the given kind, most recently updated first.
func (s *Store) List(kind int) ([]Draft, error) {
	all, err := s.scan(func(dr Draft) bool { return dr.Kind == kind })
	if err != nil {
		return nil, err
	}
	sortByUpdated(all)
	return all, nil
}

// LatestByD returns the most recently updated draft for (kind, d).
func (s *Store) LatestByD(kind int, d string) (Draft, error) {
	matches, err := s.scan(func(dr Draft) bool { return dr.Kind == kind && dr.D == d })
	if err != nil {
		return Draft{}, err
	}
	if len(matches) == 0 {
		return Draft{}, ErrNotFound
	}
	sortByUpdated(matches)
	return matches[0], nil
}

func (s *Store) scan(keep func(Draft) bool) ([]Draft, error) {
	var out []Draft
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = draftPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(draftPrefix); it.ValidForPrefix(draftPrefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var dr Draft
				if err := json.Unmarshal(v, &dr); err != nil {
					return err
				}
				if keep(dr) {
					out = append(out, dr)
				}
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

func sortByUpdated(ds []Draft) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].UpdatedAt != ds[j].UpdatedAt {
			return ds[i].UpdatedAt > ds[j].UpdatedAt
		}
		return ds[i].ID > ds[j].ID
	})
}

func draftKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", draftPrefix, id))
}

func putDraft(txn *badger.Txn, dr Draft) error {
	b, err := json.Marshal(dr)
	if err != nil {
		return err
	}
	return txn.Set(draftKey(dr.ID), b)
}

func getDraft(txn *badger.Txn, id uint64) (Draft, error) {
	item, err := txn.Get(draftKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, err
	}
	var dr Draft
	err = item.Value(func(v []byte) error { return json.Unmarshal(v, &dr) })
	return dr, err
}

func nextSeq(txn *badger.Txn) (uint64, error) {
	var next uint64 = 1
	item, err := txn.Get(seqKey)
	if err == nil {
		err = item.Value(func(v []byte) error {
			var cur uint64
			if err := json.Unmarshal(v, &cur); err != nil {
				return err
			}
			next = cur + 1
			return nil
		})
		if err != nil {
			return 0, err
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return 0, err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return 0, err
	}
	if err := txn.Set(seqKey, b); err != nil {
		return 0, err
	}
	return next, nil
}
