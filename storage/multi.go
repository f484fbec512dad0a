package storage

import "errors"

// MultiStore provides deterministic, ordered fallback across multiple record
// stores.
//
// Hydration order is the slice order in Adapters; callers MUST supply a fixed
// order. This avoids map-iteration nondeterminism and makes the retrieval
// strategy explicit.
//
// Put is defined to write only to the first adapter.
type MultiStore struct {
	Adapters []RecordStore
}

func (m MultiStore) Put(bytes []byte) (string, error) {
	if len(m.Adapters) == 0 {
		return "", errors.New("storage: MultiStore has no adapters")
	}
	return m.Adapters[0].Put(bytes)
}

func (m MultiStore) Get(id string) ([]byte, error) {
	for _, st := range m.Adapters {
		b, err := st.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m MultiStore) Has(id string) bool {
	for _, st := range m.Adapters {
		if st.Has(id) {
			return true
		}
	}
	return false
}
