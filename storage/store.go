// Package storage defines the record store contract shared by all backends.
package storage

// RecordStore is a minimal immutable store for signed record bytes, keyed
// by the record's content-derived event id (64 lowercase hex chars).
//
// Contract:
// - Put MUST be idempotent and MUST derive the id from the bytes written.
// - Stored records MUST be immutable.
// - Get MUST return ErrNotFound when the id is absent.
type RecordStore interface {
	Put(bytes []byte) (string, error)
	Get(id string) ([]byte, error)
	Has(id string) bool
}

// RecordID returns the content-derived id for raw record bytes.
//
// The bytes must parse as a canonical signed record; the id is the record's
// own id field, which every conforming backend verifies against the
// canonical serialization before storing.
func RecordID(bytes []byte) (string, error) {
	ev, err := parseForID(bytes)
	if err != nil {
		return "", err
	}
	return ev, nil
}

// ValidID reports whether id has the 64-lowercase-hex shape of an event id.
func ValidID(id string) bool {
	if len(id) != 64 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}
