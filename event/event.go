// Package event implements parsing, canonical serialization, and signature
// verification for NCC signed records (documents and succession records).
package event

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"unicode/utf8"
)

// Record kinds used by the NCC protocol.
const (
	KindDocument   = 30050
	KindSuccession = 30051
)

// Tag is an ordered list of strings; the first element is the tag name.
type Tag []string

// Event is a signed record as transported by relays.
//
// ID is the lowercase hex sha256 of the canonical serialization.
// PubKey is a 64-hex Ed25519 public key; Sig is a 128-hex Ed25519
// signature over sha256(canonical serialization).
type Event struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// Parse decodes a JSON event and enforces the v1 structural rules.
//
// Parse checks shape only (field presence, hex widths, lowercase hex).
// Content-hash and signature checks are the Verifier's job.
func Parse(data []byte) (*Event, error) {
	if !utf8.Valid(data) {
		return nil, newError(KindParse, "NCC-STR-001", "event must be valid UTF-8")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var ev Event
	if err := dec.Decode(&ev); err != nil {
		return nil, wrapError(KindParse, "NCC-STR-002", "invalid event JSON", err)
	}
	if dec.More() {
		return nil, newError(KindParse, "NCC-STR-003", "trailing data after event")
	}
	if err := ev.checkShape(); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (e *Event) checkShape() error {
	if !isHex(e.ID, 64) {
		return newError(KindValidation, "NCC-VAL-101", "id must be 64 lowercase hex chars")
	}
	if !isHex(e.PubKey, 64) {
		return newError(KindValidation, "NCC-VAL-102", "pubkey must be 64 lowercase hex chars")
	}
	if !isHex(e.Sig, 128) {
		return newError(KindValidation, "NCC-VAL-103", "sig must be 128 lowercase hex chars")
	}
	if e.CreatedAt < 0 {
		return newError(KindValidation, "NCC-VAL-104", "created_at must not be negative")
	}
	for _, t := range e.Tags {
		if len(t) == 0 || t[0] == "" {
			return newError(KindValidation, "NCC-VAL-105", "tags must carry a non-empty name")
		}
	}
	return nil
}

// Serialize returns the canonical byte serialization covered by ID and Sig:
// the JSON array [0, pubkey, created_at, kind, tags, content] with no
// insignificant whitespace.
func (e *Event) Serialize() []byte {
	tags := e.Tags
	if tags == nil {
		tags = []Tag{}
	}
	b, err := json.Marshal([]interface{}{0, e.PubKey, e.CreatedAt, e.Kind, tags, e.Content})
	if err != nil {
		// Marshal of strings, ints, and string slices cannot fail.
		return nil
	}
	return b
}

// ComputeID returns the content-derived id for the event: lowercase hex
// sha256 of the canonical serialization.
func (e *Event) ComputeID() string {
	sum := sha256.Sum256(e.Serialize())
	return hex.EncodeToString(sum[:])
}

// Marshal renders the event as compact JSON.
func (e *Event) Marshal() ([]byte, error) {
	if e.Tags == nil {
		cp := *e
		cp.Tags = []Tag{}
		return json.Marshal(&cp)
	}
	return json.Marshal(e)
}

func isHex(s string, width int) bool {
	if len(s) != width {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}
