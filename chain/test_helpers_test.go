package chain

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"testing"

	"ncc.pub/ncc/event"
	"ncc.pub/ncc/keys"
)

// ----- test helpers -----

func seedOf(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func pubOf(b byte) string {
	return keys.PublicKeyHexFromSeed(seedOf(b))
}

func signDoc(t *testing.T, seedByte byte, d string, createdAt int64, status, supersedes, content string) []byte {
	t.Helper()
	tags := []event.Tag{{"d", d}}
	if status != "" {
		tags = append(tags, event.Tag{"status", status})
	}
	if supersedes != "" {
		tags = append(tags, event.Tag{"supersedes", "event:" + supersedes})
	}
	ev := &event.Event{
		CreatedAt: createdAt,
		Kind:      event.KindDocument,
		Tags:      tags,
		Content:   content,
	}
	if err := keys.SignEvent(ev, seedOf(seedByte)); err != nil {
		t.Fatalf("SignEvent: %v", err)
	}
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func signSucc(t *testing.T, seedByte byte, d string, createdAt int64, typ, authoritative, from, to string, effectiveAt int64) []byte {
	t.Helper()
	tags := []event.Tag{{"d", d}}
	if typ != "" {
		tags = append(tags, event.Tag{"type", typ})
	}
	if authoritative != "" {
		tags = append(tags, event.Tag{"authoritative", "event:" + authoritative})
	}
	if from != "" {
		tags = append(tags, event.Tag{"from", from})
	}
	if to != "" {
		tags = append(tags, event.Tag{"to", to})
	}
	if effectiveAt > 0 {
		tags = append(tags, event.Tag{"effective_at", fmt.Sprintf("%d", effectiveAt)})
	}
	ev := &event.Event{
		CreatedAt: createdAt,
		Kind:      event.KindSuccession,
		Tags:      tags,
	}
	if err := keys.SignEvent(ev, seedOf(seedByte)); err != nil {
		t.Fatalf("SignEvent: %v", err)
	}
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

// signDocSelfRef forges a published document whose supersedes tag names its
// own id. No honestly signed record can do this (the id would have to be a
// sha256 fixed point), so the event carries a fabricated id and a zero
// signature and only passes ingestion under a nil verifier.
func signDocSelfRef(t *testing.T, seedByte byte, d string, createdAt int64, content string) []byte {
	t.Helper()
	forgedID := fmt.Sprintf("%064x", createdAt)
	ev := &event.Event{
		ID:        forgedID,
		PubKey:    pubOf(seedByte),
		CreatedAt: createdAt,
		Kind:      event.KindDocument,
		Tags: []event.Tag{
			{"d", d},
			{"status", "published"},
			{"supersedes", "event:" + forgedID},
		},
		Content: content,
		Sig:     fmt.Sprintf("%0128x", 0),
	}
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func resultsEqual(t *testing.T, a, b *Result) bool {
	t.Helper()
	ab, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	bb, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return string(ab) == string(bb)
}

func idOf(t *testing.T, raw []byte) string {
	t.Helper()
	ev, err := event.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ev.ID
}

func testVerifier() event.Verifier { return event.Ed25519Verifier{} }

func wantStrings(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v want %v", label, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s: got %v want %v", label, got, want)
		}
	}
}

func countWarnings(warnings []string, class string) int {
	n := 0
	for _, w := range warnings {
		if len(w) >= len(class) && w[:len(class)] == class {
			n++
		}
	}
	return n
}
