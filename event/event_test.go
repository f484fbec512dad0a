package event

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func testSeed(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

// signedEvent builds and signs a well-formed event for the tests.
func signedEvent(t *testing.T, kind int, tags []Tag, content string) *Event {
	t.Helper()
	key := ed25519.NewKeyFromSeed(testSeed(7))
	ev := &Event{
		PubKey:    hex.EncodeToString(key.Public().(ed25519.PublicKey)),
		CreatedAt: 1700000000,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	ev.ID = ev.ComputeID()
	digest := sha256.Sum256(ev.Serialize())
	ev.Sig = hex.EncodeToString(ed25519.Sign(key, digest[:]))
	return ev
}

func TestParseRoundTrip(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"d", "spec"}, {"status", "published"}}, "hello")
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.ID != ev.ID || got.PubKey != ev.PubKey || got.Content != ev.Content {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, ev)
	}
	if err := (Ed25519Verifier{}).Verify(got); err != nil {
		t.Fatalf("Verify after round trip: %v", err)
	}
}

func TestParseRejections(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"d", "spec"}}, "x")
	good, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	cases := []struct {
		name   string
		data   []byte
		ruleID string
	}{
		{"invalid utf8", []byte{0xff, 0xfe, '{', '}'}, "NCC-STR-001"},
		{"not json", []byte("nope"), "NCC-STR-002"},
		{"unknown field", []byte(`{"id":"x","extra":1}`), "NCC-STR-002"},
		{"trailing data", append(append([]byte{}, good...), []byte(`{"id":"x"}`)...), "NCC-STR-003"},
		{"short id", []byte(strings.Replace(string(good), ev.ID, ev.ID[:10], 1)), "NCC-VAL-101"},
		{"uppercase pubkey", []byte(strings.Replace(string(good), ev.PubKey, strings.ToUpper(ev.PubKey), 1)), "NCC-VAL-102"},
		{"short sig", []byte(strings.Replace(string(good), ev.Sig, ev.Sig[:64], 1)), "NCC-VAL-103"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.data)
			if err == nil {
				t.Fatal("Parse accepted malformed input")
			}
			if got := RuleID(err); got != tc.ruleID {
				t.Fatalf("rule = %q, want %q (err: %v)", got, tc.ruleID, err)
			}
		})
	}
}

func TestParseRejectsNegativeCreatedAt(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"d", "spec"}}, "x")
	ev.CreatedAt = -1
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := Parse(b); RuleID(err) != "NCC-VAL-104" {
		t.Fatalf("want NCC-VAL-104, got %v", err)
	}
}

func TestParseRejectsEmptyTagName(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"", "spec"}}, "x")
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := Parse(b); RuleID(err) != "NCC-VAL-105" {
		t.Fatalf("want NCC-VAL-105, got %v", err)
	}
}

func TestSerializeCanonicalForm(t *testing.T) {
	ev := &Event{
		PubKey:    strings.Repeat("ab", 32),
		CreatedAt: 42,
		Kind:      KindDocument,
		Tags:      []Tag{{"d", "spec"}},
		Content:   "body",
	}
	want := `[0,"` + strings.Repeat("ab", 32) + `",42,30050,[["d","spec"]],"body"]`
	if got := string(ev.Serialize()); got != want {
		t.Fatalf("Serialize = %s, want %s", got, want)
	}
}

func TestSerializeNilTags(t *testing.T) {
	ev := &Event{PubKey: strings.Repeat("00", 32), Kind: KindDocument}
	if !strings.Contains(string(ev.Serialize()), ",[],") {
		t.Fatalf("nil tags must serialize as []: %s", ev.Serialize())
	}
}

func TestComputeIDMatchesSerialization(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"d", "spec"}}, "x")
	sum := sha256.Sum256(ev.Serialize())
	if ev.ComputeID() != hex.EncodeToString(sum[:]) {
		t.Fatal("ComputeID does not hash the canonical serialization")
	}
}

func TestVerifierRejectsTamperedContent(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"d", "spec"}}, "original")
	ev.Content = "tampered"
	err := (Ed25519Verifier{}).Verify(ev)
	if RuleID(err) != "NCC-CRYPTO-201" {
		t.Fatalf("want id mismatch, got %v", err)
	}
}

func TestVerifierRejectsForgedSignature(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"d", "spec"}}, "original")
	other := signedEvent(t, KindDocument, []Tag{{"d", "spec"}}, "different")
	ev.Sig = other.Sig
	err := (Ed25519Verifier{}).Verify(ev)
	if RuleID(err) != "NCC-CRYPTO-401" {
		t.Fatalf("want signature invalid, got %v", err)
	}
}

func TestVerifierFuncAdapter(t *testing.T) {
	called := false
	v := VerifierFunc(func(ev *Event) error {
		called = true
		return nil
	})
	if err := v.Verify(&Event{}); err != nil || !called {
		t.Fatalf("adapter not invoked: %v", err)
	}
}

func TestIsKind(t *testing.T) {
	_, err := Parse([]byte("nope"))
	if !IsKind(err, KindParse) {
		t.Fatalf("want KindParse, got %v", err)
	}
	if IsKind(err, KindCrypto) {
		t.Fatal("wrong kind matched")
	}
}
