package event

import "testing"

func TestClassifyDocument(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{
		{"d", "spec"},
		{"title", "Spec"},
		{"status", "draft"},
		{"supersedes", "event:" + mockID("aa")},
	}, "body")

	doc, err := ClassifyDocument(ev)
	if err != nil {
		t.Fatalf("ClassifyDocument: %v", err)
	}
	if doc.D != "spec" || doc.Status != StatusDraft {
		t.Fatalf("classified: %+v", doc)
	}
	if doc.Supersedes != mockID("aa") {
		t.Fatalf("supersedes = %q, want the reference prefix stripped", doc.Supersedes)
	}
}

func TestClassifyDocumentDefaultsToPublished(t *testing.T) {
	ev := signedEvent(t, KindDocument, []Tag{{"d", "spec"}}, "body")
	doc, err := ClassifyDocument(ev)
	if err != nil {
		t.Fatalf("ClassifyDocument: %v", err)
	}
	if doc.Status != StatusPublished {
		t.Fatalf("status = %q, want published default", doc.Status)
	}
	if doc.Supersedes != "" {
		t.Fatalf("supersedes = %q, want empty", doc.Supersedes)
	}
}

func TestClassifyDocumentRejections(t *testing.T) {
	cases := []struct {
		name   string
		ev     *Event
		ruleID string
	}{
		{"nil event", nil, "NCC-CLS-001"},
		{"wrong kind", signedEvent(t, KindSuccession, []Tag{{"d", "spec"}}, ""), "NCC-CLS-002"},
		{"missing d", signedEvent(t, KindDocument, nil, ""), "NCC-CLS-003"},
		{"unknown status", signedEvent(t, KindDocument, []Tag{{"d", "spec"}, {"status", "archived"}}, ""), "NCC-CLS-004"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ClassifyDocument(tc.ev)
			if RuleID(err) != tc.ruleID {
				t.Fatalf("rule = %q, want %q (err: %v)", RuleID(err), tc.ruleID, err)
			}
		})
	}
}

func TestClassifySuccession(t *testing.T) {
	ev := signedEvent(t, KindSuccession, []Tag{
		{"d", "spec"},
		{"type", "revision"},
		{"authoritative", "event:" + mockID("bb")},
		{"from", mockID("cc")},
		{"to", mockID("bb")},
		{"previous", "event:" + mockID("dd")},
		{"effective_at", "1700000500"},
	}, "")

	s, err := ClassifySuccession(ev)
	if err != nil {
		t.Fatalf("ClassifySuccession: %v", err)
	}
	if s.Type != TypeRevision || s.D != "spec" {
		t.Fatalf("classified: %+v", s)
	}
	if s.Authoritative != mockID("bb") || s.Previous != mockID("dd") {
		t.Fatalf("reference prefixes not stripped: %+v", s)
	}
	if s.From != mockID("cc") || s.To != mockID("bb") {
		t.Fatalf("from/to: %+v", s)
	}
	if s.EffectiveAt != 1700000500 {
		t.Fatalf("effectiveAt = %d", s.EffectiveAt)
	}
}

func TestClassifySuccessionUntyped(t *testing.T) {
	ev := signedEvent(t, KindSuccession, []Tag{
		{"d", "spec"},
		{"authoritative", mockID("bb")},
	}, "")
	s, err := ClassifySuccession(ev)
	if err != nil {
		t.Fatalf("ClassifySuccession: %v", err)
	}
	if s.Type != "" {
		t.Fatalf("type = %q, want empty for missing tag", s.Type)
	}
	if s.EffectiveAt != 0 {
		t.Fatalf("effectiveAt = %d, want 0 for missing tag", s.EffectiveAt)
	}
}

func TestClassifySuccessionRejections(t *testing.T) {
	auth := Tag{"authoritative", mockID("bb")}
	cases := []struct {
		name   string
		ev     *Event
		ruleID string
	}{
		{"wrong kind", signedEvent(t, KindDocument, []Tag{{"d", "spec"}, auth}, ""), "NCC-CLS-005"},
		{"missing d", signedEvent(t, KindSuccession, []Tag{auth}, ""), "NCC-CLS-006"},
		{"missing authoritative", signedEvent(t, KindSuccession, []Tag{{"d", "spec"}}, ""), "NCC-CLS-007"},
		{"unknown type", signedEvent(t, KindSuccession, []Tag{{"d", "spec"}, auth, {"type", "merge"}}, ""), "NCC-CLS-008"},
		{"bad effective_at", signedEvent(t, KindSuccession, []Tag{{"d", "spec"}, auth, {"effective_at", "soon"}}, ""), "NCC-CLS-009"},
		{"negative effective_at", signedEvent(t, KindSuccession, []Tag{{"d", "spec"}, auth, {"effective_at", "-5"}}, ""), "NCC-CLS-009"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ClassifySuccession(tc.ev)
			if RuleID(err) != tc.ruleID {
				t.Fatalf("rule = %q, want %q (err: %v)", RuleID(err), tc.ruleID, err)
			}
		})
	}
}

func TestTagHelpers(t *testing.T) {
	tags := []Tag{
		{"d", "spec"},
		{"t", "protocol"},
		{"t", "governance"},
		{"orphan"},
	}
	if got := TagFirst(tags, "d"); got != "spec" {
		t.Fatalf("TagFirst = %q", got)
	}
	if got := TagFirst(tags, "missing"); got != "" {
		t.Fatalf("TagFirst missing = %q", got)
	}
	if got := TagAll(tags, "t"); len(got) != 2 || got[0] != "protocol" || got[1] != "governance" {
		t.Fatalf("TagAll = %v", got)
	}
	if got := StripRef("event:abc"); got != "abc" {
		t.Fatalf("StripRef = %q", got)
	}
	if got := StripRef("abc"); got != "abc" {
		t.Fatalf("StripRef bare = %q", got)
	}
}

// mockID builds a 64-hex id from a repeated byte pattern.
func mockID(pattern string) string {
	id := ""
	for len(id) < 64 {
		id += pattern
	}
	return id[:64]
}
