package model

import (
	"crypto/ed25519"
	"errors"
	"testing"

	"ncc.pub/ncc/event"
	"ncc.pub/ncc/keys"
	"ncc.pub/ncc/storage"
	"ncc.pub/ncc/storage/testkit"
)

func signedDoc(t *testing.T, seedByte byte, d string, createdAt int64, supersedes, content string) []byte {
	t.Helper()
	tags := []event.Tag{{"d", d}, {"status", "published"}}
	if supersedes != "" {
		tags = append(tags, event.Tag{"supersedes", "event:" + supersedes})
	}
	ev := &event.Event{
		CreatedAt: createdAt,
		Kind:      event.KindDocument,
		Tags:      tags,
		Content:   content,
	}
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	if err := keys.SignEvent(ev, seed); err != nil {
		t.Fatalf("SignEvent: %v", err)
	}
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func eventID(t *testing.T, raw []byte) string {
	t.Helper()
	ev, err := event.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ev.ID
}

func wantCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var ce *CodedError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want a coded error with %s", err, code)
	}
	if ce.Code != code {
		t.Fatalf("code = %s, want %s (err: %v)", ce.Code, code, err)
	}
}

func TestValidateResultByBytes(t *testing.T) {
	doc1 := signedDoc(t, 1, "spec", 100, "", "v1")
	doc2 := signedDoc(t, 1, "spec", 200, eventID(t, doc1), "v2")

	resp, err := ValidateResult(ValidateRequest{
		D:          "spec",
		Documents:  []RecordRef{{Bytes: doc1}, {Bytes: doc2}},
		Compliance: CompliancePermissive,
	}, ValidateOptions{})
	if err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
	if resp.Result.AuthoritativeDocumentID != eventID(t, doc2) {
		t.Fatalf("authoritative = %q", resp.Result.AuthoritativeDocumentID)
	}
	if resp.Result.Tips == nil || resp.Result.Warnings == nil {
		t.Fatal("projected slices must not be nil")
	}
}

func TestValidateResultHydratesByID(t *testing.T) {
	st := testkit.NewMemStore()
	doc1 := signedDoc(t, 1, "spec", 100, "", "v1")
	id, err := st.Put(doc1)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	resp, err := ValidateResult(ValidateRequest{
		D:          "spec",
		Documents:  []RecordRef{{ID: id}},
		Compliance: CompliancePermissive,
	}, ValidateOptions{Store: st})
	if err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
	if resp.Result.AuthoritativeDocumentID != id {
		t.Fatalf("authoritative = %q, want %q", resp.Result.AuthoritativeDocumentID, id)
	}
}

func TestValidateResultAdapterFallback(t *testing.T) {
	secondary := testkit.NewMemStore()
	doc1 := signedDoc(t, 1, "spec", 100, "", "v1")
	id, err := secondary.Put(doc1)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	resp, err := ValidateResult(ValidateRequest{
		D:          "spec",
		Documents:  []RecordRef{{ID: id}},
		Compliance: CompliancePermissive,
	}, ValidateOptions{
		Store:         testkit.NewMemStore(),
		StoreAdapters: []storage.RecordStore{secondary},
	})
	if err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
	if resp.Result.AuthoritativeDocumentID != id {
		t.Fatalf("authoritative = %q, want %q", resp.Result.AuthoritativeDocumentID, id)
	}
}

func TestValidateResultRequestErrors(t *testing.T) {
	doc1 := signedDoc(t, 1, "spec", 100, "", "v1")
	id := eventID(t, doc1)

	cases := []struct {
		name string
		req  ValidateRequest
		opts ValidateOptions
		code ErrorCode
	}{
		{
			"missing d",
			ValidateRequest{Compliance: CompliancePermissive},
			ValidateOptions{},
			ErrInvalidRequest,
		},
		{
			"missing compliance",
			ValidateRequest{D: "spec"},
			ValidateOptions{},
			ErrInvalidRequest,
		},
		{
			"invalid compliance",
			ValidateRequest{D: "spec", Compliance: "lenient"},
			ValidateOptions{},
			ErrInvalidRequest,
		},
		{
			"ref with bytes and id",
			ValidateRequest{D: "spec", Compliance: CompliancePermissive,
				Documents: []RecordRef{{ID: id, Bytes: doc1}}},
			ValidateOptions{},
			ErrInvalidRequest,
		},
		{
			"empty ref",
			ValidateRequest{D: "spec", Compliance: CompliancePermissive,
				Documents: []RecordRef{{}}},
			ValidateOptions{},
			ErrInvalidRequest,
		},
		{
			"malformed id",
			ValidateRequest{D: "spec", Compliance: CompliancePermissive,
				Documents: []RecordRef{{ID: "nope"}}},
			ValidateOptions{},
			ErrInvalidID,
		},
		{
			"id without store",
			ValidateRequest{D: "spec", Compliance: CompliancePermissive,
				Documents: []RecordRef{{ID: id}}},
			ValidateOptions{},
			ErrMissingStore,
		},
		{
			"id not found",
			ValidateRequest{D: "spec", Compliance: CompliancePermissive,
				Documents: []RecordRef{{ID: id}}},
			ValidateOptions{Store: testkit.NewMemStore()},
			ErrNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateResult(tc.req, tc.opts)
			wantCode(t, err, tc.code)
		})
	}
}

func TestValidateResultStrictRejection(t *testing.T) {
	doc1 := signedDoc(t, 1, "spec", 100, "", "v1")
	doc2a := signedDoc(t, 1, "spec", 200, eventID(t, doc1), "v2a")
	doc2b := signedDoc(t, 1, "spec", 210, eventID(t, doc1), "v2b")

	req := ValidateRequest{
		D:          "spec",
		Documents:  []RecordRef{{Bytes: doc1}, {Bytes: doc2a}, {Bytes: doc2b}},
		Compliance: ComplianceStrict,
	}
	_, err := ValidateResult(req, ValidateOptions{})
	wantCode(t, err, ErrStrictRejected)

	// The same fork resolves fine under permissive mode.
	req.Compliance = CompliancePermissive
	resp, err := ValidateResult(req, ValidateOptions{})
	if err != nil {
		t.Fatalf("permissive run: %v", err)
	}
	if len(resp.Result.Tips) != 2 {
		t.Fatalf("tips = %v", resp.Result.Tips)
	}
}

func TestValidateResultMaxRecords(t *testing.T) {
	doc1 := signedDoc(t, 1, "spec", 100, "", "v1")
	doc2 := signedDoc(t, 1, "spec", 200, eventID(t, doc1), "v2")

	resp, err := ValidateResult(ValidateRequest{
		D:          "spec",
		Documents:  []RecordRef{{Bytes: doc1}, {Bytes: doc2}},
		Compliance: CompliancePermissive,
		MaxRecords: 1,
	}, ValidateOptions{})
	if err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
	if resp.Result.AuthoritativeDocumentID != "" {
		t.Fatal("bounded request must not resolve")
	}
}
