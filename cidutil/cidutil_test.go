package cidutil

import (
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

func TestCIDv1RawSHA256(t *testing.T) {
	data := []byte("hello")

	s1 := CIDv1RawSHA256(data)
	s2 := CIDv1RawSHA256(data)
	if s1 != s2 {
		t.Fatalf("not deterministic: %s vs %s", s1, s2)
	}
	if s1 == CIDv1RawSHA256([]byte("world")) {
		t.Fatal("different content must yield different CIDs")
	}

	c, err := cid.Decode(s1)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Version() != 1 || c.Type() != cid.Raw {
		t.Fatalf("unexpected CID shape: version=%d codec=%d", c.Version(), c.Type())
	}

	dec, err := mh.Decode(c.Hash())
	if err != nil {
		t.Fatalf("multihash decode: %v", err)
	}
	if dec.Code != mh.SHA2_256 {
		t.Fatalf("hash code = %d, want sha2-256", dec.Code)
	}
}

func TestCIDv1RawSHA256CIDMatchesString(t *testing.T) {
	data := []byte("payload")
	c, err := CIDv1RawSHA256CID(data)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	if c.String() != CIDv1RawSHA256(data) {
		t.Fatal("string and CID forms must agree")
	}
}
