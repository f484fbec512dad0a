package bundle_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"ncc.pub/ncc/keys"
	"ncc.pub/ncc/storage/bundle"
	"ncc.pub/ncc/storage/testkit"
)

func exportedBundle(t *testing.T) []byte {
	t.Helper()
	st := testkit.NewMemStore()
	b, id := testkit.Record(t, "attested")
	if _, err := st.Put(b); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := bundle.Export(&buf, st, []string{id}, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func attestKeypair(t *testing.T) (*mode3.PublicKey, *mode3.PrivateKey) {
	t.Helper()
	seed := make([]byte, mode3.SeedSize)
	for i := range seed {
		seed[i] = 0x5a
	}
	pub, priv, err := keys.Dilithium3KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("Dilithium3KeypairFromSeed: %v", err)
	}
	return pub, priv
}

func TestAttestationRoundTrip(t *testing.T) {
	bundleBytes := exportedBundle(t)
	_, priv := attestKeypair(t)

	att, err := bundle.Attest(bundleBytes, "sha3-256", priv, 1700000000)
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}
	if att.SigAlg != bundle.SigAlgDilithium3 {
		t.Fatalf("SigAlg = %q", att.SigAlg)
	}
	if err := att.Verify(bundleBytes); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	encoded, err := att.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := bundle.ParseAttestation(encoded)
	if err != nil {
		t.Fatalf("ParseAttestation: %v", err)
	}
	if err := decoded.Verify(bundleBytes); err != nil {
		t.Fatalf("Verify after round trip: %v", err)
	}
}

func TestAttestationRejectsTamperedBundle(t *testing.T) {
	bundleBytes := exportedBundle(t)
	_, priv := attestKeypair(t)

	att, err := bundle.Attest(bundleBytes, "sha3-256", priv, 0)
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}

	tampered := append([]byte(nil), bundleBytes...)
	tampered[len(tampered)/2] ^= 0x01
	if err := att.Verify(tampered); err == nil {
		t.Fatal("tampered bundle must fail verification")
	}
}

func TestAttestationRejectsTamperedSignature(t *testing.T) {
	bundleBytes := exportedBundle(t)
	_, priv := attestKeypair(t)

	att, err := bundle.Attest(bundleBytes, "sha256", priv, 0)
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}

	sig, err := base64.StdEncoding.DecodeString(att.Signature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sig[0] ^= 0x01
	att.Signature = base64.StdEncoding.EncodeToString(sig)
	if err := att.Verify(bundleBytes); err == nil {
		t.Fatal("tampered signature must fail verification")
	}
}

func TestAttestationRejectsWrongKey(t *testing.T) {
	bundleBytes := exportedBundle(t)
	_, priv := attestKeypair(t)

	att, err := bundle.Attest(bundleBytes, "sha3-256", priv, 0)
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}

	otherSeed := make([]byte, mode3.SeedSize)
	for i := range otherSeed {
		otherSeed[i] = 0x77
	}
	otherPub, _, err := keys.Dilithium3KeypairFromSeed(otherSeed)
	if err != nil {
		t.Fatalf("Dilithium3KeypairFromSeed: %v", err)
	}
	otherBytes, err := otherPub.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	att.PublicKey = base64.StdEncoding.EncodeToString(otherBytes)
	if err := att.Verify(bundleBytes); err == nil {
		t.Fatal("attestation under a different key must fail verification")
	}
}

func TestAttestationRejectsUnsupportedHash(t *testing.T) {
	bundleBytes := exportedBundle(t)
	_, priv := attestKeypair(t)

	if _, err := bundle.Attest(bundleBytes, "md5", priv, 0); err == nil {
		t.Fatal("unsupported hash must be rejected")
	}
	if _, err := bundle.Attest(nil, "sha3-256", priv, 0); err == nil {
		t.Fatal("empty bundle must be rejected")
	}
}

func TestParseAttestationRejectsUnknownFields(t *testing.T) {
	if _, err := bundle.ParseAttestation([]byte(`{"subjectDigest":"ab","extra":1}`)); err == nil {
		t.Fatal("unknown attestation fields must be rejected")
	}
}
