package keys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"ncc.pub/ncc/event"
)

func testSeed(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestPublicKeyHexFromSeedDeterministic(t *testing.T) {
	a := PublicKeyHexFromSeed(testSeed(1))
	b := PublicKeyHexFromSeed(testSeed(1))
	if a != b {
		t.Fatalf("same seed, different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("pubkey hex length = %d", len(a))
	}
	if a == PublicKeyHexFromSeed(testSeed(2)) {
		t.Fatal("different seeds must yield different keys")
	}
}

func TestDeriveRoleSeed(t *testing.T) {
	root := testSeed(3)

	pub1, err := DeriveRoleSeed(root, "publisher")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	pub2, err := DeriveRoleSeed(root, "publisher")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if !bytes.Equal(pub1, pub2) {
		t.Fatal("derivation must be deterministic")
	}

	arc, err := DeriveRoleSeed(root, "archive")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if bytes.Equal(pub1, arc) {
		t.Fatal("different roles must yield different seeds")
	}
	if bytes.Equal(pub1, root) {
		t.Fatal("derived seed must differ from the root seed")
	}

	if _, err := DeriveRoleSeed(root[:16], "publisher"); err == nil {
		t.Fatal("short root seed must be rejected")
	}
	if _, err := DeriveRoleSeed(root, "bad role!"); err == nil {
		t.Fatal("invalid role must be rejected")
	}
}

func TestSignEventVerifies(t *testing.T) {
	ev := &event.Event{
		CreatedAt: 1700000000,
		Kind:      event.KindDocument,
		Tags:      []event.Tag{{"d", "spec"}, {"status", "published"}},
		Content:   "hello",
	}
	if err := SignEvent(ev, testSeed(4)); err != nil {
		t.Fatalf("SignEvent: %v", err)
	}
	if ev.PubKey != PublicKeyHexFromSeed(testSeed(4)) {
		t.Fatalf("pubkey = %q", ev.PubKey)
	}
	if ev.ID != ev.ComputeID() {
		t.Fatal("id must be the content hash")
	}
	if err := (event.Ed25519Verifier{}).Verify(ev); err != nil {
		t.Fatalf("signed event fails verification: %v", err)
	}
}

func TestSignEventRejectsBadSeed(t *testing.T) {
	ev := &event.Event{Kind: event.KindDocument}
	if err := SignEvent(ev, []byte("short")); err == nil {
		t.Fatal("short seed must be rejected")
	}
	if err := SignEvent(nil, testSeed(1)); err == nil {
		t.Fatal("nil event must be rejected")
	}
}

func TestDilithium3RoundTrip(t *testing.T) {
	pub, priv, err := GenerateDilithium3Keypair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}
	msg := []byte("bundle payload")

	for _, alg := range []string{"sha256", "sha512", "sha3-256"} {
		sig, err := SignDilithium3(msg, alg, priv)
		if err != nil {
			t.Fatalf("SignDilithium3(%s): %v", alg, err)
		}
		ok, err := VerifyDilithium3(msg, alg, sig, pub)
		if err != nil {
			t.Fatalf("VerifyDilithium3(%s): %v", alg, err)
		}
		if !ok {
			t.Fatalf("signature must verify under %s", alg)
		}
		ok, err = VerifyDilithium3([]byte("other payload"), alg, sig, pub)
		if err != nil {
			t.Fatalf("VerifyDilithium3(%s): %v", alg, err)
		}
		if ok {
			t.Fatalf("signature must not verify a different message under %s", alg)
		}
	}

	if _, err := SignDilithium3(msg, "md5", priv); err == nil {
		t.Fatal("unsupported hash must be rejected")
	}
}

func TestKeyStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewKeyStore(dir)
	if err != nil {
		t.Fatalf("NewKeyStore: %v", err)
	}

	rootSeed := testSeed(5)
	rootPub, _, err := ks.InitializeRootKey("alice", rootSeed, false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if rootPub != PublicKeyHexFromSeed(rootSeed) {
		t.Fatalf("root pub = %q", rootPub)
	}

	// Second init without overwrite must fail; with overwrite must succeed.
	if _, _, err := ks.InitializeRootKey("alice", rootSeed, false); err == nil {
		t.Fatal("re-init without overwrite must fail")
	}
	if _, _, err := ks.InitializeRootKey("alice", rootSeed, true); err != nil {
		t.Fatalf("re-init with overwrite: %v", err)
	}

	rolePub, _, err := ks.DeriveKeyFromRole("alice", "publisher", false)
	if err != nil {
		t.Fatalf("DeriveKeyFromRole: %v", err)
	}
	wantSeed, err := DeriveRoleSeed(rootSeed, "publisher")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if rolePub != PublicKeyHexFromSeed(wantSeed) {
		t.Fatalf("role pub = %q, want %q", rolePub, PublicKeyHexFromSeed(wantSeed))
	}

	got, err := ks.ExportKey("alice", "")
	if err != nil || got != rootPub {
		t.Fatalf("ExportKey root = %q, %v", got, err)
	}
	got, err = ks.ExportKey("alice", "publisher")
	if err != nil || got != rolePub {
		t.Fatalf("ExportKey role = %q, %v", got, err)
	}

	seed, err := ks.LoadSeed("", "alice", "publisher", "")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if !bytes.Equal(seed, wantSeed) {
		t.Fatal("LoadSeed returned the wrong seed")
	}
	if _, err := ks.LoadSeed("", "", "", ""); err == nil {
		t.Fatal("LoadSeed with no signer must fail")
	}

	entries, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(entries) != 1 || entries[0].Identifier != "alice" {
		t.Fatalf("entries = %+v", entries)
	}
	if len(entries[0].Roles) != 1 || entries[0].Roles[0] != "publisher" {
		t.Fatalf("roles = %v", entries[0].Roles)
	}
}

func TestCheckKeyNameAndRole(t *testing.T) {
	for _, ok := range []string{"alice", "Alice-2", "role_a"} {
		if err := CheckKeyName(ok); err != nil {
			t.Fatalf("CheckKeyName(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a/b", "a b", "a.b"} {
		if err := CheckKeyName(bad); err == nil {
			t.Fatalf("CheckKeyName(%q) must fail", bad)
		}
	}
}

func TestParseSeedHex(t *testing.T) {
	hexSeed := "0x" + "11" + "22334455667788990011223344556677889900112233445566778899001122"
	seed, err := ParseSeedHex(" " + hexSeed + "\n")
	if err != nil {
		t.Fatalf("ParseSeedHex: %v", err)
	}
	if len(seed) != ed25519.SeedSize {
		t.Fatalf("seed length = %d", len(seed))
	}
	if _, err := ParseSeedHex("abcd"); err == nil {
		t.Fatal("short seed must be rejected")
	}
	if _, err := ParseSeedHex("zz"); err == nil {
		t.Fatal("non-hex seed must be rejected")
	}
}
