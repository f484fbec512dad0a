package chain

import (
	"encoding/json"
	"math/rand"
	"testing"
)

// A deliberately messy record set: a resolved fork, a steward transfer, an
// unauthorized publisher, duplicates, and records that fail parsing or
// signature checks. Whatever order these arrive in, the encoded result must
// not change by a byte.
func TestValidateDeterministicUnderPermutation(t *testing.T) {
	doc1 := signDoc(t, 1, "spec", 100, "published", "", "v1")
	doc2a := signDoc(t, 1, "spec", 200, "published", idOf(t, doc1), "v2a")
	doc2b := signDoc(t, 1, "spec", 210, "published", idOf(t, doc1), "v2b")
	doc3 := signDoc(t, 2, "spec", 400, "published", idOf(t, doc2a), "v3")
	intruder := signDoc(t, 3, "spec", 250, "published", idOf(t, doc1), "hijack")
	elsewhere := signDoc(t, 1, "other", 150, "published", "", "different identifier")

	transfer := signSucc(t, 1, "spec", 300, "succession", idOf(t, doc3), "", "", 0)
	rev := signSucc(t, 1, "spec", 260, "revision", idOf(t, doc2a), idOf(t, doc1), idOf(t, doc2a), 260)

	docs := [][]byte{
		doc1, doc2a, doc2b, doc3, intruder, elsewhere,
		doc2a, // duplicate
		[]byte("not json at all"),
	}
	succs := [][]byte{transfer, rev, transfer}

	golden := encode(t, Validate(docs, succs, "spec", testVerifier()))

	rng := rand.New(rand.NewSource(1))
	for run := 0; run < 25; run++ {
		pd := permute(rng, docs)
		ps := permute(rng, succs)
		got := encode(t, Validate(pd, ps, "spec", testVerifier()))
		if got != golden {
			t.Fatalf("run %d diverged:\n got: %s\nwant: %s", run, got, golden)
		}
	}
}

func TestValidateRepeatedRunsIdentical(t *testing.T) {
	doc1 := signDoc(t, 1, "spec", 100, "published", "", "v1")
	doc2 := signDoc(t, 1, "spec", 200, "published", idOf(t, doc1), "v2")
	docs := [][]byte{doc1, doc2}

	first := encode(t, Validate(docs, nil, "spec", testVerifier()))
	for i := 0; i < 5; i++ {
		if got := encode(t, Validate(docs, nil, "spec", testVerifier())); got != first {
			t.Fatalf("run %d diverged:\n got: %s\nwant: %s", i, got, first)
		}
	}
}

func encode(t *testing.T, res *Result) string {
	t.Helper()
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return string(b)
}

func permute(rng *rand.Rand, in [][]byte) [][]byte {
	out := append([][]byte(nil), in...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
