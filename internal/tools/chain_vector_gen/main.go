// chain_vector_gen regenerates chain conformance vectors: a fixed record
// scenario, the records it produces, and the expected validation result.
//
// Vectors are written under chain/testdata/conformance/chain/<name>/ and
// checked by the chain package's conformance test.
package main

import (
	"crypto/ed25519"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ncc.pub/ncc/chain"
	"ncc.pub/ncc/event"
	"ncc.pub/ncc/keys"
)

func main() {
	var (
		outRoot = flag.String("out", filepath.Join("chain", "testdata", "conformance", "chain"), "output root directory")
	)
	flag.Parse()

	for _, sc := range scenarios {
		if err := writeScenario(*outRoot, sc); err != nil {
			fatalf("scenario %s: %v", sc.name, err)
		}
		fmt.Printf("wrote %s\n", filepath.Join(*outRoot, sc.name))
	}
}

type scenario struct {
	name  string
	d     string
	build func() (docs, succs [][]byte, err error)
}

var scenarios = []scenario{
	{
		name: "linear-chain-1",
		d:    "ncc-vector",
		build: func() ([][]byte, [][]byte, error) {
			doc1, err := signDoc(1, "ncc-vector", 100, "published", "", "v1")
			if err != nil {
				return nil, nil, err
			}
			doc2, err := signDoc(1, "ncc-vector", 200, "published", eventID(doc1), "v2")
			if err != nil {
				return nil, nil, err
			}
			return [][]byte{doc1, doc2}, nil, nil
		},
	},
	{
		name: "resolved-fork-1",
		d:    "ncc-vector",
		build: func() ([][]byte, [][]byte, error) {
			doc1, err := signDoc(1, "ncc-vector", 100, "published", "", "v1")
			if err != nil {
				return nil, nil, err
			}
			doc2a, err := signDoc(1, "ncc-vector", 200, "published", eventID(doc1), "v2a")
			if err != nil {
				return nil, nil, err
			}
			doc2b, err := signDoc(1, "ncc-vector", 210, "published", eventID(doc1), "v2b")
			if err != nil {
				return nil, nil, err
			}
			rev, err := signSucc(1, "ncc-vector", 300, "revision", eventID(doc2a), eventID(doc1), eventID(doc2a), 300)
			if err != nil {
				return nil, nil, err
			}
			return [][]byte{doc1, doc2a, doc2b}, [][]byte{rev}, nil
		},
	},
	{
		name: "steward-transfer-1",
		d:    "ncc-vector",
		build: func() ([][]byte, [][]byte, error) {
			doc1, err := signDoc(1, "ncc-vector", 100, "published", "", "v1")
			if err != nil {
				return nil, nil, err
			}
			doc2, err := signDoc(2, "ncc-vector", 300, "published", eventID(doc1), "v2")
			if err != nil {
				return nil, nil, err
			}
			transfer, err := signSucc(1, "ncc-vector", 200, "succession", eventID(doc2), "", "", 0)
			if err != nil {
				return nil, nil, err
			}
			return [][]byte{doc1, doc2}, [][]byte{transfer}, nil
		},
	},
}

func writeScenario(outRoot string, sc scenario) error {
	docs, succs, err := sc.build()
	if err != nil {
		return err
	}

	res := chain.Validate(docs, succs, sc.d, event.Ed25519Verifier{})
	resBytes, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Join(outRoot, sc.name)
	if err := os.MkdirAll(filepath.Join(dir, "docs"), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, "succs"), 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, "d.txt"), []byte(sc.d+"\n"), 0o644); err != nil {
		return err
	}
	for i, b := range docs {
		name := "doc_" + strconv.Itoa(i+1) + ".json"
		if err := os.WriteFile(filepath.Join(dir, "docs", name), b, 0o644); err != nil {
			return err
		}
	}
	for i, b := range succs {
		name := "succ_" + strconv.Itoa(i+1) + ".json"
		if err := os.WriteFile(filepath.Join(dir, "succs", name), b, 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(dir, "result.json"), append(resBytes, '\n'), 0o644)
}

func signDoc(seedByte byte, d string, createdAt int64, status, supersedes, content string) ([]byte, error) {
	tags := []event.Tag{{"d", d}, {"status", status}}
	if supersedes != "" {
		tags = append(tags, event.Tag{"supersedes", "event:" + supersedes})
	}
	ev := &event.Event{CreatedAt: createdAt, Kind: event.KindDocument, Tags: tags, Content: content}
	if err := keys.SignEvent(ev, seedOf(seedByte)); err != nil {
		return nil, err
	}
	return ev.Marshal()
}

func signSucc(seedByte byte, d string, createdAt int64, typ, authoritative, from, to string, effectiveAt int64) ([]byte, error) {
	tags := []event.Tag{{"d", d}}
	if typ != "" {
		tags = append(tags, event.Tag{"type", typ})
	}
	tags = append(tags, event.Tag{"authoritative", "event:" + authoritative})
	if from != "" {
		tags = append(tags, event.Tag{"from", from})
	}
	if to != "" {
		tags = append(tags, event.Tag{"to", to})
	}
	if effectiveAt > 0 {
		tags = append(tags, event.Tag{"effective_at", strconv.FormatInt(effectiveAt, 10)})
	}
	ev := &event.Event{CreatedAt: createdAt, Kind: event.KindSuccession, Tags: tags}
	if err := keys.SignEvent(ev, seedOf(seedByte)); err != nil {
		return nil, err
	}
	return ev.Marshal()
}

func seedOf(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func eventID(raw []byte) string {
	ev, err := event.Parse(raw)
	if err != nil {
		fatalf("parse generated record: %v", err)
	}
	return ev.ID
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
