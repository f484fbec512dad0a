package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ncc.pub/ncc/chain"
	"ncc.pub/ncc/event"
	"ncc.pub/ncc/keys"
	"ncc.pub/ncc/model"
	"ncc.pub/ncc/storage/bundle"
	"ncc.pub/ncc/storage/storeregistry"

	_ "ncc.pub/ncc/storage/badgerstore"
	_ "ncc.pub/ncc/storage/grpcstore"
	_ "ncc.pub/ncc/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "id":
		return cmdID(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "validate":
		return cmdValidate(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "draft":
		return cmdDraft(args[1:], out, errOut)
	case "queue":
		return cmdQueue(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ncc: versioned-document chain tooling")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ncc id <file>")
	fmt.Fprintln(w, "  ncc verify <file>")
	fmt.Fprintln(w, "  ncc key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  ncc key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  ncc key list")
	fmt.Fprintln(w, "  ncc key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  ncc sign document --d <d> --content-file <file> [--title <t>] [--status <s>] [--supersedes <id>] [--created-at <unix>] <signer>")
	fmt.Fprintln(w, "  ncc sign succession --d <d> --type succession|revision --authoritative <id> [--from <pub>] [--to <pub>] [--previous <id>] [--effective-at <unix>] [--created-at <unix>] <signer>")
	fmt.Fprintln(w, "  ncc validate --d <d> [--doc <file> ...] [--succ <file> ...] [--mode permissive|strict] [--max-records <n>]")
	fmt.Fprintln(w, "  ncc store --backend <name> put|get|has ...")
	fmt.Fprintln(w, "  ncc bundle export --backend <name> [--index] [--label name=id ...] [--attest-seed-hex <64hex>] --out <file> <id> ...")
	fmt.Fprintln(w, "  ncc bundle import --backend <name> [--ignore-unknown] <file>")
	fmt.Fprintln(w, "  ncc bundle verify --attestation <file> <bundle>")
	fmt.Fprintln(w, "  ncc draft create|list|show|update|delete|publish ... (see 'ncc draft help')")
	fmt.Fprintln(w, "  ncc queue add|list|run ... (see 'ncc queue help')")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Signer flags: --seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - keys are stored under ~/.ncc/keys/<name> (0600 seed files)")
	fmt.Fprintln(w, "  - sign writes the signed record JSON to stdout")
	fmt.Fprintln(w, "  - validate prints the resolution result JSON to stdout")
}

func cmdID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: ncc id <file>")
		return 2
	}
	path := fs.Arg(0)
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return 1
	}
	ev, err := event.Parse(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid record: %v\n", err)
		return 1
	}
	if got := ev.ComputeID(); got != ev.ID {
		fmt.Fprintf(errOut, "warning: declared id %s does not match content hash\n", ev.ID)
		_, _ = fmt.Fprintln(out, got)
		return 1
	}
	_, _ = fmt.Fprintln(out, ev.ID)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: ncc verify <file>")
		return 2
	}
	path := fs.Arg(0)
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return 1
	}
	ev, err := event.Parse(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid record: %v\n", err)
		return 1
	}
	if err := (event.Ed25519Verifier{}).Verify(ev); err != nil {
		fmt.Fprintf(errOut, "verification failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "OK %s (signed by %s)\n", ev.ID, ev.PubKey)
	return 0
}

// signerFlags is the shared signer selection used by the sign subcommands.
type signerFlags struct {
	seedHex    string
	signerName string
	signerRole string
	keyFile    string
}

func (s *signerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&s.signerName, "signer", "", "Use a stored key by name (from 'ncc key init')")
	fs.StringVar(&s.signerRole, "signer-role", "", "When using --signer, optionally use a derived role key")
	fs.StringVar(&s.keyFile, "key-file", "", "Path to a seed file (hex) created by 'ncc key init/derive'")
}

func (s *signerFlags) load(errOut io.Writer) ([]byte, int) {
	if s.seedHex == "" && s.signerName == "" && s.keyFile == "" {
		fmt.Fprintln(errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return nil, 2
	}
	if s.seedHex != "" && (s.signerName != "" || s.keyFile != "") {
		fmt.Fprintln(errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return nil, 2
	}
	if s.signerName != "" && s.keyFile != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return nil, 2
	}
	ks, err := keys.NewKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, 1
	}
	seed, err := ks.LoadSeed(s.seedHex, s.signerName, s.signerRole, s.keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return nil, 2
	}
	return seed, 0
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: ncc sign <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: document, succession")
		return 2
	}
	switch args[0] {
	case "document":
		return cmdSignDocument(args[1:], out, errOut)
	case "succession":
		return cmdSignSuccession(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown sign subcommand: %s\n", args[0])
		return 2
	}
}

func cmdSignDocument(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign document", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var d string
	var contentFile string
	var title string
	var status string
	var supersedes string
	var createdAt int64
	var signer signerFlags

	fs.StringVar(&d, "d", "", "Document identifier")
	fs.StringVar(&contentFile, "content-file", "", "File holding the document content")
	fs.StringVar(&title, "title", "", "Document title tag")
	fs.StringVar(&status, "status", "", "Status tag: draft, published, or withdrawn (omit for published)")
	fs.StringVar(&supersedes, "supersedes", "", "Event id of the revision this one supersedes")
	fs.Int64Var(&createdAt, "created-at", 0, "Unix timestamp (defaults to now)")
	signer.register(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if d == "" {
		fmt.Fprintln(errOut, "missing --d")
		return 2
	}
	if contentFile == "" {
		fmt.Fprintln(errOut, "missing --content-file")
		return 2
	}
	switch status {
	case "", "draft", "published", "withdrawn":
	default:
		fmt.Fprintln(errOut, "invalid --status (expected draft, published, or withdrawn)")
		return 2
	}

	content, err := os.ReadFile(contentFile)
	if err != nil {
		fmt.Fprintf(errOut, "read content: %v\n", err)
		return 1
	}
	seed, code := signer.load(errOut)
	if code != 0 {
		return code
	}
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	tags := []event.Tag{{"d", d}}
	if title != "" {
		tags = append(tags, event.Tag{"title", title})
	}
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
		Content:   string(content),
	}
	return emitSigned(ev, seed, out, errOut)
}

func cmdSignSuccession(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign succession", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var d string
	var typ string
	var authoritative string
	var from string
	var to string
	var previous string
	var effectiveAt int64
	var createdAt int64
	var signer signerFlags

	fs.StringVar(&d, "d", "", "Document identifier")
	fs.StringVar(&typ, "type", "", "Record type: succession or revision")
	fs.StringVar(&authoritative, "authoritative", "", "Event id the record declares authoritative")
	fs.StringVar(&from, "from", "", "Transferring steward pubkey (succession)")
	fs.StringVar(&to, "to", "", "Receiving steward pubkey (succession)")
	fs.StringVar(&previous, "previous", "", "Event id of the prior authoritative revision (revision)")
	fs.Int64Var(&effectiveAt, "effective-at", 0, "Unix timestamp the election takes effect")
	fs.Int64Var(&createdAt, "created-at", 0, "Unix timestamp (defaults to now)")
	signer.register(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if d == "" {
		fmt.Fprintln(errOut, "missing --d")
		return 2
	}
	if typ != string(event.TypeSuccession) && typ != string(event.TypeRevision) {
		fmt.Fprintln(errOut, "invalid --type (expected succession or revision)")
		return 2
	}
	if authoritative == "" {
		fmt.Fprintln(errOut, "missing --authoritative")
		return 2
	}
	seed, code := signer.load(errOut)
	if code != 0 {
		return code
	}
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	tags := []event.Tag{
		{"d", d},
		{"type", typ},
		{"authoritative", "event:" + authoritative},
	}
	if from != "" {
		tags = append(tags, event.Tag{"from", from})
	}
	if to != "" {
		tags = append(tags, event.Tag{"to", to})
	}
	if previous != "" {
		tags = append(tags, event.Tag{"previous", "event:" + previous})
	}
	if effectiveAt > 0 {
		tags = append(tags, event.Tag{"effective_at", fmt.Sprintf("%d", effectiveAt)})
	}

	ev := &event.Event{
		CreatedAt: createdAt,
		Kind:      event.KindSuccession,
		Tags:      tags,
	}
	return emitSigned(ev, seed, out, errOut)
}

func emitSigned(ev *event.Event, seed []byte, out io.Writer, errOut io.Writer) int {
	if err := keys.SignEvent(ev, seed); err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	b, err := ev.Marshal()
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "Event-ID: %s\n", ev.ID)
	_, _ = out.Write(append(b, '\n'))
	return 0
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdValidate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var d string
	var docPaths stringList
	var succPaths stringList
	var mode string
	var maxRecords int

	fs.StringVar(&d, "d", "", "Document identifier")
	fs.Var(&docPaths, "doc", "Document record file (repeatable)")
	fs.Var(&succPaths, "succ", "Succession record file (repeatable)")
	fs.StringVar(&mode, "mode", "permissive", "Compliance mode: permissive or strict")
	fs.IntVar(&maxRecords, "max-records", 0, fmt.Sprintf("Input record bound (0 means %d, negative disables)", chain.DefaultMaxRecords))

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if d == "" {
		fmt.Fprintln(errOut, "missing --d")
		return 2
	}

	var compliance model.ComplianceMode
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "permissive":
		compliance = model.CompliancePermissive
	case "strict":
		compliance = model.ComplianceStrict
	default:
		fmt.Fprintln(errOut, "invalid --mode (expected permissive or strict)")
		return 2
	}

	readRefs := func(paths []string, label string) ([]model.RecordRef, int) {
		refs := make([]model.RecordRef, 0, len(paths))
		for _, p := range paths {
			b, err := os.ReadFile(p)
			if err != nil {
				fmt.Fprintf(errOut, "read %s %s: %v\n", label, p, err)
				return nil, 1
			}
			refs = append(refs, model.RecordRef{Bytes: b})
		}
		return refs, 0
	}

	docs, code := readRefs(docPaths, "doc")
	if code != 0 {
		return code
	}
	succ, code := readRefs(succPaths, "succ")
	if code != 0 {
		return code
	}

	resp, err := model.ValidateResult(model.ValidateRequest{
		D:           d,
		Documents:   docs,
		Successions: succ,
		Compliance:  compliance,
		MaxRecords:  maxRecords,
	}, model.ValidateOptions{})
	if err != nil {
		fmt.Fprintf(errOut, "validate: %v\n", err)
		return 1
	}

	b, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(b))
	return 0
}

func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	var listBackends bool
	fs.StringVar(&backend, "backend", "localfs", "Record store backend name")
	fs.BoolVar(&listBackends, "list-backends", false, "List supported backends and exit")
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if listBackends {
		for _, b := range storeregistry.List(storeregistry.UsageCLI) {
			if b.Description == "" {
				fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: ncc store --backend <name> put|get|has ...")
		return 2
	}

	st, closeFn, err := storeregistry.Open(backend, storeregistry.UsageCLI)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	sub := fs.Arg(0)
	rest := fs.Args()[1:]
	switch sub {
	case "put":
		if len(rest) != 1 {
			fmt.Fprintln(errOut, "usage: ncc store --backend <name> put <file>")
			return 2
		}
		b, err := os.ReadFile(rest[0])
		if err != nil {
			fmt.Fprintf(errOut, "read: %v\n", err)
			return 1
		}
		id, err := st.Put(b)
		if err != nil {
			fmt.Fprintf(errOut, "put: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, id)
		return 0
	case "get":
		if len(rest) != 1 {
			fmt.Fprintln(errOut, "usage: ncc store --backend <name> get <id>")
			return 2
		}
		b, err := st.Get(rest[0])
		if err != nil {
			fmt.Fprintf(errOut, "get: %v\n", err)
			return 1
		}
		_, _ = out.Write(b)
		return 0
	case "has":
		if len(rest) != 1 {
			fmt.Fprintln(errOut, "usage: ncc store --backend <name> has <id>")
			return 2
		}
		_, _ = fmt.Fprintln(out, st.Has(rest[0]))
		return 0
	default:
		fmt.Fprintf(errOut, "unknown store subcommand: %s\n", sub)
		return 2
	}
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: ncc bundle export|import|verify ...")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	case "verify":
		return cmdBundleVerify(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	var outPath string
	var includeIndex bool
	var labelKV stringList
	var attestSeedHex string
	var attestOut string
	var attestHash string
	fs.StringVar(&backend, "backend", "localfs", "Record store backend name")
	fs.StringVar(&outPath, "out", "", "Output bundle file")
	fs.BoolVar(&includeIndex, "index", true, "Include index.json in the bundle")
	fs.Var(&labelKV, "label", "Label as name=id (repeatable)")
	fs.StringVar(&attestSeedHex, "attest-seed-hex", "", "Countersign the bundle: Dilithium3 seed as 64 hex chars")
	fs.StringVar(&attestOut, "attest-out", "", "Attestation output file (default <out>.attest.json)")
	fs.StringVar(&attestHash, "attest-hash", "sha3-256", "Attestation digest: sha256, sha512, or sha3-256")
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" {
		fmt.Fprintln(errOut, "missing --out")
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: ncc bundle export --backend <name> --out <file> <id> ...")
		return 2
	}

	labels := map[string]string{}
	for _, kv := range labelKV {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			fmt.Fprintf(errOut, "invalid --label (expected name=id): %q\n", kv)
			return 2
		}
		labels[k] = v
	}

	st, closeFn, err := storeregistry.Open(backend, storeregistry.UsageCLI)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", outPath, err)
		return 1
	}
	defer f.Close()

	err = bundle.Export(f, st, fs.Args(), bundle.ExportOptions{
		Labels:       labels,
		IncludeIndex: includeIndex,
	})
	if err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "close %s: %v\n", outPath, err)
		return 1
	}
	fmt.Fprintf(errOut, "exported %d records to %s\n", fs.NArg(), outPath)

	if attestSeedHex == "" {
		return 0
	}
	seed, err := keys.ParseSeedHex(attestSeedHex)
	if err != nil {
		fmt.Fprintf(errOut, "attest seed: %v\n", err)
		return 2
	}
	_, priv, err := keys.Dilithium3KeypairFromSeed(seed)
	if err != nil {
		fmt.Fprintf(errOut, "attest key: %v\n", err)
		return 1
	}
	bundleBytes, err := os.ReadFile(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "read back %s: %v\n", outPath, err)
		return 1
	}
	att, err := bundle.Attest(bundleBytes, attestHash, priv, time.Now().Unix())
	if err != nil {
		fmt.Fprintf(errOut, "attest: %v\n", err)
		return 1
	}
	attBytes, err := att.Marshal()
	if err != nil {
		fmt.Fprintf(errOut, "attest: %v\n", err)
		return 1
	}
	if attestOut == "" {
		attestOut = outPath + ".attest.json"
	}
	if err := os.WriteFile(attestOut, append(attBytes, '\n'), 0o644); err != nil {
		fmt.Fprintf(errOut, "write %s: %v\n", attestOut, err)
		return 1
	}
	fmt.Fprintf(errOut, "wrote attestation to %s\n", attestOut)
	return 0
}

func cmdBundleVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var attPath string
	fs.StringVar(&attPath, "attestation", "", "Attestation file written by 'bundle export --attest-seed-hex'")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if attPath == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: ncc bundle verify --attestation <file> <bundle>")
		return 2
	}
	attBytes, err := os.ReadFile(attPath)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", attPath, err)
		return 1
	}
	att, err := bundle.ParseAttestation(attBytes)
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 1
	}
	bundleBytes, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), err)
		return 1
	}
	if err := att.Verify(bundleBytes); err != nil {
		fmt.Fprintf(errOut, "verification failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "OK %s (%s over %s)\n", att.SubjectDigest, att.SigAlg, att.HashAlg)
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	var ignoreUnknown bool
	fs.StringVar(&backend, "backend", "localfs", "Record store backend name")
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Ignore unknown bundle entries instead of failing")
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: ncc bundle import --backend <name> <file>")
		return 2
	}

	st, closeFn, err := storeregistry.Open(backend, storeregistry.UsageCLI)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open %s: %v\n", fs.Arg(0), err)
		return 1
	}
	defer f.Close()

	if err := bundle.ImportWithOptions(f, st, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown}); err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	fmt.Fprintln(errOut, "import complete")
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "ncc key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ncc key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  ncc key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  ncc key list")
	fmt.Fprintln(w, "  ncc key export --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.ncc/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.NewKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	pubKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", pubKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. publisher, archive)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := keys.NewKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	pubKey, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", pubKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.NewKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	pubKey, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, pubKey)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.NewKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}
