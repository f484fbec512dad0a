package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ncc.pub/ncc/drafts"
	"ncc.pub/ncc/event"
	"ncc.pub/ncc/publishq"
	"ncc.pub/ncc/storage/storeregistry"
)

func defaultStateDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ncc", sub)
	}
	return filepath.Join(home, ".ncc", sub)
}

func cmdDraft(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printDraftUsage(errOut)
		return 2
	}
	switch args[0] {
	case "create":
		return cmdDraftCreate(args[1:], out, errOut)
	case "list":
		return cmdDraftList(args[1:], out, errOut)
	case "show":
		return cmdDraftShow(args[1:], out, errOut)
	case "update":
		return cmdDraftUpdate(args[1:], out, errOut)
	case "delete":
		return cmdDraftDelete(args[1:], out, errOut)
	case "publish":
		return cmdDraftPublish(args[1:], out, errOut)
	case "help", "-h", "--help":
		printDraftUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown draft subcommand: %s\n\n", args[0])
		printDraftUsage(errOut)
		return 2
	}
}

func printDraftUsage(w io.Writer) {
	fmt.Fprintln(w, "ncc draft: local working copies before signing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ncc draft create --d <d> [--kind <n>] [--title <t>] --content-file <file> [--tag name=value ...]")
	fmt.Fprintln(w, "  ncc draft list [--kind <n>]")
	fmt.Fprintln(w, "  ncc draft show <id>")
	fmt.Fprintln(w, "  ncc draft update <id> [--title <t>] [--content-file <file>] [--tag name=value ...]")
	fmt.Fprintln(w, "  ncc draft delete <id>")
	fmt.Fprintln(w, "  ncc draft publish <id> [--status <s>] [--supersedes <id>] [--enqueue [--relay <url> ...]] <signer>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Drafts are stored under ~/.ncc/drafts (override with --drafts-dir).")
}

func openDrafts(fs *flag.FlagSet) (*drafts.Store, error) {
	dir := fs.Lookup("drafts-dir").Value.String()
	return drafts.Open(dir)
}

func draftsDirFlag(fs *flag.FlagSet) {
	fs.String("drafts-dir", defaultStateDir("drafts"), "Draft database directory")
}

func parseTagPairs(kvs []string, errOut io.Writer) ([]drafts.TagPair, int) {
	out := make([]drafts.TagPair, 0, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			fmt.Fprintf(errOut, "invalid --tag (expected name=value): %q\n", kv)
			return nil, 2
		}
		out = append(out, drafts.TagPair{Key: k, Value: v})
	}
	return out, 0
}

func cmdDraftCreate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("draft create", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var d string
	var kind int
	var title string
	var contentFile string
	var tagKV stringList
	fs.StringVar(&d, "d", "", "Document identifier")
	fs.IntVar(&kind, "kind", event.KindDocument, "Record kind")
	fs.StringVar(&title, "title", "", "Document title")
	fs.StringVar(&contentFile, "content-file", "", "File holding the draft content")
	fs.Var(&tagKV, "tag", "Extra tag as name=value (repeatable)")
	draftsDirFlag(fs)

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
	content, err := os.ReadFile(contentFile)
	if err != nil {
		fmt.Fprintf(errOut, "read content: %v\n", err)
		return 1
	}
	tags, code := parseTagPairs(tagKV, errOut)
	if code != 0 {
		return code
	}

	ds, err := openDrafts(fs)
	if err != nil {
		fmt.Fprintf(errOut, "drafts: %v\n", err)
		return 1
	}
	defer ds.Close()

	dr, err := ds.Create(kind, d, title, string(content), tags)
	if err != nil {
		fmt.Fprintf(errOut, "create draft: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created draft %d (kind %d, d %s)\n", dr.ID, dr.Kind, dr.D)
	return 0
}

func cmdDraftList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("draft list", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var kind int
	fs.IntVar(&kind, "kind", event.KindDocument, "Record kind")
	draftsDirFlag(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	ds, err := openDrafts(fs)
	if err != nil {
		fmt.Fprintf(errOut, "drafts: %v\n", err)
		return 1
	}
	defer ds.Close()

	list, err := ds.List(kind)
	if err != nil {
		fmt.Fprintf(errOut, "list drafts: %v\n", err)
		return 1
	}
	for _, dr := range list {
		marker := " "
		if dr.Status == drafts.StatusPublished {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d\t%s\t%s\n", marker, dr.ID, dr.D, dr.Title)
	}
	return 0
}

func cmdDraftShow(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("draft show", flag.ContinueOnError)
	fs.SetOutput(errOut)
	draftsDirFlag(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, code := draftIDArg(fs, errOut, "show")
	if code != 0 {
		return code
	}
	ds, err := openDrafts(fs)
	if err != nil {
		fmt.Fprintf(errOut, "drafts: %v\n", err)
		return 1
	}
	defer ds.Close()

	dr, err := ds.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "show draft: %v\n", err)
		return 1
	}
	b, err := json.MarshalIndent(dr, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(b))
	return 0
}

func cmdDraftUpdate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("draft update", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var title string
	var contentFile string
	var tagKV stringList
	fs.StringVar(&title, "title", "", "New title (empty keeps the old one)")
	fs.StringVar(&contentFile, "content-file", "", "File holding the new content")
	fs.Var(&tagKV, "tag", "Replacement tag as name=value (repeatable)")
	draftsDirFlag(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, code := draftIDArg(fs, errOut, "update")
	if code != 0 {
		return code
	}
	ds, err := openDrafts(fs)
	if err != nil {
		fmt.Fprintf(errOut, "drafts: %v\n", err)
		return 1
	}
	defer ds.Close()

	dr, err := ds.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "update draft: %v\n", err)
		return 1
	}
	if title == "" {
		title = dr.Title
	}
	content := dr.Content
	if contentFile != "" {
		b, rerr := os.ReadFile(contentFile)
		if rerr != nil {
			fmt.Fprintf(errOut, "read content: %v\n", rerr)
			return 1
		}
		content = string(b)
	}
	tags := dr.Tags
	if len(tagKV) > 0 {
		var tcode int
		tags, tcode = parseTagPairs(tagKV, errOut)
		if tcode != 0 {
			return tcode
		}
	}

	if _, err := ds.Update(id, title, content, tags); err != nil {
		fmt.Fprintf(errOut, "update draft: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Updated draft %d\n", id)
	return 0
}

func cmdDraftDelete(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("draft delete", flag.ContinueOnError)
	fs.SetOutput(errOut)
	draftsDirFlag(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, code := draftIDArg(fs, errOut, "delete")
	if code != 0 {
		return code
	}
	ds, err := openDrafts(fs)
	if err != nil {
		fmt.Fprintf(errOut, "drafts: %v\n", err)
		return 1
	}
	defer ds.Close()

	if err := ds.Delete(id); err != nil {
		fmt.Fprintf(errOut, "delete draft: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Deleted draft %d\n", id)
	return 0
}

// cmdDraftPublish signs a draft as a record and marks it published. With
// --enqueue the signed record also lands on the durable publish queue.
func cmdDraftPublish(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("draft publish", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var status string
	var supersedes string
	var createdAt int64
	var enqueue bool
	var relays stringList
	var signer signerFlags
	fs.StringVar(&status, "status", "", "Status tag: draft, published, or withdrawn (omit for published)")
	fs.StringVar(&supersedes, "supersedes", "", "Event id of the revision this one supersedes")
	fs.Int64Var(&createdAt, "created-at", 0, "Unix timestamp (defaults to now)")
	fs.BoolVar(&enqueue, "enqueue", false, "Also enqueue the signed record for relay publishing")
	fs.Var(&relays, "relay", "Relay URL for --enqueue (repeatable)")
	fs.String("queue-dir", defaultStateDir("queue"), "Publish queue directory (with --enqueue)")
	signer.register(fs)
	draftsDirFlag(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, code := draftIDArg(fs, errOut, "publish")
	if code != 0 {
		return code
	}
	seed, code := signer.load(errOut)
	if code != 0 {
		return code
	}

	ds, err := openDrafts(fs)
	if err != nil {
		fmt.Fprintf(errOut, "drafts: %v\n", err)
		return 1
	}
	defer ds.Close()

	dr, err := ds.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "publish draft: %v\n", err)
		return 1
	}
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	tags := []event.Tag{{"d", dr.D}}
	if dr.Title != "" {
		tags = append(tags, event.Tag{"title", dr.Title})
	}
	if status != "" {
		tags = append(tags, event.Tag{"status", status})
	}
	if supersedes != "" {
		tags = append(tags, event.Tag{"supersedes", "event:" + supersedes})
	}
	for _, tp := range dr.Tags {
		tags = append(tags, event.Tag{tp.Key, tp.Value})
	}

	ev := &event.Event{
		CreatedAt: createdAt,
		Kind:      dr.Kind,
		Tags:      tags,
		Content:   dr.Content,
	}
	if code := emitSigned(ev, seed, out, errOut); code != 0 {
		return code
	}
	if _, err := ds.MarkPublished(id, ev.ID); err != nil {
		fmt.Fprintf(errOut, "mark published: %v\n", err)
		return 1
	}

	if enqueue {
		record, merr := ev.Marshal()
		if merr != nil {
			fmt.Fprintf(errOut, "encode: %v\n", merr)
			return 1
		}
		q, qerr := publishq.Open(fs.Lookup("queue-dir").Value.String(), nil)
		if qerr != nil {
			fmt.Fprintf(errOut, "queue: %v\n", qerr)
			return 1
		}
		defer q.Close()
		task, qerr := q.Enqueue(publishq.Task{ID: ev.ID, Record: record, Relays: relays})
		if qerr != nil {
			fmt.Fprintf(errOut, "enqueue: %v\n", qerr)
			return 1
		}
		fmt.Fprintf(errOut, "queued for publishing (next attempt at %d)\n", task.NextAttemptAt)
	}
	return 0
}

func draftIDArg(fs *flag.FlagSet, errOut io.Writer, sub string) (uint64, int) {
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: ncc draft %s <id>\n", sub)
		return 0, 2
	}
	var id uint64
	if _, err := fmt.Sscanf(fs.Arg(0), "%d", &id); err != nil || id == 0 {
		fmt.Fprintf(errOut, "invalid draft id: %q\n", fs.Arg(0))
		return 0, 2
	}
	return id, 0
}

func cmdQueue(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printQueueUsage(errOut)
		return 2
	}
	switch args[0] {
	case "add":
		return cmdQueueAdd(args[1:], out, errOut)
	case "list":
		return cmdQueueList(args[1:], out, errOut)
	case "run":
		return cmdQueueRun(args[1:], out, errOut)
	case "help", "-h", "--help":
		printQueueUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown queue subcommand: %s\n\n", args[0])
		printQueueUsage(errOut)
		return 2
	}
}

func printQueueUsage(w io.Writer) {
	fmt.Fprintln(w, "ncc queue: durable record publishing with retry")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ncc queue add --record <file> [--relay <url> ...]")
	fmt.Fprintln(w, "  ncc queue list")
	fmt.Fprintln(w, "  ncc queue run --backend <name> [--once] [--poll <duration>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The queue lives under ~/.ncc/queue (override with --queue-dir).")
	fmt.Fprintln(w, "'run' drains the queue into the configured store backend (e.g. a")
	fmt.Fprintln(w, "grpc backend pointing at an archive daemon).")
}

func queueDirFlag(fs *flag.FlagSet) {
	fs.String("queue-dir", defaultStateDir("queue"), "Publish queue directory")
}

func cmdQueueAdd(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("queue add", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var recordFile string
	var relays stringList
	fs.StringVar(&recordFile, "record", "", "Signed record file to publish")
	fs.Var(&relays, "relay", "Relay URL (repeatable)")
	queueDirFlag(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if recordFile == "" {
		fmt.Fprintln(errOut, "missing --record")
		return 2
	}
	b, err := os.ReadFile(recordFile)
	if err != nil {
		fmt.Fprintf(errOut, "read record: %v\n", err)
		return 1
	}
	ev, err := event.Parse(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid record: %v\n", err)
		return 1
	}

	q, err := publishq.Open(fs.Lookup("queue-dir").Value.String(), nil)
	if err != nil {
		fmt.Fprintf(errOut, "queue: %v\n", err)
		return 1
	}
	defer q.Close()

	task, err := q.Enqueue(publishq.Task{ID: ev.ID, Record: b, Relays: relays})
	if err != nil {
		fmt.Fprintf(errOut, "enqueue: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "queued %s (next attempt at %d)\n", ev.ID, task.NextAttemptAt)
	return 0
}

func cmdQueueList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("queue list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	queueDirFlag(fs)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	q, err := publishq.Open(fs.Lookup("queue-dir").Value.String(), nil)
	if err != nil {
		fmt.Fprintf(errOut, "queue: %v\n", err)
		return 1
	}
	defer q.Close()

	tasks, err := q.Tasks()
	if err != nil {
		fmt.Fprintf(errOut, "list tasks: %v\n", err)
		return 1
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "%s\tattempts=%d/%d\tnext=%d\n", t.ID, t.Attempts, t.MaxAttempts, t.NextAttemptAt)
		if t.LastError != "" {
			fmt.Fprintf(out, "  last error: %s\n", t.LastError)
		}
	}
	return 0
}

func cmdQueueRun(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("queue run", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	var once bool
	var poll time.Duration
	fs.StringVar(&backend, "backend", "grpc", "Record store backend records are published into")
	fs.BoolVar(&once, "once", false, "Drain due tasks and exit")
	fs.DurationVar(&poll, "poll", publishq.DefaultPollInterval, "Poll interval")
	queueDirFlag(fs)
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
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

	pub := publishq.PublisherFunc(func(_ context.Context, record []byte, _ []string) (string, error) {
		return st.Put(record)
	})

	q, err := publishq.Open(fs.Lookup("queue-dir").Value.String(), pub)
	if err != nil {
		fmt.Fprintf(errOut, "queue: %v\n", err)
		return 1
	}
	defer q.Close()
	q.Notify = func(msg string) { fmt.Fprintln(errOut, msg) }

	if once {
		for {
			attempted, perr := q.ProcessOnce(context.Background())
			if perr != nil {
				fmt.Fprintf(errOut, "queue: %v\n", perr)
				return 1
			}
			if !attempted {
				return 0
			}
		}
	}
	if err := q.Run(context.Background(), poll); err != nil && err != context.Canceled {
		fmt.Fprintf(errOut, "queue: %v\n", err)
		return 1
	}
	return 0
}
