package chain

import (
	"sort"

	"ncc.pub/ncc/event"
)

// stewardState is the replayed authority history for one identifier.
//
// authorized grows monotonically: once a key receives stewardship it stays
// eligible, because documents it signed while in power must keep validating.
type stewardState struct {
	root       *event.Document
	authorized map[string]bool
	current    string
}

func (s *stewardState) isAuthorized(pubkey string) bool { return s.authorized[pubkey] }

// resolveStewards selects the root document and replays succession-type
// records in chronological order to reconstruct the steward history.
func resolveStewards(in *ingested, warnings *[]string) *stewardState {
	root := selectRoot(in, warnings)

	st := &stewardState{
		root:       root,
		authorized: map[string]bool{root.Event.PubKey: true},
		current:    root.Event.PubKey,
	}

	transfers := make([]*event.Succession, 0, len(in.successions))
	for _, s := range in.successions {
		if s.Type == event.TypeSuccession {
			transfers = append(transfers, s)
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return replayOrdering.less(transfers[i], transfers[j]) })

	for _, s := range transfers {
		// A transfer only takes effect when issued by the steward in power
		// at that point and its authoritative reference resolves. Failing
		// records are ignored here; unauthorized publishing surfaces
		// downstream.
		if s.Event.PubKey != st.current {
			continue
		}
		next, ok := authorOf(in, s.Authoritative)
		if !ok {
			continue
		}
		st.current = next
		st.authorized[next] = true
	}

	return st
}

// selectRoot picks the root document: among unsuperseded documents,
// published beats unpublished, then earliest created_at, then smallest id.
// When every document claims a parent (an inconsistent fetch), the oldest
// document stands in as root, with a warning.
func selectRoot(in *ingested, warnings *[]string) *event.Document {
	var roots []*event.Document
	for _, doc := range in.documents {
		if effectiveSupersedes(in, doc) == "" {
			roots = append(roots, doc)
		}
	}
	if len(roots) > 0 {
		return rootOrdering.best(roots)
	}

	fallback := oldestOrdering.best(in.documents)
	*warnings = append(*warnings, warnf(WarnIntegrity,
		"no unsuperseded document found; assuming oldest document %s is the root", fallback.Event.ID))
	return fallback
}

// effectiveSupersedes returns the document's parent reference with dangling
// targets treated as absent. A self-reference is preserved: the target is
// present in the input set, and the loop is reported by the integrity pass.
func effectiveSupersedes(in *ingested, doc *event.Document) string {
	if doc.Supersedes == "" {
		return ""
	}
	if _, ok := in.docByID[doc.Supersedes]; !ok {
		return ""
	}
	return doc.Supersedes
}

// authorOf resolves a reference to a known document or succession record
// and returns the target's author.
func authorOf(in *ingested, id string) (string, bool) {
	if doc, ok := in.docByID[id]; ok {
		return doc.Event.PubKey, true
	}
	if succ, ok := in.succByID[id]; ok {
		return succ.Event.PubKey, true
	}
	return "", false
}

// candidateDocuments returns the published documents signed by historically
// authorized stewards, warning about published documents from outside keys.
func candidateDocuments(in *ingested, st *stewardState, warnings *[]string) []*event.Document {
	var out []*event.Document
	for _, doc := range in.documents {
		if doc.Status != event.StatusPublished {
			continue
		}
		if !st.isAuthorized(doc.Event.PubKey) {
			*warnings = append(*warnings, warnf(WarnAuthorization,
				"published document %s signed by unauthorized key %s", doc.Event.ID, doc.Event.PubKey))
			continue
		}
		out = append(out, doc)
	}
	return out
}
