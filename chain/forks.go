package chain

import (
	"sort"

	"ncc.pub/ncc/event"
)

// computeTips returns the candidate documents not referenced as a parent by
// any other candidate document, in id order. A self-superseding document
// stays a tip: no other document references it.
func computeTips(in *ingested, candidates []*event.Document) []string {
	referenced := make(map[string]bool)
	for _, doc := range candidates {
		parent := effectiveSupersedes(in, doc)
		if parent != "" && parent != doc.Event.ID {
			referenced[parent] = true
		}
	}

	tips := []string{}
	for _, doc := range candidates {
		if !referenced[doc.Event.ID] {
			tips = append(tips, doc.Event.ID)
		}
	}
	sort.Strings(tips)
	return tips
}

// analyzeForks builds the parent → children map over the candidates'
// supersession edges and reports every parent with more than one child.
func analyzeForks(in *ingested, candidates []*event.Document) []ForkPoint {
	children := make(map[string][]string)
	for _, doc := range candidates {
		parent := effectiveSupersedes(in, doc)
		if parent == "" {
			continue
		}
		children[parent] = append(children[parent], doc.Event.ID)
	}

	parents := make([]string, 0, len(children))
	for p, c := range children {
		if len(c) > 1 {
			parents = append(parents, p)
		}
	}
	sort.Strings(parents)

	out := []ForkPoint{}
	for _, p := range parents {
		ids := append([]string(nil), children[p]...)
		sort.Strings(ids)
		out = append(out, ForkPoint{ParentID: p, ChildIDs: ids})
	}
	return out
}

// forkedBranches returns the tips that lost to the authoritative document.
// Without an authoritative document the ambiguity is already a warning and
// the list stays empty.
func forkedBranches(tips []string, authoritativeDocID string) []string {
	if authoritativeDocID == "" {
		return []string{}
	}
	out := []string{}
	for _, tip := range tips {
		if tip != authoritativeDocID {
			out = append(out, tip)
		}
	}
	return out
}

// integrityWarnings reports self-supersession and dangling parent
// references over every ingested document. These never exclude a document
// by themselves; the graph walk is one hop deep.
func integrityWarnings(in *ingested, warnings *[]string) {
	for _, doc := range in.documents {
		if doc.Supersedes == "" {
			continue
		}
		if doc.Supersedes == doc.Event.ID {
			*warnings = append(*warnings, warnf(WarnIntegrity,
				"document %s supersedes itself", doc.Event.ID))
			continue
		}
		if _, ok := in.docByID[doc.Supersedes]; !ok {
			*warnings = append(*warnings, warnf(WarnIntegrity,
				"document %s supersedes unknown document %s", doc.Event.ID, doc.Supersedes))
		}
	}
}
