package chain

import (
	"sort"

	"ncc.pub/ncc/event"
)

// validRevisions filters revision-type records against authorization and
// referential integrity, then deduplicates them per authoritative target.
//
// Exactly one record per target survives; the winner is picked by the
// election ordering (effective_at, then created_at, then id, all
// descending).
func validRevisions(in *ingested, st *stewardState, warnings *[]string) []*event.Succession {
	byTarget := make(map[string]*event.Succession)
	var targets []string

	for _, s := range in.successions {
		if s.Type != event.TypeRevision {
			if s.Type == "" {
				*warnings = append(*warnings, warnf(WarnIntegrity,
					"succession record %s has no recognized type", s.Event.ID))
			}
			continue
		}
		if !st.isAuthorized(s.Event.PubKey) {
			*warnings = append(*warnings, warnf(WarnAuthorization,
				"revision record %s signed by unauthorized key %s", s.Event.ID, s.Event.PubKey))
			continue
		}
		target, ok := in.docByID[s.Authoritative]
		if !ok {
			*warnings = append(*warnings, warnf(WarnIntegrity,
				"revision record %s references unknown document %s", s.Event.ID, s.Authoritative))
			continue
		}
		if !checkDescent(in, s, target, warnings) {
			continue
		}

		prev, seen := byTarget[s.Authoritative]
		if !seen {
			byTarget[s.Authoritative] = s
			targets = append(targets, s.Authoritative)
			continue
		}
		if electionOrdering.less(s, prev) {
			byTarget[s.Authoritative] = s
		}
	}

	sort.Strings(targets)
	out := make([]*event.Succession, 0, len(targets))
	for _, t := range targets {
		out = append(out, byTarget[t])
	}
	return out
}

// checkDescent guards against electing a revision that does not descend
// from its claimed parent: when from and to are both declared, to must
// equal the authoritative reference, and when both referenced documents
// are known, to must supersede from.
func checkDescent(in *ingested, s *event.Succession, target *event.Document, warnings *[]string) bool {
	_ = target
	if s.From == "" || s.To == "" {
		return true
	}
	if s.To != s.Authoritative {
		*warnings = append(*warnings, warnf(WarnIntegrity,
			"revision record %s declares to=%s but elects %s", s.Event.ID, s.To, s.Authoritative))
		return false
	}
	toDoc, toKnown := in.docByID[s.To]
	_, fromKnown := in.docByID[s.From]
	if toKnown && fromKnown && toDoc.Supersedes != s.From {
		*warnings = append(*warnings, warnf(WarnIntegrity,
			"revision record %s claims descent from %s but %s does not supersede it", s.Event.ID, s.From, s.To))
		return false
	}
	return true
}

// electWinner picks the single global winner among the deduplicated
// revision records, or nil when none exist.
func electWinner(revisions []*event.Succession) *event.Succession {
	if len(revisions) == 0 {
		return nil
	}
	return electionOrdering.best(revisions)
}
