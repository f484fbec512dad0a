package chain

import (
	"sort"

	"ncc.pub/ncc/event"
)

// ingested is the filtered, classified, deterministically ordered view of
// the raw input for one target identifier.
type ingested struct {
	documents   []*event.Document
	successions []*event.Succession

	docByID  map[string]*event.Document
	succByID map[string]*event.Succession

	warnings []string
}

// ingest verifies, classifies, and filters the raw record lists.
//
// Records failing verification or classification are dropped with an
// integrity warning; records for a different d are dropped silently.
// Duplicate ids collapse to one record (records are immutable, so two
// records with one id carry identical content). The surviving records are
// sorted by id and the stage's warnings are sorted, so the output is a pure
// function of the input set.
func ingest(documentBytes, successionBytes [][]byte, d string, verifier event.Verifier) *ingested {
	in := &ingested{
		docByID:  make(map[string]*event.Document),
		succByID: make(map[string]*event.Succession),
	}

	for _, raw := range documentBytes {
		ev, ok := in.admit(raw, d, verifier)
		if !ok || ev == nil {
			continue
		}
		doc, err := event.ClassifyDocument(ev)
		if err != nil {
			in.warnings = append(in.warnings, warnf(WarnIntegrity, "malformed document %s: %s", ev.ID, err))
			continue
		}
		if doc.D != d {
			continue
		}
		if _, dup := in.docByID[ev.ID]; dup {
			continue
		}
		in.docByID[ev.ID] = doc
		in.documents = append(in.documents, doc)
	}

	for _, raw := range successionBytes {
		ev, ok := in.admit(raw, d, verifier)
		if !ok || ev == nil {
			continue
		}
		succ, err := event.ClassifySuccession(ev)
		if err != nil {
			in.warnings = append(in.warnings, warnf(WarnIntegrity, "malformed succession record %s: %s", ev.ID, err))
			continue
		}
		if succ.D != d {
			continue
		}
		if _, dup := in.succByID[ev.ID]; dup {
			continue
		}
		in.succByID[ev.ID] = succ
		in.successions = append(in.successions, succ)
	}

	sort.Slice(in.documents, func(i, j int) bool {
		return in.documents[i].Event.ID < in.documents[j].Event.ID
	})
	sort.Slice(in.successions, func(i, j int) bool {
		return in.successions[i].Event.ID < in.successions[j].Event.ID
	})
	sort.Strings(in.warnings)

	return in
}

// admit parses and signature-checks one raw record. It returns (nil, false)
// for records that must not take part in any further step.
func (in *ingested) admit(raw []byte, d string, verifier event.Verifier) (*event.Event, bool) {
	ev, err := event.Parse(raw)
	if err != nil {
		in.warnings = append(in.warnings, warnf(WarnIntegrity, "malformed event %s: %s", inputHash(raw), err))
		return nil, false
	}
	if verifier != nil {
		if err := verifier.Verify(ev); err != nil {
			in.warnings = append(in.warnings, warnf(WarnIntegrity, "invalid signature on event %s: %s", ev.ID, err))
			return nil, false
		}
	}
	return ev, true
}

// knownID reports whether id names any ingested document or succession
// record. References are resolved against this set only.
func (in *ingested) knownID(id string) bool {
	if _, ok := in.docByID[id]; ok {
		return true
	}
	_, ok := in.succByID[id]
	return ok
}
