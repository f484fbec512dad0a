// Package chain implements deterministic chain resolution for NCC versioned
// documents: given whatever signed records a client fetched, it computes who
// holds stewardship, which revision is authoritative, where the supersession
// graph forks, and why records were rejected.
//
// Validate is a one-shot pure function: no I/O, no retained state, and the
// same record set yields a byte-identical result under any input
// permutation. Independent clients holding the same records converge with no
// further communication.
package chain

import "ncc.pub/ncc/event"

// Validate resolves the record chain for the identifier d.
//
// documentBytes and successionBytes carry raw signed records in any order;
// records that fail verification, classification, or the d filter take no
// part in the result beyond a warning. Validate never fails: adversarial or
// empty input yields a result whose warnings explain what was dropped.
func Validate(documentBytes, successionBytes [][]byte, d string, verifier event.Verifier) *Result {
	return ValidateWithOptions(documentBytes, successionBytes, d, verifier, Options{})
}

// ValidateWithOptions is Validate with an explicit options knob.
func ValidateWithOptions(documentBytes, successionBytes [][]byte, d string, verifier event.Verifier, opts Options) *Result {
	opts = opts.withDefaults()
	res := newResult(d)

	if n := len(documentBytes) + len(successionBytes); opts.MaxRecords > 0 && n > opts.MaxRecords {
		res.Warnings = append(res.Warnings, warnf(WarnIntegrity,
			"input of %d records exceeds the configured bound of %d", n, opts.MaxRecords))
		return res
	}

	in := ingest(documentBytes, successionBytes, d, verifier)
	res.Warnings = append(res.Warnings, in.warnings...)

	if len(in.documents) == 0 {
		res.Warnings = append(res.Warnings, warnf(WarnIntegrity, "no valid documents for %q", d))
		return res
	}

	stewards := resolveStewards(in, &res.Warnings)
	res.CurrentSteward = stewards.current

	candidates := candidateDocuments(in, stewards, &res.Warnings)
	integrityWarnings(in, &res.Warnings)

	revisions := validRevisions(in, stewards, &res.Warnings)
	winner := electWinner(revisions)

	res.Tips = computeTips(in, candidates)
	res.ForkPoints = analyzeForks(in, candidates)

	switch {
	case winner != nil:
		res.AuthoritativeDocumentID = winner.Authoritative
		res.AuthoritativeSuccessionID = winner.Event.ID
	case len(res.Tips) == 1:
		res.AuthoritativeDocumentID = res.Tips[0]
	case len(res.Tips) == 0:
		res.Warnings = append(res.Warnings, warnf(WarnAmbiguity,
			"no candidate tips and no electing revision record"))
	default:
		res.Warnings = append(res.Warnings, warnf(WarnAmbiguity,
			"%d unresolved tips and no electing revision record", len(res.Tips)))
	}

	res.ForkedBranches = forkedBranches(res.Tips, res.AuthoritativeDocumentID)
	return res
}
