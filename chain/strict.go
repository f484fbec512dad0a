package chain

import "ncc.pub/ncc/event"

// ValidateStrict runs Validate and enforces strict compliance semantics.
//
// Strict mode is intentionally rejecting:
// - Any warning (integrity, authorization, ambiguity)
// - A result with no authoritative document
//
// This is a convenience entry point for callers that want "no ambiguity"
// behavior, such as a drafting workflow refusing to publish on top of a
// disputed chain, while keeping the base behavior available.
func ValidateStrict(documentBytes, successionBytes [][]byte, d string, verifier event.Verifier) (*Result, error) {
	res := Validate(documentBytes, successionBytes, d, verifier)
	if err := EnforceStrict(res); err != nil {
		return nil, err
	}
	return res, nil
}
