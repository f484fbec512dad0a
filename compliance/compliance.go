package compliance

// ComplianceMode selects how aggressively the library rejects ambiguity.
//
// Strict mode prefers explicit failure over silent acceptance: warnings or a
// missing authoritative revision become errors. Permissive mode always
// produces a result and leaves acting on its warnings to the caller.
type ComplianceMode int

const (
	Permissive ComplianceMode = iota
	Strict
)
