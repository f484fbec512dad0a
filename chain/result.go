package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ForkPoint is a divergence in the supersession graph: more than one
// candidate document claims the same parent.
type ForkPoint struct {
	ParentID string   `json:"parentId"`
	ChildIDs []string `json:"childIds"`
}

// Result is the outcome of one chain validation.
//
// It is always fully populated: slice fields are never nil, so the JSON
// encoding of equal results is byte-identical. Empty AuthoritativeDocumentID,
// AuthoritativeSuccessionID, or CurrentSteward means "none established".
type Result struct {
	D                         string      `json:"d"`
	AuthoritativeDocumentID   string      `json:"authoritativeDocumentId,omitempty"`
	AuthoritativeSuccessionID string      `json:"authoritativeSuccessionId,omitempty"`
	CurrentSteward            string      `json:"currentSteward,omitempty"`
	Tips                      []string    `json:"tips"`
	ForkPoints                []ForkPoint `json:"forkPoints"`
	ForkedBranches            []string    `json:"forkedBranches"`
	Warnings                  []string    `json:"warnings"`
}

func newResult(d string) *Result {
	return &Result{
		D:              d,
		Tips:           []string{},
		ForkPoints:     []ForkPoint{},
		ForkedBranches: []string{},
		Warnings:       []string{},
	}
}

// Warning classes. Callers may branch on the prefix; the remainder of each
// warning string is human-readable and may evolve.
const (
	WarnIntegrity     = "integrity"
	WarnAuthorization = "authorization"
	WarnAmbiguity     = "ambiguity"
)

func warnf(class, format string, args ...interface{}) string {
	return class + ": " + fmt.Sprintf(format, args...)
}

// inputHash names a record that failed parsing or verification before a
// trustworthy id was established. Deriving the name from the raw bytes keeps
// warnings stable under input permutation.
func inputHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:8])
}
