package model

// RecordRef refers to canonical record bytes directly or by event id.
// Exactly one of ID or Bytes MUST be set. Referring by id requires a
// record store to hydrate from.
//
// JSON note: Bytes are encoded as base64 by encoding/json.
type RecordRef struct {
	ID    string `json:"id,omitempty"`
	Bytes []byte `json:"bytes,omitempty"`
}

type ComplianceMode string

const (
	CompliancePermissive ComplianceMode = "permissive"
	ComplianceStrict     ComplianceMode = "strict"
)

// ValidateRequest asks for one chain resolution over a snapshot of records.
type ValidateRequest struct {
	D           string         `json:"d"`
	Documents   []RecordRef    `json:"documents"`
	Successions []RecordRef    `json:"successions"`
	Compliance  ComplianceMode `json:"compliance"`

	// MaxRecords overrides the default input bound when non-zero.
	// Negative disables the bound.
	MaxRecords int `json:"maxRecords,omitempty"`
}

type ForkPoint struct {
	ParentID string   `json:"parentId"`
	ChildIDs []string `json:"childIds"`
}

type ChainResult struct {
	D                         string      `json:"d"`
	AuthoritativeDocumentID   string      `json:"authoritativeDocumentId,omitempty"`
	AuthoritativeSuccessionID string      `json:"authoritativeSuccessionId,omitempty"`
	CurrentSteward            string      `json:"currentSteward,omitempty"`
	Tips                      []string    `json:"tips"`
	ForkPoints                []ForkPoint `json:"forkPoints"`
	ForkedBranches            []string    `json:"forkedBranches"`
	Warnings                  []string    `json:"warnings"`
}

type ValidateResponse struct {
	Result ChainResult `json:"result"`
}
