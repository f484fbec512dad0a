package chain

import "fmt"

// DefaultMaxRecords bounds the input size. Callers feeding relay responses
// straight in should not let a hostile relay hand them an unbounded record
// set.
const DefaultMaxRecords = 10000

// Options controls validation behavior.
//
// The zero value means the default record bound.
type Options struct {
	// MaxRecords rejects inputs larger than this many records.
	// Zero means DefaultMaxRecords; negative disables the bound.
	MaxRecords int
}

func (o Options) withDefaults() Options {
	if o.MaxRecords == 0 {
		o.MaxRecords = DefaultMaxRecords
	}
	if o.MaxRecords < 0 {
		o.MaxRecords = 0
	}
	return o
}

// EnforceStrict checks a result against strict compliance semantics.
func EnforceStrict(res *Result) error {
	if len(res.Warnings) > 0 {
		return fmt.Errorf("strict mode: warnings present (%d)", len(res.Warnings))
	}
	if res.AuthoritativeDocumentID == "" {
		return fmt.Errorf("strict mode: no authoritative document established")
	}
	return nil
}
