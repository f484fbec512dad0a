package model

import (
	"errors"

	"ncc.pub/ncc/chain"
	"ncc.pub/ncc/compliance"
	"ncc.pub/ncc/event"
	"ncc.pub/ncc/storage"
)

type ValidateOptions struct {
	// Store hydrates by-id refs. Optional when all refs carry bytes.
	Store storage.RecordStore

	// StoreAdapters provides ordered fallback stores consulted after Store.
	StoreAdapters []storage.RecordStore

	// Verifier overrides signature verification. Defaults to Ed25519.
	Verifier event.Verifier
}

// ValidateResult hydrates the request's record refs, runs chain validation,
// and returns the boundary projection of the outcome.
//
// In strict compliance mode a result with warnings or without an
// authoritative document becomes a STRICT_REJECTED error.
func ValidateResult(req ValidateRequest, opts ValidateOptions) (*ValidateResponse, error) {
	if req.D == "" {
		return nil, NewError(ErrInvalidRequest, "missing d")
	}
	mode, err := toCompliance(req.Compliance)
	if err != nil {
		return nil, err
	}

	store := hydrationStore(opts)

	docs, err := hydrateRefs(req.Documents, store, "documents")
	if err != nil {
		return nil, err
	}
	succ, err := hydrateRefs(req.Successions, store, "successions")
	if err != nil {
		return nil, err
	}

	verifier := opts.Verifier
	if verifier == nil {
		verifier = event.Ed25519Verifier{}
	}

	res := chain.ValidateWithOptions(docs, succ, req.D, verifier, chain.Options{
		MaxRecords: req.MaxRecords,
	})

	if mode == compliance.Strict {
		if err := chain.EnforceStrict(res); err != nil {
			return nil, NewError(ErrStrictRejected, err.Error())
		}
	}

	return &ValidateResponse{Result: fromResult(res)}, nil
}

func hydrationStore(opts ValidateOptions) storage.RecordStore {
	if len(opts.StoreAdapters) == 0 {
		return opts.Store
	}
	adapters := make([]storage.RecordStore, 0, 1+len(opts.StoreAdapters))
	if opts.Store != nil {
		adapters = append(adapters, opts.Store)
	}
	adapters = append(adapters, opts.StoreAdapters...)
	return storage.MultiStore{Adapters: adapters}
}

func hydrateRefs(refs []RecordRef, store storage.RecordStore, field string) ([][]byte, error) {
	out := make([][]byte, 0, len(refs))
	for i, r := range refs {
		b, err := hydrateRef(r, store)
		if err != nil {
			var ce *CodedError
			if errors.As(err, &ce) {
				return nil, NewError(ce.Code, "invalid "+field+"["+itoa(i)+"]: "+ce.Message)
			}
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func hydrateRef(r RecordRef, store storage.RecordStore) ([]byte, error) {
	if len(r.Bytes) > 0 && r.ID != "" {
		return nil, NewError(ErrInvalidRequest, "record ref has both bytes and id")
	}
	if len(r.Bytes) > 0 {
		return r.Bytes, nil
	}
	if r.ID != "" {
		if !storage.ValidID(r.ID) {
			return nil, NewError(ErrInvalidID, "invalid record id")
		}
		if store == nil {
			return nil, NewError(ErrMissingStore, "record ref by id requires a store")
		}
		b, err := store.Get(r.ID)
		if err != nil {
			return nil, mapErr(err)
		}
		return b, nil
	}
	return nil, NewError(ErrInvalidRequest, "record ref missing bytes/id")
}

func toCompliance(m ComplianceMode) (compliance.ComplianceMode, error) {
	switch m {
	case CompliancePermissive:
		return compliance.Permissive, nil
	case ComplianceStrict:
		return compliance.Strict, nil
	case "":
		return 0, NewError(ErrInvalidRequest, "missing compliance mode")
	default:
		return 0, NewError(ErrInvalidRequest, "invalid compliance mode")
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(ErrNotFound, err.Error())
	}
	if errors.Is(err, storage.ErrIDMismatch) {
		return NewError(ErrIDMismatch, err.Error())
	}
	if errors.Is(err, storage.ErrInvalidID) {
		return NewError(ErrInvalidID, err.Error())
	}
	return NewError(ErrInternal, err.Error())
}

func fromResult(r *chain.Result) ChainResult {
	out := ChainResult{
		D:                         r.D,
		AuthoritativeDocumentID:   r.AuthoritativeDocumentID,
		AuthoritativeSuccessionID: r.AuthoritativeSuccessionID,
		CurrentSteward:            r.CurrentSteward,
		Tips:                      append([]string{}, r.Tips...),
		ForkPoints:                make([]ForkPoint, 0, len(r.ForkPoints)),
		ForkedBranches:            append([]string{}, r.ForkedBranches...),
		Warnings:                  append([]string{}, r.Warnings...),
	}
	for _, fp := range r.ForkPoints {
		out.ForkPoints = append(out.ForkPoints, ForkPoint{
			ParentID: fp.ParentID,
			ChildIDs: append([]string(nil), fp.ChildIDs...),
		})
	}
	return out
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b [32]byte
	n := len(b)
	for i > 0 {
		n--
		b[n] = byte('0' + (i % 10))
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
