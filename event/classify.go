package event

import "strconv"

// Status is the publication state of a document revision.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusWithdrawn Status = "withdrawn"
)

// SuccessionType distinguishes the two succession record roles.
type SuccessionType string

const (
	// TypeSuccession transfers stewardship to another key.
	TypeSuccession SuccessionType = "succession"
	// TypeRevision elects which document revision is canonical.
	TypeRevision SuccessionType = "revision"
)

// Document is the classified view of a kind-30050 event: one revision of a
// logical document.
type Document struct {
	Event *Event

	D          string
	Status     Status
	Supersedes string // parent document id, "" when the record is a root
}

// Succession is the classified view of a kind-30051 event.
//
// Type is "" when the record carried no recognizable type tag; such records
// neither transfer stewardship nor elect revisions, but their ids remain
// valid reference targets.
type Succession struct {
	Event *Event

	D             string
	Type          SuccessionType
	Authoritative string
	From          string
	To            string
	Previous      string
	EffectiveAt   int64 // 0 when absent
}

// ClassifyDocument extracts the document view of an event.
//
// The event must be kind 30050 and must carry a d tag. A missing status tag
// means published: the reference publisher only emits published revisions
// and uses the tag solely to mark drafts and withdrawals.
func ClassifyDocument(ev *Event) (*Document, error) {
	if ev == nil {
		return nil, newError(KindClassify, "NCC-CLS-001", "nil event")
	}
	if ev.Kind != KindDocument {
		return nil, newError(KindClassify, "NCC-CLS-002", "not a document kind")
	}
	d := TagFirst(ev.Tags, "d")
	if d == "" {
		return nil, newError(KindClassify, "NCC-CLS-003", "document missing d tag")
	}

	status := StatusPublished
	switch raw := TagFirst(ev.Tags, "status"); raw {
	case "":
	case string(StatusDraft), string(StatusPublished), string(StatusWithdrawn):
		status = Status(raw)
	default:
		return nil, newError(KindClassify, "NCC-CLS-004", "unknown status tag value")
	}

	return &Document{
		Event:      ev,
		D:          d,
		Status:     status,
		Supersedes: TagRef(ev.Tags, "supersedes"),
	}, nil
}

// ClassifySuccession extracts the succession view of an event.
//
// The event must be kind 30051 and must carry a d tag and an authoritative
// reference. An unparseable effective_at rejects the record.
func ClassifySuccession(ev *Event) (*Succession, error) {
	if ev == nil {
		return nil, newError(KindClassify, "NCC-CLS-001", "nil event")
	}
	if ev.Kind != KindSuccession {
		return nil, newError(KindClassify, "NCC-CLS-005", "not a succession kind")
	}
	d := TagFirst(ev.Tags, "d")
	if d == "" {
		return nil, newError(KindClassify, "NCC-CLS-006", "succession missing d tag")
	}
	authoritative := TagRef(ev.Tags, "authoritative")
	if authoritative == "" {
		return nil, newError(KindClassify, "NCC-CLS-007", "succession missing authoritative tag")
	}

	var typ SuccessionType
	switch raw := TagFirst(ev.Tags, "type"); raw {
	case string(TypeSuccession):
		typ = TypeSuccession
	case string(TypeRevision):
		typ = TypeRevision
	case "":
		typ = ""
	default:
		return nil, newError(KindClassify, "NCC-CLS-008", "unknown succession type tag value")
	}

	var effectiveAt int64
	if raw := TagFirst(ev.Tags, "effective_at"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return nil, newError(KindClassify, "NCC-CLS-009", "invalid effective_at tag value")
		}
		effectiveAt = v
	}

	return &Succession{
		Event:         ev,
		D:             d,
		Type:          typ,
		Authoritative: authoritative,
		From:          TagRef(ev.Tags, "from"),
		To:            TagRef(ev.Tags, "to"),
		Previous:      TagRef(ev.Tags, "previous"),
		EffectiveAt:   effectiveAt,
	}, nil
}
