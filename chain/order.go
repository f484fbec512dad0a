package chain

import "ncc.pub/ncc/event"

// ordering is a lexicographic comparator built from per-key comparison
// functions. Root selection, steward replay, revision deduplication, and
// revision election all route through this one abstraction so their
// tie-break behavior cannot drift apart.
type ordering[T any] []func(a, b T) int

func (o ordering[T]) less(a, b T) bool {
	for _, cmp := range o {
		if c := cmp(a, b); c != 0 {
			return c < 0
		}
	}
	return false
}

// best returns the minimum element under the ordering. The slice must be
// non-empty.
func (o ordering[T]) best(items []T) T {
	out := items[0]
	for _, it := range items[1:] {
		if o.less(it, out) {
			out = it
		}
	}
	return out
}

func cmpInt64Asc(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpStringAsc(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// rootOrdering selects the root document: published beats unpublished,
// then earlier created_at, then lexicographically smaller id.
var rootOrdering = ordering[*event.Document]{
	func(a, b *event.Document) int {
		ap, bp := a.Status == event.StatusPublished, b.Status == event.StatusPublished
		if ap == bp {
			return 0
		}
		if ap {
			return -1
		}
		return 1
	},
	func(a, b *event.Document) int { return cmpInt64Asc(a.Event.CreatedAt, b.Event.CreatedAt) },
	func(a, b *event.Document) int { return cmpStringAsc(a.Event.ID, b.Event.ID) },
}

// oldestOrdering is the root fallback: oldest created_at, then smaller id.
var oldestOrdering = ordering[*event.Document]{
	func(a, b *event.Document) int { return cmpInt64Asc(a.Event.CreatedAt, b.Event.CreatedAt) },
	func(a, b *event.Document) int { return cmpStringAsc(a.Event.ID, b.Event.ID) },
}

// replayOrdering fixes the steward replay sequence: ascending created_at,
// ids breaking ties.
var replayOrdering = ordering[*event.Succession]{
	func(a, b *event.Succession) int { return cmpInt64Asc(a.Event.CreatedAt, b.Event.CreatedAt) },
	func(a, b *event.Succession) int { return cmpStringAsc(a.Event.ID, b.Event.ID) },
}

// electionOrdering picks the winning revision record, for both per-target
// deduplication and the global election: larger effective_at wins (missing
// is 0), then larger created_at, then lexicographically larger id.
var electionOrdering = ordering[*event.Succession]{
	func(a, b *event.Succession) int { return -cmpInt64Asc(a.EffectiveAt, b.EffectiveAt) },
	func(a, b *event.Succession) int { return -cmpInt64Asc(a.Event.CreatedAt, b.Event.CreatedAt) },
	func(a, b *event.Succession) int { return -cmpStringAsc(a.Event.ID, b.Event.ID) },
}
