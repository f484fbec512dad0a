package event

import "strings"

// TagFirst returns the first value of the named tag, or "" when absent.
func TagFirst(tags []Tag, name string) string {
	for _, t := range tags {
		if len(t) >= 2 && t[0] == name {
			return t[1]
		}
	}
	return ""
}

// TagAll returns every value of the named tag, in order.
func TagAll(tags []Tag, name string) []string {
	var out []string
	for _, t := range tags {
		if len(t) >= 2 && t[0] == name {
			out = append(out, t[1])
		}
	}
	return out
}

// StripRef removes the "event:" prefix publishers put on id references
// (authoritative, supersedes, from, to, previous).
func StripRef(value string) string {
	if strings.HasPrefix(value, "event:") {
		return strings.TrimPrefix(value, "event:")
	}
	return value
}

// TagRef returns the first value of the named tag with any "event:"
// reference prefix stripped.
func TagRef(tags []Tag, name string) string {
	return StripRef(TagFirst(tags, name))
}
