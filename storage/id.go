package storage

import (
	"fmt"

	"ncc.pub/ncc/event"
)

// parseForID parses raw record bytes and confirms the embedded id matches
// the canonical serialization. Backends call this on Put so that a store
// never holds a record filed under an id its bytes do not hash to.
func parseForID(bytes []byte) (string, error) {
	ev, err := event.Parse(bytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if id := ev.ComputeID(); id != ev.ID {
		return "", fmt.Errorf("%w: declared %s, computed %s", ErrIDMismatch, ev.ID, id)
	}
	return ev.ID, nil
}
