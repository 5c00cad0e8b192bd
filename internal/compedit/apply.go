package compedit

import (
	"errors"
	"fmt"

	"xmdedit/internal/editor/session"
)

// ErrStaleAnchor means the original span text changed between propose and
// apply; the caller must re-propose against the current text.
var ErrStaleAnchor = errors.New("compedit: stale anchor")

// Document is the mutation surface Apply needs. *session.Session satisfies
// it; the combined compare-and-replace keeps the anchor check and the write
// atomic.
type Document interface {
	ReplaceSpanIfMatch(from, to int, expected, replacement string) error
}

// Apply performs the final substitution of an accepted edit: it re-checks
// that the live text at [from, to) still equals expected and replaces it
// atomically. It never writes over unexpected content.
func Apply(doc Document, from, to int, expected, replacement string) error {
	err := doc.ReplaceSpanIfMatch(from, to, expected, replacement)
	// A span that shrank out of bounds cannot hold the expected text
	// either; both cases are the same staleness to the caller.
	if errors.Is(err, session.ErrAnchorMismatch) || errors.Is(err, session.ErrOutOfBounds) {
		return fmt.Errorf("%w: span [%d, %d)", ErrStaleAnchor, from, to)
	}
	return err
}
