// Package session owns one open document: the XMD text buffer plus its
// render-toggle ledger. All mutation runs under one lock in mutation order,
// which is the whole concurrency model — decorations and block structure are
// re-derived from the text, never patched.
package session

import (
	"errors"
	"fmt"
	"sync"

	"xmdedit/internal/editor/decor"
	"xmdedit/internal/editor/ledger"
)

var (
	ErrOutOfBounds = errors.New("session: span out of bounds")
	// ErrAnchorMismatch means the live text at the span no longer equals
	// what the caller last saw there.
	ErrAnchorMismatch = errors.New("session: span text changed since it was read")
)

// Session is one open document.
type Session struct {
	mu   sync.Mutex
	text string
	led  ledger.Ledger
	// rev counts applied mutations; useful for clients deduplicating
	// pushed decoration sets.
	rev int64
}

func New(text string) *Session {
	return &Session{text: text}
}

// Text returns the current full document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Rev returns the mutation counter.
func (s *Session) Rev() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// SpanText returns the text at [from, to).
func (s *Session) SpanText(from, to int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSpan(from, to); err != nil {
		return "", err
	}
	return s.text[from:to], nil
}

// ReplaceSpan atomically replaces [from, to) with replacement and remaps the
// ledger across the mutation. This is the single mutation primitive exposed
// to the editor shell.
func (s *Session) ReplaceSpan(from, to int, replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(from, to, replacement)
}

// ReplaceSpanIfMatch replaces [from, to) only when the live text there still
// equals expected. It is the anchor-freshness guard for asynchronous edits.
func (s *Session) ReplaceSpanIfMatch(from, to int, expected, replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSpan(from, to); err != nil {
		return err
	}
	if s.text[from:to] != expected {
		return ErrAnchorMismatch
	}
	return s.replaceLocked(from, to, replacement)
}

// Toggle flips the raw-text preference for [from, to).
func (s *Session) Toggle(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSpan(from, to); err != nil {
		return err
	}
	s.led.Toggle(ledger.Range{From: from, To: to})
	return nil
}

// Decorations rebuilds the full decoration set for the current text and
// ledger. This is the single query primitive exposed to the editor shell.
func (s *Session) Decorations() []decor.Decoration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decor.Build(s.text, &s.led)
}

func (s *Session) checkSpan(from, to int) error {
	if from < 0 || to < from || to > len(s.text) {
		return fmt.Errorf("%w: [%d, %d) in %d bytes", ErrOutOfBounds, from, to, len(s.text))
	}
	return nil
}

func (s *Session) replaceLocked(from, to int, replacement string) error {
	if err := s.checkSpan(from, to); err != nil {
		return err
	}
	s.text = s.text[:from] + replacement + s.text[to:]
	s.led.Remap(ledger.Mutation{From: from, To: to, Insert: len(replacement)})
	s.rev++
	return nil
}
