package session

import (
	"context"
	"errors"
	"testing"

	"xmdedit/internal/docstore"
)

func TestManagerOpenSharesOneSession(t *testing.T) {
	ctx := context.Background()
	docs := docstore.New()
	if err := docs.Put(ctx, "doc-1", "hello"); err != nil {
		t.Fatalf("put: %v", err)
	}
	m := NewManager(docs)

	a, err := m.Open(ctx, "doc-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, err := m.Open(ctx, "doc-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if a != b {
		t.Fatal("expected the same live session for both opens")
	}

	if err := a.ReplaceSpan(0, 5, "howdy"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := b.Text(); got != "howdy" {
		t.Fatalf("second handle sees %q", got)
	}
}

func TestManagerOpenMissing(t *testing.T) {
	m := NewManager(docstore.New())
	if _, err := m.Open(context.Background(), "nope"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestManagerSaveRoundTrips(t *testing.T) {
	ctx := context.Background()
	docs := docstore.New()
	if err := docs.Put(ctx, "doc-1", "before"); err != nil {
		t.Fatalf("put: %v", err)
	}
	m := NewManager(docs)

	s, err := m.Open(ctx, "doc-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.ReplaceSpan(0, 6, "after"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := m.Save(ctx, "doc-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	body, err := docs.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if body != "after" {
		t.Fatalf("store holds %q", body)
	}

	// Close drops the live session; reopening loads the saved text.
	m.Close("doc-1")
	s2, err := m.Open(ctx, "doc-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s2 == s {
		t.Fatal("expected a fresh session after close")
	}
	if got := s2.Text(); got != "after" {
		t.Fatalf("reloaded text %q", got)
	}
}
