package docstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryPutGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, "doc-1", "# Title\n\n![fig](data:image/png;base64,AAA)\n"); err != nil {
		t.Fatalf("put: %v", err)
	}
	body, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if body == "" || body[0] != '#' {
		t.Fatalf("unexpected body %q", body)
	}

	if err := s.Put(ctx, "doc-1", "replaced"); err != nil {
		t.Fatalf("put overwrite: %v", err)
	}
	body, err = s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if body != "replaced" {
		t.Fatalf("overwrite not applied, got %q", body)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryPutRequiresID(t *testing.T) {
	s := New()
	if err := s.Put(context.Background(), "  ", "body"); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestMemoryDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Put(ctx, "doc-1", "body"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("delete missing should be a no-op, got %v", err)
	}
}

func TestNewFromEnvEmptyDSNFallsBackToMemory(t *testing.T) {
	s := NewFromEnv("")
	if s.db != nil {
		t.Fatal("expected memory backend for empty DSN")
	}
}
