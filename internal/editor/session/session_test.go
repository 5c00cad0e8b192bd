package session

import (
	"errors"
	"testing"

	"xmdedit/internal/editor/decor"
)

func TestReplaceSpanRemapsToggles(t *testing.T) {
	fig := "![Cap](asset-key://c)"
	s := New("intro " + fig)
	figFrom := len("intro ")
	if err := s.Toggle(figFrom, figFrom+len(fig)); err != nil {
		t.Fatal(err)
	}

	// The toggled figure renders as raw text with a pill.
	decs := s.Decorations()
	if len(decs) != 1 || decs[0].Kind != decor.KindTogglePill {
		t.Fatalf("decorations = %+v", decs)
	}

	// Inserting before the figure shifts the toggle with the text.
	if err := s.ReplaceSpan(0, 0, "xx"); err != nil {
		t.Fatal(err)
	}
	decs = s.Decorations()
	if len(decs) != 1 || decs[0].Kind != decor.KindTogglePill {
		t.Fatalf("decorations after insert = %+v", decs)
	}
	if decs[0].From != figFrom+2 {
		t.Fatalf("pill at %d, want %d", decs[0].From, figFrom+2)
	}

	// Deleting the figure entirely drops the toggle.
	if err := s.ReplaceSpan(figFrom+2, figFrom+2+len(fig), ""); err != nil {
		t.Fatal(err)
	}
	if decs := s.Decorations(); len(decs) != 0 {
		t.Fatalf("decorations after delete = %+v", decs)
	}
}

func TestToggleTwiceRestoresWidget(t *testing.T) {
	fig := "![Cap](asset-key://c)"
	s := New(fig)
	_ = s.Toggle(0, len(fig))
	_ = s.Toggle(0, len(fig))
	decs := s.Decorations()
	if len(decs) != 1 || decs[0].Kind != decor.KindWidget {
		t.Fatalf("decorations = %+v", decs)
	}
}

func TestReplaceSpanIfMatchStaleAnchor(t *testing.T) {
	s := New("abcdef")
	if err := s.ReplaceSpanIfMatch(1, 4, "bcd", "XYZ"); err != nil {
		t.Fatal(err)
	}
	if s.Text() != "aXYZef" {
		t.Fatalf("text = %q", s.Text())
	}
	err := s.ReplaceSpanIfMatch(1, 4, "bcd", "nope")
	if !errors.Is(err, ErrAnchorMismatch) {
		t.Fatalf("err = %v, want ErrAnchorMismatch", err)
	}
	if s.Text() != "aXYZef" {
		t.Fatalf("mismatched apply must not mutate, text = %q", s.Text())
	}
}

func TestReplaceSpanBounds(t *testing.T) {
	s := New("abc")
	for _, span := range [][2]int{{-1, 2}, {2, 1}, {0, 4}} {
		if err := s.ReplaceSpan(span[0], span[1], "x"); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("span %v: err = %v, want ErrOutOfBounds", span, err)
		}
	}
	if s.Rev() != 0 {
		t.Fatalf("rev = %d after rejected mutations", s.Rev())
	}
}
