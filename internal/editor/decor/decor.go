// Package decor turns a scan result and the render-toggle ledger into the
// complete decoration set for a view. Build is a pure function of
// (text, ledger); it owns no state and touches no widgets.
package decor

import (
	"xmdedit/internal/editor/ledger"
	"xmdedit/internal/xmd/attr"
	"xmdedit/internal/xmd/scan"
)

// Kind is the instruction a decoration carries.
type Kind string

const (
	// KindWidget replaces the block's span with a rendered widget.
	KindWidget Kind = "widget"
	// KindTogglePill leaves the source text visible and places a small
	// "render this" pill at the block's start.
	KindTogglePill Kind = "togglePill"
)

// Decoration is one view instruction. Pills are zero-width markers at From;
// widgets cover [From, To).
type Decoration struct {
	From int
	To   int
	Kind Kind
	// Inline marks flow-compatible layout, from the block's placement
	// hint. The preview renderer decides what that means visually.
	Inline bool
	Block  scan.Block
}

// Build scans text and combines the result with the ledger into the next
// decoration set. Blocks intersecting a toggled range keep their raw text
// and get a pill; everything else becomes a widget. Opaque fences are
// already excluded by the scanner, so nothing inside a malformed fence can
// be decorated here.
func Build(text string, led *ledger.Ledger) []Decoration {
	res := scan.Scan(text)
	decorations := make([]Decoration, 0, len(res.Blocks))
	for _, b := range res.Blocks {
		if led != nil && led.OverlapsAny(b.Span.From, b.Span.To) {
			decorations = append(decorations, Decoration{
				From:  b.Span.From,
				To:    b.Span.From,
				Kind:  KindTogglePill,
				Block: b,
			})
			continue
		}
		decorations = append(decorations, Decoration{
			From:   b.Span.From,
			To:     b.Span.To,
			Kind:   KindWidget,
			Inline: isInline(b),
			Block:  b,
		})
	}
	return decorations
}

// isInline threads the placement hint through; "inline" renders as a
// flow-compatible decoration, everything else as a block decoration.
func isInline(b scan.Block) bool {
	switch b.Kind {
	case scan.KindFigure:
		p, _ := attr.ParseAttr(b.Figure.Attrs, "placement")
		return p == "inline"
	case scan.KindGrid:
		return b.Grid.Placement == "inline"
	}
	return false
}
