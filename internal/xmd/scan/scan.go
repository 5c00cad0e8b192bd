package scan

import (
	"sort"

	"xmdedit/internal/xmd/attr"
)

// Scan re-derives every embedded block in text. It is a pure function of the
// text and is re-run in full after each mutation.
//
// Precedence is fixed: attributed table fences, then grids, then plain pipe
// tables, then figures. A later family never claims bytes already claimed by
// an earlier one, so top-level spans cannot overlap.
func Scan(text string) Result {
	lines := splitLines(text)
	figs := findFigures(text)

	var res Result
	for _, f := range scanFences(lines) {
		if _, hasCols := attr.ParseAttr(f.headerAttrs, "cols"); hasCols {
			// cols= rules the fence out as a table. A grid needs it
			// numeric; anything else leaves the fence opaque.
			if g, ok := parseGrid(f, lines, figs); ok {
				res.Fences = append(res.Fences, Fence{Span: f.span, Kind: FenceGrid, HeaderAttrs: f.headerAttrs})
				res.Blocks = append(res.Blocks, Block{Kind: KindGrid, Span: f.span, Grid: g})
				continue
			}
			res.Fences = append(res.Fences, Fence{Span: f.span, Kind: FenceOpaque, HeaderAttrs: f.headerAttrs})
			continue
		}
		if t, ok := parseXMDTable(f, lines); ok {
			res.Fences = append(res.Fences, Fence{Span: f.span, Kind: FenceTable, HeaderAttrs: f.headerAttrs})
			res.Blocks = append(res.Blocks, Block{Kind: KindXMDTable, Span: f.span, Table: t})
			continue
		}
		res.Fences = append(res.Fences, Fence{Span: f.span, Kind: FenceOpaque, HeaderAttrs: f.headerAttrs})
	}

	inFence := func(off int) bool {
		for _, f := range res.Fences {
			if off >= f.Span.From && off < f.Span.To {
				return true
			}
		}
		return false
	}

	var tableSpans []Span
	for _, t := range scanPipeTables(lines, inFence) {
		tableSpans = append(tableSpans, t.Span)
		res.Blocks = append(res.Blocks, Block{Kind: KindPipeTable, Span: t.Span, Table: t})
	}

	// Standalone figures: everything inside any closed fence is either a
	// grid cell (reported through the grid) or suppressed outright, and a
	// figure-shaped token inside a pipe table stays table text.
	for _, fig := range figs {
		if inFence(fig.Span.From) {
			continue
		}
		claimed := false
		for _, ts := range tableSpans {
			if ts.Overlaps(fig.Span) {
				claimed = true
				break
			}
		}
		if claimed {
			continue
		}
		res.Blocks = append(res.Blocks, Block{Kind: KindFigure, Span: fig.Span, Figure: fig})
	}

	sort.Slice(res.Blocks, func(i, j int) bool {
		return res.Blocks[i].Span.From < res.Blocks[j].Span.From
	})
	return res
}
