package scan

import (
	"strconv"
	"strings"

	"xmdedit/internal/xmd/attr"
)

func isCellDelimiter(s string) bool {
	t := strings.TrimSpace(s)
	return t == "|||" || t == "---"
}

// parseGrid classifies f as a grid when its header carries a numeric cols
// attribute. figs are all figure tokens of the document in order; the grid
// claims the ones inside its body.
func parseGrid(f rawFence, lines []line, figs []*Figure) (*Grid, bool) {
	colsRaw, ok := attr.ParseAttr(f.headerAttrs, "cols")
	if !ok {
		return nil, false
	}
	cols, err := strconv.Atoi(strings.TrimSpace(colsRaw))
	if err != nil || cols < 1 {
		return nil, false
	}

	g := &Grid{
		Span:        f.span,
		Columns:     cols,
		HeaderAttrs: f.headerAttrs,
	}
	g.Caption, _ = attr.ParseAttr(f.headerAttrs, "caption")
	g.Align, _ = attr.ParseAttr(f.headerAttrs, "align")
	g.Placement, _ = attr.ParseAttr(f.headerAttrs, "placement")
	g.Margin, _ = attr.ParseAttr(f.headerAttrs, "margin")
	g.BorderStyle, _ = attr.ParseAttr(f.headerAttrs, "borderStyle")
	g.BorderColor, _ = attr.ParseAttr(f.headerAttrs, "borderColor")
	if w, ok := attr.ParseAttr(f.headerAttrs, "borderWidth"); ok {
		g.BorderWidth, _ = strconv.Atoi(strings.TrimSpace(w))
	}

	// Split the body into cell segments at ||| / --- delimiter lines.
	type segment struct{ from, to int }
	var segs []segment
	segStart := -1
	for i := f.bodyFrom; i < f.bodyTo; i++ {
		if isCellDelimiter(lines[i].text) {
			if segStart < 0 {
				segStart = lines[f.bodyFrom].from
			}
			segs = append(segs, segment{from: segStart, to: lines[i].from})
			segStart = lines[i].next
		}
	}
	if f.bodyTo > f.bodyFrom {
		if segStart < 0 {
			segStart = lines[f.bodyFrom].from
		}
		segs = append(segs, segment{from: segStart, to: lines[f.bodyTo-1].next})
	}

	var inner []*Figure
	for _, fig := range figs {
		if f.span.Contains(fig.Span) {
			inner = append(inner, fig)
		}
	}

	if len(inner) > len(segs) {
		// Irregular delimiters: fall back to sequential left-to-right,
		// top-to-bottom assignment of every figure found.
		g.Cells = append(g.Cells, inner...)
	} else {
		next := 0
		for _, seg := range segs {
			var cell *Figure
			for next < len(inner) && inner[next].Span.From < seg.from {
				next++
			}
			if next < len(inner) && inner[next].Span.To <= seg.to {
				cell = inner[next]
				next++
			}
			g.Cells = append(g.Cells, cell)
		}
	}

	// Pad the final row so the cell count is a multiple of the column
	// count.
	for len(g.Cells)%cols != 0 {
		g.Cells = append(g.Cells, nil)
	}
	return g, true
}
