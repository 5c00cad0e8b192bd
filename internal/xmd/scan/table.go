package scan

import (
	"strconv"
	"strings"

	"xmdedit/internal/xmd/attr"
)

// isSeparatorCell matches one cell of a classic markdown separator row:
// :?-{3,}:? with optional surrounding whitespace.
func isSeparatorCell(cell string) bool {
	t := strings.TrimSpace(cell)
	t = strings.TrimPrefix(t, ":")
	t = strings.TrimSuffix(t, ":")
	if len(t) < 3 {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != '-' {
			return false
		}
	}
	return true
}

func ruleFromPipeCount(n int) RuleStyle {
	switch {
	case n <= 0:
		return RuleNone
	case n == 1:
		return RuleSingle
	default:
		return RuleDouble
	}
}

// parseColumnSpec parses a column-spec line such as "|L|C|R|" into per-column
// alignments and per-boundary vertical rules. ok is false when the line is
// not a column spec.
func parseColumnSpec(s string) (aligns []Alignment, vrules []RuleStyle, ok bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil, nil, false
	}
	pipes := 0
	for i := 0; i < len(t); i++ {
		switch c := t[i]; c {
		case '|':
			pipes++
		case 'l', 'L':
			aligns = append(aligns, AlignLeft)
			vrules = append(vrules, ruleFromPipeCount(pipes))
			pipes = 0
		case 'c', 'C':
			aligns = append(aligns, AlignCenter)
			vrules = append(vrules, ruleFromPipeCount(pipes))
			pipes = 0
		case 'r', 'R':
			aligns = append(aligns, AlignRight)
			vrules = append(vrules, ruleFromPipeCount(pipes))
			pipes = 0
		default:
			return nil, nil, false
		}
	}
	if len(aligns) == 0 {
		return nil, nil, false
	}
	vrules = append(vrules, ruleFromPipeCount(pipes))
	return aligns, vrules, true
}

func horizontalRuleMarker(s string) (RuleStyle, bool) {
	switch strings.TrimSpace(s) {
	case ".":
		return RuleNone, true
	case "-":
		return RuleSingle, true
	case "=":
		return RuleDouble, true
	}
	return "", false
}

// splitPipeRow splits a pipe-delimited row into trimmed cells, dropping the
// empty edge cells produced by leading/trailing pipes.
func splitPipeRow(s string) []string {
	t := strings.TrimSpace(s)
	cells := strings.Split(t, "|")
	if len(cells) > 0 && strings.TrimSpace(cells[0]) == "" && strings.HasPrefix(t, "|") {
		cells = cells[1:]
	}
	if len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" && strings.HasSuffix(t, "|") {
		cells = cells[:len(cells)-1]
	}
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isClassicSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !isSeparatorCell(c) {
			return false
		}
	}
	return true
}

// parseXMDTable classifies f as an attributed table fence. The first
// non-blank body line must be a column spec; otherwise this is not a table.
func parseXMDTable(f rawFence, lines []line) (*Table, bool) {
	t := &Table{Span: f.span}
	t.Caption, _ = attr.ParseAttr(f.headerAttrs, "caption")
	t.Label, _ = attr.ParseAttr(f.headerAttrs, "label")
	t.BorderStyle, _ = attr.ParseAttr(f.headerAttrs, "borderStyle")
	t.BorderColor, _ = attr.ParseAttr(f.headerAttrs, "borderColor")
	if w, ok := attr.ParseAttr(f.headerAttrs, "borderWidth"); ok {
		t.BorderWidth, _ = strconv.Atoi(strings.TrimSpace(w))
	}

	i := f.bodyFrom
	for i < f.bodyTo && strings.TrimSpace(lines[i].text) == "" {
		i++
	}
	if i >= f.bodyTo {
		return nil, false
	}
	aligns, vrules, ok := parseColumnSpec(lines[i].text)
	if !ok {
		return nil, false
	}
	t.Aligns = aligns
	t.VRules = vrules
	i++

	var rows [][]string
	boundaryRules := map[int]RuleStyle{}
	pending := RuleNone
	pendingSet := false
	headerDone := false
	for ; i < f.bodyTo; i++ {
		text := lines[i].text
		if strings.TrimSpace(text) == "" {
			continue
		}
		if rule, ok := horizontalRuleMarker(text); ok {
			pending = rule
			pendingSet = true
			continue
		}
		cells := splitPipeRow(text)
		if len(rows) == 1 && !headerDone && isClassicSeparatorRow(cells) {
			// Optional classic markdown separator closing the header.
			headerDone = true
			continue
		}
		if pendingSet {
			boundaryRules[len(rows)] = pending
			pendingSet = false
		}
		rows = append(rows, cells)
	}
	if pendingSet {
		boundaryRules[len(rows)] = pending
	}

	if len(rows) > 0 {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	t.HRules = make([]RuleStyle, len(rows)+1)
	for b := range t.HRules {
		t.HRules[b] = RuleNone
	}
	for b, r := range boundaryRules {
		if b < len(t.HRules) {
			t.HRules[b] = r
		}
	}
	return t, true
}

// scanPipeTables finds classic pipe tables in the lines that are not covered
// by any closed fence. inFence reports whether a byte offset lies inside a
// fence span.
func scanPipeTables(lines []line, inFence func(int) bool) []*Table {
	var tables []*Table
	i := 0
	for i < len(lines) {
		if inFence(lines[i].from) {
			i++
			continue
		}
		header := splitPipeRow(lines[i].text)
		if len(header) < 2 || !strings.Contains(lines[i].text, "|") {
			i++
			continue
		}
		if i+1 >= len(lines) || inFence(lines[i+1].from) {
			i++
			continue
		}
		sep := splitPipeRow(lines[i+1].text)
		if len(sep) != len(header) || !isClassicSeparatorRow(sep) {
			i++
			continue
		}

		t := &Table{Header: header}
		for _, c := range sep {
			cc := strings.TrimSpace(c)
			switch {
			case strings.HasPrefix(cc, ":") && strings.HasSuffix(cc, ":"):
				t.Aligns = append(t.Aligns, AlignCenter)
			case strings.HasSuffix(cc, ":"):
				t.Aligns = append(t.Aligns, AlignRight)
			default:
				t.Aligns = append(t.Aligns, AlignLeft)
			}
		}

		last := i + 1
		for j := i + 2; j < len(lines); j++ {
			if inFence(lines[j].from) || !strings.Contains(lines[j].text, "|") {
				break
			}
			cells := splitPipeRow(lines[j].text)
			// Data rows share the header's column arity; a row of a
			// different width ends the table.
			if len(cells) != len(header) {
				break
			}
			t.Rows = append(t.Rows, cells)
			last = j
		}
		t.Span = Span{From: lines[i].from, To: lines[last].to}
		tables = append(tables, t)
		i = last + 1
	}
	return tables
}
