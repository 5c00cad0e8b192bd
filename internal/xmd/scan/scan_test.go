package scan

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xmdedit/internal/xmd/attr"
)

func kinds(res Result) []Kind {
	var out []Kind
	for _, b := range res.Blocks {
		out = append(out, b.Kind)
	}
	return out
}

func TestScanSingleFigure(t *testing.T) {
	src := `![Cap](data:image/png;base64,AAA){width="50%" align="right"}`
	text := "before\n" + src + "\nafter\n"
	res := Scan(text)

	if diff := cmp.Diff([]Kind{KindFigure}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	fig := res.Blocks[0].Figure
	if fig.AltText != "Cap" {
		t.Errorf("alt = %q", fig.AltText)
	}
	if fig.SrcRef != "data:image/png;base64,AAA" {
		t.Errorf("src = %q", fig.SrcRef)
	}
	if got := text[fig.Span.From:fig.Span.To]; got != src {
		t.Errorf("span text = %q, want %q", got, src)
	}
	if w, _ := attr.ParseAttr(fig.Attrs, "width"); w != "50%" {
		t.Errorf("width attr = %q", w)
	}
}

func TestScanFigureAssetKeySrc(t *testing.T) {
	res := Scan("![x](asset-key://img-42)")
	if len(res.Blocks) != 1 || res.Blocks[0].Kind != KindFigure {
		t.Fatalf("blocks = %+v", res.Blocks)
	}
	if res.Blocks[0].Figure.SrcRef != "asset-key://img-42" {
		t.Fatalf("src = %q", res.Blocks[0].Figure.SrcRef)
	}
}

func TestScanFigureRejectsUnknownSrc(t *testing.T) {
	res := Scan("![x](https://example.com/a.png)")
	if len(res.Blocks) != 0 {
		t.Fatalf("unexpected blocks: %+v", res.Blocks)
	}
}

func TestScanFigureAttrsWithEmbeddedBrace(t *testing.T) {
	text := `![x](asset-key://k){desc="uses {ref:7} token" width="10"}`
	res := Scan(text)
	if len(res.Blocks) != 1 {
		t.Fatalf("blocks = %+v", res.Blocks)
	}
	fig := res.Blocks[0].Figure
	if got := text[fig.Span.From:fig.Span.To]; got != text {
		t.Fatalf("span text = %q", got)
	}
	if d, _ := attr.ParseAttr(fig.Attrs, "desc"); d != "uses {ref:7} token" {
		t.Fatalf("desc = %q", d)
	}
}

func TestScanGridTwoCells(t *testing.T) {
	text := "::: cols=2\n![a](data:image/png;base64,AA)\n---\n![b](data:image/png;base64,BB)\n:::"
	res := Scan(text)

	if diff := cmp.Diff([]Kind{KindGrid}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	g := res.Blocks[0].Grid
	if g.Columns != 2 {
		t.Fatalf("columns = %d", g.Columns)
	}
	if len(g.Cells) != 2 || g.Cells[0] == nil || g.Cells[1] == nil {
		t.Fatalf("cells = %+v", g.Cells)
	}
	if g.Cells[0].AltText != "a" || g.Cells[1].AltText != "b" {
		t.Fatalf("cell alts = %q, %q", g.Cells[0].AltText, g.Cells[1].AltText)
	}
	for i, c := range g.Cells {
		if !g.Span.Contains(c.Span) {
			t.Errorf("cell %d span %+v not inside grid span %+v", i, c.Span, g.Span)
		}
	}
}

func TestScanGridPadsFinalRow(t *testing.T) {
	text := strings.Join([]string{
		"::: cols=2",
		"![a](asset-key://a)",
		"|||",
		"![b](asset-key://b)",
		"|||",
		"![c](asset-key://c)",
		":::",
	}, "\n")
	g := Scan(text).Blocks[0].Grid
	if len(g.Cells) != 4 {
		t.Fatalf("cells = %d, want 4", len(g.Cells))
	}
	if g.Cells[3] != nil {
		t.Fatalf("trailing cell should be nil padding")
	}
	if len(g.Cells)%g.Columns != 0 {
		t.Fatalf("cell count %d not a multiple of %d", len(g.Cells), g.Columns)
	}
}

func TestScanGridFallbackSequentialAssignment(t *testing.T) {
	// Three figures but only two segments: delimiters are irregular, so
	// every figure is assigned left-to-right, top-to-bottom.
	text := strings.Join([]string{
		"::: cols=2",
		"![a](asset-key://a)",
		"![b](asset-key://b)",
		"|||",
		"![c](asset-key://c)",
		":::",
	}, "\n")
	g := Scan(text).Blocks[0].Grid
	if len(g.Cells) != 4 {
		t.Fatalf("cells = %d, want 4", len(g.Cells))
	}
	for i, want := range []string{"a", "b", "c"} {
		if g.Cells[i] == nil || g.Cells[i].AltText != want {
			t.Fatalf("cell %d = %+v, want alt %q", i, g.Cells[i], want)
		}
	}
	if g.Cells[3] != nil {
		t.Fatalf("cell 3 should be nil padding")
	}
}

func TestScanGridHeaderAttributes(t *testing.T) {
	text := "::: cols=3 caption=\"Gallery\" placement=inline margin=small borderStyle=dashed borderWidth=2\n:::"
	g := Scan(text).Blocks[0].Grid
	if g.Caption != "Gallery" || g.Placement != "inline" || g.Margin != "small" ||
		g.BorderStyle != "dashed" || g.BorderWidth != 2 {
		t.Fatalf("grid fields = %+v", g)
	}
}

func TestScanGridNonNumericColsIsOpaque(t *testing.T) {
	text := "::: cols=abc\n![a](asset-key://a)\n:::"
	res := Scan(text)
	if len(res.Blocks) != 0 {
		t.Fatalf("unexpected blocks: %+v", res.Blocks)
	}
	if len(res.Fences) != 1 || res.Fences[0].Kind != FenceOpaque {
		t.Fatalf("fences = %+v", res.Fences)
	}
}

func TestScanXMDTable(t *testing.T) {
	text := strings.Join([]string{
		`::: caption="Results" label="tbl:r" borderStyle=solid`,
		"|L|C|R|",
		"|name|count|share|",
		"=",
		"|alpha|3|10%|",
		"|beta|5|90%|",
		":::",
	}, "\n")
	res := Scan(text)
	if diff := cmp.Diff([]Kind{KindXMDTable}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	tb := res.Blocks[0].Table
	if diff := cmp.Diff([]string{"name", "count", "share"}, tb.Header); diff != "" {
		t.Errorf("header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"alpha", "3", "10%"}, {"beta", "5", "90%"}}, tb.Rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Alignment{AlignLeft, AlignCenter, AlignRight}, tb.Aligns); diff != "" {
		t.Errorf("aligns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]RuleStyle{RuleSingle, RuleSingle, RuleSingle, RuleSingle}, tb.VRules); diff != "" {
		t.Errorf("vrules (-want +got):\n%s", diff)
	}
	// "=" sits between header (row 0) and the first body row.
	if tb.HRules[1] != RuleDouble {
		t.Errorf("hrules = %+v", tb.HRules)
	}
	if tb.Caption != "Results" || tb.Label != "tbl:r" || tb.BorderStyle != "solid" {
		t.Errorf("attrs = %+v", tb)
	}
}

func TestScanXMDTableColumnSpecRuleWeights(t *testing.T) {
	aligns, vrules, ok := parseColumnSpec("||L|Cr||")
	if !ok {
		t.Fatal("column spec rejected")
	}
	if diff := cmp.Diff([]Alignment{AlignLeft, AlignCenter, AlignRight}, aligns); diff != "" {
		t.Errorf("aligns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]RuleStyle{RuleDouble, RuleSingle, RuleNone, RuleDouble}, vrules); diff != "" {
		t.Errorf("vrules (-want +got):\n%s", diff)
	}
}

func TestScanXMDTableClassicSeparatorEndsHeader(t *testing.T) {
	text := strings.Join([]string{
		":::",
		"|L|R|",
		"|h1|h2|",
		"|---|---|",
		"|a|b|",
		":::",
	}, "\n")
	res := Scan(text)
	if diff := cmp.Diff([]Kind{KindXMDTable}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	tb := res.Blocks[0].Table
	if diff := cmp.Diff([]string{"h1", "h2"}, tb.Header); diff != "" {
		t.Errorf("header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"a", "b"}}, tb.Rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
}

func TestScanXMDTableWithAttrlessOpen(t *testing.T) {
	text := strings.Join([]string{
		`::: label="t"`,
		"|L|R|",
		"|h1|h2|",
		"|---|---|",
		"|a|b|",
		":::",
	}, "\n")
	tb := Scan(text).Blocks[0].Table
	if diff := cmp.Diff([]string{"h1", "h2"}, tb.Header); diff != "" {
		t.Fatalf("header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"a", "b"}}, tb.Rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
}

func TestScanInvalidColumnSpecLeavesFenceOpaque(t *testing.T) {
	text := strings.Join([]string{
		`::: caption="broken"`,
		"|L|X|",
		"![fig](asset-key://f)",
		"|a|b|",
		"|---|---|",
		"|1|2|",
		":::",
	}, "\n")
	res := Scan(text)
	if len(res.Blocks) != 0 {
		t.Fatalf("opaque fence must suppress all inner blocks, got %+v", res.Blocks)
	}
	if len(res.Fences) != 1 || res.Fences[0].Kind != FenceOpaque {
		t.Fatalf("fences = %+v", res.Fences)
	}
}

func TestScanUnterminatedFenceStaysPlainText(t *testing.T) {
	text := "::: cols=2\n![a](asset-key://a)\n"
	res := Scan(text)
	if len(res.Fences) != 0 {
		t.Fatalf("unterminated fence reported: %+v", res.Fences)
	}
	if diff := cmp.Diff([]Kind{KindFigure}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestScanPipeTable(t *testing.T) {
	text := "intro\n|a|b|\n|---|:---:|\n|1|2|\n|3|4|\ntail\n"
	res := Scan(text)
	if diff := cmp.Diff([]Kind{KindPipeTable}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	tb := res.Blocks[0].Table
	if diff := cmp.Diff([]Alignment{AlignLeft, AlignCenter}, tb.Aligns); diff != "" {
		t.Errorf("aligns (-want +got):\n%s", diff)
	}
	if len(tb.Rows) != 2 {
		t.Errorf("rows = %+v", tb.Rows)
	}
	if got := text[tb.Span.From:tb.Span.To]; !strings.HasPrefix(got, "|a|b|") || !strings.HasSuffix(got, "|3|4|") {
		t.Errorf("span text = %q", got)
	}
}

func TestScanPipeTableEndsWhenRowArityDiverges(t *testing.T) {
	text := "|a|b|\n|---|---|\n|1|2|\n|x|y|z|w|\n"
	res := Scan(text)
	if diff := cmp.Diff([]Kind{KindPipeTable}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	tb := res.Blocks[0].Table
	if len(tb.Rows) != 1 {
		t.Fatalf("rows = %+v", tb.Rows)
	}
	if got := text[tb.Span.From:tb.Span.To]; strings.Contains(got, "|x|") {
		t.Fatalf("four-column row swallowed into span %q", got)
	}
}

func TestScanPipeTableSeparatorArityMustMatchHeader(t *testing.T) {
	res := Scan("|a|b|\n|---|---|---|\n|1|2|\n")
	if len(res.Blocks) != 0 {
		t.Fatalf("separator wider than header accepted: %+v", res.Blocks)
	}
}

func TestScanPipeTableSeparatorNeedsThreeDashes(t *testing.T) {
	// `:--:` has only two dashes; the separator cell grammar is :?-{3,}:?.
	res := Scan("|a|b|\n|---|:--:|\n|1|2|\n")
	if len(res.Blocks) != 0 {
		t.Fatalf("short separator cell accepted: %+v", res.Blocks)
	}
}

func TestScanPipeTableNeverInsideFence(t *testing.T) {
	text := "::: note\n|a|b|\n|---|---|\n|1|2|\n:::"
	res := Scan(text)
	if len(res.Blocks) != 0 {
		t.Fatalf("pipe table recognized inside fence: %+v", res.Blocks)
	}
}

func TestScanTopLevelSpansNeverOverlap(t *testing.T) {
	text := strings.Join([]string{
		"# doc",
		`![solo](asset-key://s){width="10"}`,
		"",
		"::: cols=2",
		"![a](asset-key://a)",
		"|||",
		"![b](asset-key://b)",
		":::",
		"",
		"|h1|h2|",
		"|---|---|",
		"|1|2|",
		"",
		`::: caption="t"`,
		"|L|R|",
		"|x|y|",
		":::",
	}, "\n")
	res := Scan(text)
	if diff := cmp.Diff([]Kind{KindFigure, KindGrid, KindPipeTable, KindXMDTable}, kinds(res)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(res.Blocks); i++ {
		a, b := res.Blocks[i-1], res.Blocks[i]
		if a.Span.Overlaps(b.Span) {
			t.Fatalf("blocks %d and %d overlap: %+v %+v", i-1, i, a.Span, b.Span)
		}
	}
	// The grid's figures are reported once, as its cells only.
	for _, b := range res.Blocks {
		if b.Kind == KindFigure && (b.Figure.AltText == "a" || b.Figure.AltText == "b") {
			t.Fatalf("grid cell reported standalone: %+v", b)
		}
	}
}
