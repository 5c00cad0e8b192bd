package decor

import (
	"strings"
	"testing"

	"xmdedit/internal/editor/ledger"
	"xmdedit/internal/xmd/scan"
)

func TestBuildFigureWidgetIsBlockLevel(t *testing.T) {
	text := `![Cap](data:image/png;base64,AAA){width="50%" align="right"}`
	decs := Build(text, &ledger.Ledger{})
	if len(decs) != 1 {
		t.Fatalf("decorations = %+v", decs)
	}
	d := decs[0]
	if d.Kind != KindWidget || d.Inline {
		t.Fatalf("want block-level widget, got %+v", d)
	}
	if d.From != 0 || d.To != len(text) {
		t.Fatalf("span = [%d, %d)", d.From, d.To)
	}
}

func TestBuildInlinePlacement(t *testing.T) {
	text := `![i](asset-key://i){placement="inline"} and ![b](asset-key://b)`
	decs := Build(text, &ledger.Ledger{})
	if len(decs) != 2 {
		t.Fatalf("decorations = %+v", decs)
	}
	if !decs[0].Inline {
		t.Errorf("first figure should be inline: %+v", decs[0])
	}
	if decs[1].Inline {
		t.Errorf("second figure should be block: %+v", decs[1])
	}
}

func TestBuildToggledBlockGetsPill(t *testing.T) {
	text := "intro\n![Cap](asset-key://c)\n"
	var led ledger.Ledger
	led.Toggle(ledger.Range{From: 6, To: 6 + len("![Cap](asset-key://c)")})

	decs := Build(text, &led)
	if len(decs) != 1 {
		t.Fatalf("decorations = %+v", decs)
	}
	d := decs[0]
	if d.Kind != KindTogglePill {
		t.Fatalf("want pill, got %+v", d)
	}
	if d.From != 6 || d.To != 6 {
		t.Fatalf("pill must be a zero-width marker at block start, got [%d, %d)", d.From, d.To)
	}
}

func TestBuildPartialToggleOverlapStillPills(t *testing.T) {
	text := "![Cap](asset-key://c)"
	var led ledger.Ledger
	led.Toggle(ledger.Range{From: 3, To: 5})
	decs := Build(text, &led)
	if len(decs) != 1 || decs[0].Kind != KindTogglePill {
		t.Fatalf("decorations = %+v", decs)
	}
}

func TestBuildOpaqueFenceDecoratesNothingInside(t *testing.T) {
	text := strings.Join([]string{
		"::: cols=oops",
		"![a](asset-key://a)",
		"|h1|h2|",
		"|---|---|",
		"|1|2|",
		":::",
	}, "\n")
	decs := Build(text, &ledger.Ledger{})
	if len(decs) != 0 {
		t.Fatalf("opaque fence leaked decorations: %+v", decs)
	}
}

func TestBuildGridCellsNeverDecoratedIndependently(t *testing.T) {
	text := "::: cols=2\n![a](asset-key://a)\n|||\n![b](asset-key://b)\n:::"
	decs := Build(text, &ledger.Ledger{})
	if len(decs) != 1 || decs[0].Block.Kind != scan.KindGrid {
		t.Fatalf("decorations = %+v", decs)
	}
}

func TestBuildDecorationsNeverOverlap(t *testing.T) {
	text := strings.Join([]string{
		`![solo](asset-key://s)`,
		"::: cols=1",
		"![a](asset-key://a)",
		":::",
		"|h1|h2|",
		"|---|---|",
		"|1|2|",
	}, "\n")
	decs := Build(text, &ledger.Ledger{})
	for i := 1; i < len(decs); i++ {
		if decs[i-1].To > decs[i].From {
			t.Fatalf("decorations %d and %d overlap: %+v %+v", i-1, i, decs[i-1], decs[i])
		}
	}
	if len(decs) != 3 {
		t.Fatalf("decorations = %+v", decs)
	}
}
