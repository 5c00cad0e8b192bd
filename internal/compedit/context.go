package compedit

import (
	"xmdedit/internal/xmd/scan"
)

// maxConversationTurns bounds the chat history handed to the model. Older
// turns are dropped, not summarized.
const maxConversationTurns = 8

// Turn is one conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FigureContext is the parsed view of one figure token.
type FigureContext struct {
	Caption string `json:"caption"`
	Src     string `json:"src"`
	Attrs   string `json:"attrs,omitempty"`
}

// GridCellContext is one grid cell with its position.
type GridCellContext struct {
	Index   int    `json:"index"`
	Caption string `json:"caption"`
	Src     string `json:"src"`
	Attrs   string `json:"attrs,omitempty"`
}

// GridContext is the parsed view of one grid fence.
type GridContext struct {
	HeaderAttrs string            `json:"headerAttrs"`
	Columns     int               `json:"columns"`
	Cells       []GridCellContext `json:"cells"`
}

// Context is the structured summary of a block handed to the model. It is
// built fresh per request and never persisted.
type Context struct {
	Kind         scan.Kind      `json:"kind"`
	Figure       *FigureContext `json:"figure,omitempty"`
	Grid         *GridContext   `json:"grid,omitempty"`
	Table        *scan.Table    `json:"table,omitempty"`
	Raw          string         `json:"raw,omitempty"`
	Conversation []Turn         `json:"conversation,omitempty"`
}

// BuildContext re-parses the original span text into kind-specific fields,
// falling back to the raw text when it does not parse, and truncates the
// conversation to the most recent turns.
func BuildContext(kind scan.Kind, spanText string, conversation []Turn) Context {
	ctx := Context{Kind: kind}
	if n := len(conversation); n > maxConversationTurns {
		conversation = conversation[n-maxConversationTurns:]
	}
	ctx.Conversation = append(ctx.Conversation, conversation...)

	block, ok := firstBlockOfKind(spanText, kind)
	if !ok {
		ctx.Raw = spanText
		return ctx
	}
	switch kind {
	case scan.KindFigure:
		ctx.Figure = &FigureContext{
			Caption: block.Figure.AltText,
			Src:     block.Figure.SrcRef,
			Attrs:   block.Figure.Attrs,
		}
	case scan.KindGrid:
		g := &GridContext{
			HeaderAttrs: block.Grid.HeaderAttrs,
			Columns:     block.Grid.Columns,
		}
		for i, cell := range block.Grid.Cells {
			if cell == nil {
				continue
			}
			g.Cells = append(g.Cells, GridCellContext{
				Index:   i,
				Caption: cell.AltText,
				Src:     cell.SrcRef,
				Attrs:   cell.Attrs,
			})
		}
		ctx.Grid = g
	case scan.KindXMDTable, scan.KindPipeTable:
		ctx.Table = block.Table
	default:
		ctx.Raw = spanText
	}
	return ctx
}

// firstBlockOfKind scans text and returns its first block of the wanted
// kind.
func firstBlockOfKind(text string, kind scan.Kind) (scan.Block, bool) {
	for _, b := range scan.Scan(text).Blocks {
		if b.Kind == kind {
			return b, true
		}
	}
	return scan.Block{}, false
}
