// Package scan recovers the structured blocks embedded in an XMD document —
// figures, image grids, pipe tables, and attributed table fences — together
// with their exact byte spans. Nothing here is persisted: the scan is rebuilt
// from the full text after every mutation.
package scan

// Kind identifies a block family.
type Kind string

const (
	KindFigure    Kind = "figure"
	KindGrid      Kind = "grid"
	KindPipeTable Kind = "pipeTable"
	KindXMDTable  Kind = "xmdTable"
)

// Span is a half-open byte range [From, To) into the scanned text.
type Span struct {
	From int
	To   int
}

// Overlaps reports whether the two half-open spans intersect.
func (s Span) Overlaps(o Span) bool {
	return s.From < o.To && o.From < s.To
}

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool {
	return s.From <= o.From && o.To <= s.To
}

// Alignment is a per-column or per-block horizontal alignment.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// RuleStyle is the weight of a table rule.
type RuleStyle string

const (
	RuleNone   RuleStyle = "none"
	RuleSingle RuleStyle = "single"
	RuleDouble RuleStyle = "double"
)

// Figure is one image token: ![alt](src){attrs}.
type Figure struct {
	Span    Span
	AltText string
	// SrcRef is the opaque source reference: either a data: URI or an
	// asset-key:// token. It is copied, never interpreted.
	SrcRef string
	// Attrs is the raw attribute text between the braces, "" when the
	// token has no attribute block.
	Attrs string
}

// Grid is a ::: cols=N fence of figure cells.
type Grid struct {
	Span        Span
	Columns     int
	HeaderAttrs string
	Caption     string
	Align       string
	Placement   string
	Margin      string
	BorderStyle string
	BorderColor string
	BorderWidth int
	// Cells is row-major with len(Cells) % Columns == 0; slots with no
	// figure are nil.
	Cells []*Figure
}

// Table is either an attributed ::: table fence or a plain pipe table.
type Table struct {
	Span   Span
	Header []string
	Rows   [][]string
	Aligns []Alignment
	// VRules holds the vertical rule weight at each column boundary,
	// len(Aligns)+1 entries. Only attributed tables carry these.
	VRules []RuleStyle
	// HRules holds the horizontal rule weight at each row boundary,
	// index 0 is above the header; len(Rows)+2 entries.
	HRules      []RuleStyle
	Caption     string
	Label       string
	BorderStyle string
	BorderColor string
	BorderWidth int
}

// Block is one top-level block. Exactly one of Figure, Grid, Table is set,
// matching Kind.
type Block struct {
	Kind   Kind
	Span   Span
	Figure *Figure
	Grid   *Grid
	Table  *Table
}

// FenceKind classifies a closed ::: fence.
type FenceKind string

const (
	FenceGrid  FenceKind = "grid"
	FenceTable FenceKind = "table"
	// FenceOpaque is a closed fence that is neither a valid grid nor a
	// valid table. It is an atomic surface: nothing inside it may be
	// decorated independently.
	FenceOpaque FenceKind = "opaque"
)

// Fence is one closed ::: fence, whatever it turned out to contain.
type Fence struct {
	Span        Span
	Kind        FenceKind
	HeaderAttrs string
}

// Result is one full scan of a document.
type Result struct {
	// Blocks are the top-level blocks in document order; their spans
	// never overlap.
	Blocks []Block
	// Fences lists every closed fence, including opaque ones, for
	// containment queries.
	Fences []Fence
}
