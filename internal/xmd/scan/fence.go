package scan

import "strings"

// line is one source line with its byte offsets. to excludes the newline;
// next is the offset just past the newline (or len(text) on the last line).
type line struct {
	from int
	to   int
	next int
	text string
}

func splitLines(text string) []line {
	var lines []line
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, line{from: start, to: i, next: i + 1, text: text[start:i]})
			start = i + 1
		}
	}
	if start < len(text) || len(text) == 0 {
		lines = append(lines, line{from: start, to: len(text), next: len(text), text: text[start:]})
	}
	return lines
}

// fenceLineClass is the one-pass classification of a ::: line.
type fenceLineClass int

const (
	notFenceLine fenceLineClass = iota
	fenceOpen                   // ":::" followed by header text
	fenceClose                  // exactly ":::" or a line ending in ":::"
)

func classifyFenceLine(s string) (fenceLineClass, string) {
	t := strings.TrimSpace(s)
	if t == ":::" {
		return fenceClose, ""
	}
	if strings.HasPrefix(t, ":::") {
		return fenceOpen, strings.TrimSpace(t[3:])
	}
	if strings.HasSuffix(t, ":::") {
		return fenceClose, ""
	}
	return notFenceLine, ""
}

// rawFence is a closed fence before classification.
type rawFence struct {
	span        Span
	headerAttrs string
	// body is the line range (indices into the lines slice) strictly
	// between the open and close lines.
	bodyFrom int
	bodyTo   int
}

// scanFences walks the lines once and yields every closed fence span.
// An open with no matching close is discarded: its lines stay plain text.
// A bare ":::" outside any fence opens an attributeless fence; inside one
// it closes.
func scanFences(lines []line) []rawFence {
	var fences []rawFence
	openIdx := -1
	openAttrs := ""
	for i, ln := range lines {
		class, attrs := classifyFenceLine(ln.text)
		switch {
		case openIdx < 0 && class == fenceOpen:
			openIdx = i
			openAttrs = attrs
		case openIdx < 0 && class == fenceClose && strings.TrimSpace(ln.text) == ":::":
			openIdx = i
			openAttrs = ""
		case openIdx >= 0 && class == fenceClose:
			fences = append(fences, rawFence{
				span:        Span{From: lines[openIdx].from, To: ln.to},
				headerAttrs: openAttrs,
				bodyFrom:    openIdx + 1,
				bodyTo:      i,
			})
			openIdx = -1
			openAttrs = ""
		}
		// An open line while a fence is already open is body text:
		// fences do not nest.
	}
	return fences
}
