package scan

import "regexp"

// AssetScheme prefixes an asset-key source reference.
const AssetScheme = "asset-key://"

var (
	figureHeadRE = regexp.MustCompile(`!\[([^\]\n]*)\]\(\s*([^()\s]+)\s*\)`)
	dataImageRE  = regexp.MustCompile(`^data:image/[A-Za-z0-9.+-]+;base64,[A-Za-z0-9+/=]+$`)
	assetKeyRE   = regexp.MustCompile(`^asset-key://[^\s){}]+$`)
)

func validSrcRef(src string) bool {
	return dataImageRE.MatchString(src) || assetKeyRE.MatchString(src)
}

// attrBlockEnd finds the end of a {...} attribute block starting at open
// (text[open] must be '{'). Quoted values may contain anything, and the
// block may carry nested literal braces from shorthand tokens; both are
// treated as opaque. Returns the offset just past the closing brace, or -1
// when the block never closes on this line.
func attrBlockEnd(text string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inQuote {
			if c == '\\' && i+1 < len(text) {
				i++
				continue
			}
			if c == '"' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '\n':
			return -1
		}
	}
	return -1
}

// findFigures returns every figure token in text, in document order.
func findFigures(text string) []*Figure {
	var figs []*Figure
	for _, m := range figureHeadRE.FindAllStringSubmatchIndex(text, -1) {
		alt := text[m[2]:m[3]]
		src := text[m[4]:m[5]]
		if !validSrcRef(src) {
			continue
		}
		end := m[1]
		attrs := ""
		if end < len(text) && text[end] == '{' {
			if close := attrBlockEnd(text, end); close > 0 {
				attrs = text[end+1 : close-1]
				end = close
			}
		}
		figs = append(figs, &Figure{
			Span:    Span{From: m[0], To: end},
			AltText: alt,
			SrcRef:  src,
			Attrs:   attrs,
		})
	}
	return figs
}
