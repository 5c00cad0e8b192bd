// Package attr reads and rewrites the key="value" attribute lists that XMD
// attaches to figures and fence headers. Values may be double-quoted or bare
// (bare values run to the next whitespace). Rewrites touch only the named
// keys; every other key keeps its exact source bytes and relative order.
package attr

import "strings"

// pair is one parsed attribute with the raw bytes it came from.
type pair struct {
	key   string
	value string
	raw   string
}

// ParseAttr returns the value of key in attrsText. ok is false when the key
// is absent. Quoted values are unescaped before being returned.
func ParseAttr(attrsText, key string) (string, bool) {
	for _, p := range parsePairs(attrsText) {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Upsert sets key to value in attrsText, quoting and escaping the value.
// An existing key is rewritten in place; a new key is appended at the end.
// An empty value strips the key entirely.
func Upsert(attrsText, key, value string) string {
	if value == "" {
		return Strip(attrsText, key)
	}
	pairs := parsePairs(attrsText)
	replaced := false
	out := make([]string, 0, len(pairs)+1)
	for _, p := range pairs {
		if p.key == key && !replaced {
			out = append(out, key+`="`+Escape(value)+`"`)
			replaced = true
			continue
		}
		if p.key == key {
			// Duplicate of an already-rewritten key; drop it.
			continue
		}
		out = append(out, p.raw)
	}
	if !replaced {
		out = append(out, key+`="`+Escape(value)+`"`)
	}
	return strings.Join(out, " ")
}

// Strip removes the named keys from attrsText, leaving everything else
// byte-for-byte intact.
func Strip(attrsText string, keys ...string) string {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	var out []string
	for _, p := range parsePairs(attrsText) {
		if drop[p.key] {
			continue
		}
		out = append(out, p.raw)
	}
	return strings.Join(out, " ")
}

// Parse returns every attribute in attrsText as a key→value map. Later
// duplicates win, matching ParseAttr-then-Upsert behavior.
func Parse(attrsText string) map[string]string {
	m := map[string]string{}
	for _, p := range parsePairs(attrsText) {
		m[p.key] = p.value
	}
	return m
}

// Escape makes value safe inside a double-quoted attribute: backslash,
// double quote, and newline are escaped.
func Escape(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unescape reverses Escape.
func Unescape(value string) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' || i+1 == len(value) {
			b.WriteByte(c)
			continue
		}
		i++
		switch value[i] {
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

func isKeyByte(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parsePairs tokenizes attrsText into ordered key/value pairs. Runs of text
// that do not form a key=value shape are skipped; they are not attributes
// and are never rewritten.
func parsePairs(attrsText string) []pair {
	var pairs []pair
	i := 0
	n := len(attrsText)
	for i < n {
		for i < n && (attrsText[i] == ' ' || attrsText[i] == '\t') {
			i++
		}
		start := i
		for i < n && isKeyByte(attrsText[i]) {
			i++
		}
		if i == start || i >= n || attrsText[i] != '=' {
			// Not a key; skip the stray token.
			for i < n && attrsText[i] != ' ' && attrsText[i] != '\t' {
				i++
			}
			continue
		}
		key := attrsText[start:i]
		i++ // '='
		if i < n && attrsText[i] == '"' {
			i++
			vstart := i
			for i < n {
				if attrsText[i] == '\\' && i+1 < n {
					i += 2
					continue
				}
				if attrsText[i] == '"' {
					break
				}
				i++
			}
			value := Unescape(attrsText[vstart:i])
			if i < n {
				i++ // closing quote
			}
			pairs = append(pairs, pair{key: key, value: value, raw: attrsText[start:i]})
			continue
		}
		vstart := i
		for i < n && attrsText[i] != ' ' && attrsText[i] != '\t' {
			i++
		}
		pairs = append(pairs, pair{key: key, value: attrsText[vstart:i], raw: attrsText[start:i]})
	}
	return pairs
}
