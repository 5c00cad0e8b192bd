// Package ledger tracks the per-span "show raw text" preference. It is the
// only editor state maintained incrementally across text mutations; every
// other structure is rebuilt from the text.
package ledger

import "sort"

// Range is a half-open byte range [From, To) the user wants rendered as raw
// source instead of a widget.
type Range struct {
	From int
	To   int
}

// Mutation is one atomic span replacement: the bytes at [From, To) were
// replaced by Insert new bytes.
type Mutation struct {
	From   int
	To     int
	Insert int
}

// Overlaps is the half-open interval test shared by the decoration builder.
func Overlaps(a, b Range) bool {
	return a.From < b.To && b.From < a.To
}

// Ledger is the set of toggled ranges. It is not safe for concurrent use;
// the owning session serializes access.
type Ledger struct {
	ranges []Range
}

// Toggle removes r when an identical range is present, otherwise adds it.
func (l *Ledger) Toggle(r Range) {
	for i, cur := range l.ranges {
		if cur == r {
			l.ranges = append(l.ranges[:i], l.ranges[i+1:]...)
			return
		}
	}
	l.ranges = append(l.ranges, r)
}

// Ranges returns the toggled ranges in ascending From order.
func (l *Ledger) Ranges() []Range {
	out := make([]Range, len(l.ranges))
	copy(out, l.ranges)
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// OverlapsAny reports whether any toggled range intersects [from, to).
func (l *Ledger) OverlapsAny(from, to int) bool {
	probe := Range{From: from, To: to}
	for _, r := range l.ranges {
		if Overlaps(r, probe) {
			return true
		}
	}
	return false
}

// Remap maps every stored range across m and drops ranges whose mapped
// width collapses to zero or less. Starts stick to the following text and
// ends stick to the preceding text, so an insertion exactly at a boundary
// never grows the range.
func (l *Ledger) Remap(m Mutation) {
	kept := l.ranges[:0]
	for _, r := range l.ranges {
		mapped := Range{
			From: mapFollowing(r.From, m),
			To:   mapPreceding(r.To, m),
		}
		if mapped.To > mapped.From {
			kept = append(kept, mapped)
		}
	}
	l.ranges = kept
}

// mapFollowing maps pos so it stays attached to the original text after it.
func mapFollowing(pos int, m Mutation) int {
	switch {
	case pos < m.From:
		return pos
	case pos >= m.To:
		return pos + m.Insert - (m.To - m.From)
	default:
		// Inside the replaced region: land after the new text.
		return m.From + m.Insert
	}
}

// mapPreceding maps pos so it stays attached to the original text before it.
func mapPreceding(pos int, m Mutation) int {
	switch {
	case pos <= m.From:
		return pos
	case pos > m.To:
		return pos + m.Insert - (m.To - m.From)
	default:
		// Inside or at the end of the replaced region: land before the
		// new text.
		return m.From
	}
}
