package compedit

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"xmdedit/internal/xmd/attr"
	"xmdedit/internal/xmd/scan"
)

// Status is the finalizer's verdict on a proposed edit.
type Status string

const (
	StatusClarify  Status = "clarify"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// RejectCode classifies a rejection.
type RejectCode string

const (
	// CodeShapeViolation: the model text does not reduce to exactly one
	// well-formed block of the required kind.
	CodeShapeViolation RejectCode = "shapeViolation"
	// CodeCapabilityViolation: the proposed change touches a field the
	// registry does not allow.
	CodeCapabilityViolation RejectCode = "capabilityViolation"
)

// Outcome is the finalizer's output. Replacement is only set when Status is
// StatusAccepted; it is the exact text to substitute for the original span.
type Outcome struct {
	Status               Status     `json:"status"`
	Question             string     `json:"question,omitempty"`
	Suggestions          []string   `json:"suggestions,omitempty"`
	Replacement          string     `json:"replacement"`
	Summary              string     `json:"summary,omitempty"`
	ConfirmationQuestion string     `json:"confirmationQuestion,omitempty"`
	Code                 RejectCode `json:"code,omitempty"`
	Reason               string     `json:"reason,omitempty"`
}

// Finalize validates a model-proposed result against the original span text
// and the capability allow-list. Untrusted model output never reaches the
// document except through the accepted Replacement returned here.
func Finalize(kind scan.Kind, original string, caps Capabilities, res Result) Outcome {
	suggestions := SuggestionsFor(kind, caps)

	if res.Type == ResultClarify {
		return Outcome{
			Status:      StatusClarify,
			Question:    res.Question,
			Suggestions: suggestions,
		}
	}

	raw := strings.TrimSpace(res.UpdatedXMD)
	if raw == "" {
		// An empty update proposes removing the element.
		if !caps.AllowRemove {
			return reject(CodeCapabilityViolation, "removal is not permitted", suggestions)
		}
		return Outcome{
			Status:               StatusAccepted,
			Replacement:          "",
			Summary:              fmt.Sprintf("Removed the %s", kindNoun(kind)),
			ConfirmationQuestion: res.ConfirmationQuestion,
		}
	}

	// Normalize: take exactly the first well-formed block of the required
	// shape and discard any surrounding prose.
	block, ok := firstBlockOfKind(raw, caps.OutputShape)
	if !ok {
		return reject(CodeShapeViolation,
			fmt.Sprintf("the proposed text does not contain a well-formed %s", kindNoun(kind)),
			suggestions)
	}
	candidate := raw[block.Span.From:block.Span.To]

	origBlock, ok := firstBlockOfKind(original, kind)
	if !ok {
		return reject(CodeShapeViolation, "the original span is not a recognizable block", suggestions)
	}

	changes, violation := diffBlocks(kind, origBlock, block, caps)
	if violation != "" {
		return reject(CodeCapabilityViolation, violation, suggestions)
	}

	return Outcome{
		Status:               StatusAccepted,
		Replacement:          candidate,
		Summary:              summarize(kind, changes),
		ConfirmationQuestion: res.ConfirmationQuestion,
	}
}

func reject(code RejectCode, reason string, suggestions []string) Outcome {
	return Outcome{
		Status:      StatusRejected,
		Code:        code,
		Reason:      reason,
		Suggestions: suggestions,
	}
}

func kindNoun(kind scan.Kind) string {
	switch kind {
	case scan.KindFigure:
		return "figure"
	case scan.KindGrid:
		return "image grid"
	case scan.KindXMDTable, scan.KindPipeTable:
		return "table"
	}
	return "block"
}

func summarize(kind scan.Kind, changes []string) string {
	if len(changes) == 0 {
		return "No changes"
	}
	return fmt.Sprintf("Changed %s of the %s", strings.Join(changes, ", "), kindNoun(kind))
}

func contains(list []string, key string) bool {
	for _, k := range list {
		if k == key {
			return true
		}
	}
	return false
}

// diffBlocks compares the candidate block against the original under caps.
// It returns the sorted list of changed fields, or a non-empty violation
// message when a disallowed field changed.
func diffBlocks(kind scan.Kind, orig, cand scan.Block, caps Capabilities) ([]string, string) {
	switch kind {
	case scan.KindFigure:
		return diffFigure(orig.Figure, cand.Figure, caps, "")
	case scan.KindGrid:
		return diffGrid(orig.Grid, cand.Grid, caps)
	case scan.KindXMDTable, scan.KindPipeTable:
		return diffTable(orig.Table, cand.Table, caps)
	}
	return nil, fmt.Sprintf("unsupported block kind %q", kind)
}

func diffFigure(orig, cand *scan.Figure, caps Capabilities, label string) ([]string, string) {
	var changes []string
	if orig.SrcRef != cand.SrcRef {
		if !caps.AllowSrcChange {
			return nil, strings.TrimSpace(label + " the image source cannot be changed here")
		}
		changes = append(changes, label+"src")
	}
	if orig.AltText != cand.AltText {
		changes = append(changes, label+"caption")
	}
	oa, ca := attr.Parse(orig.Attrs), attr.Parse(cand.Attrs)
	for _, key := range changedKeys(oa, ca) {
		if !contains(caps.AllowedFigureAttrs, key) {
			return nil, fmt.Sprintf("%sattribute %q is not editable", label, key)
		}
		changes = append(changes, label+key)
	}
	sort.Strings(changes)
	return changes, ""
}

func diffGrid(orig, cand *scan.Grid, caps Capabilities) ([]string, string) {
	var changes []string
	oa, ca := attr.Parse(orig.HeaderAttrs), attr.Parse(cand.HeaderAttrs)
	for _, key := range changedKeys(oa, ca) {
		if !contains(caps.AllowedContainerAttrs, key) {
			return nil, fmt.Sprintf("grid attribute %q is not editable", key)
		}
		changes = append(changes, key)
	}

	origCells := nonNilCells(orig.Cells)
	candCells := nonNilCells(cand.Cells)
	if len(candCells) < len(origCells) {
		if !caps.AllowRemove {
			return nil, "removing images from the grid is not permitted"
		}
		changes = append(changes, fmt.Sprintf("removed %d image(s)", len(origCells)-len(candCells)))
	}
	if len(candCells) > len(origCells) {
		changes = append(changes, fmt.Sprintf("added %d image(s)", len(candCells)-len(origCells)))
	}
	n := len(origCells)
	if len(candCells) < n {
		n = len(candCells)
	}
	for i := 0; i < n; i++ {
		cellChanges, violation := diffFigure(origCells[i], candCells[i], caps, fmt.Sprintf("cell %d ", i+1))
		if violation != "" {
			return nil, violation
		}
		changes = append(changes, cellChanges...)
	}
	return changes, ""
}

func diffTable(orig, cand *scan.Table, caps Capabilities) ([]string, string) {
	var changes []string
	fields := []struct {
		key  string
		o, c any
	}{
		{"caption", orig.Caption, cand.Caption},
		{"label", orig.Label, cand.Label},
		{"borderStyle", orig.BorderStyle, cand.BorderStyle},
		{"borderColor", orig.BorderColor, cand.BorderColor},
		{"borderWidth", orig.BorderWidth, cand.BorderWidth},
	}
	for _, f := range fields {
		if f.o == f.c {
			continue
		}
		if !contains(caps.AllowedContainerAttrs, f.key) {
			return nil, fmt.Sprintf("table attribute %q is not editable", f.key)
		}
		changes = append(changes, f.key)
	}
	if !reflect.DeepEqual(orig.Header, cand.Header) ||
		!reflect.DeepEqual(orig.Rows, cand.Rows) ||
		!reflect.DeepEqual(orig.Aligns, cand.Aligns) ||
		!reflect.DeepEqual(orig.VRules, cand.VRules) ||
		!reflect.DeepEqual(orig.HRules, cand.HRules) {
		changes = append(changes, "content")
	}
	return changes, ""
}

func nonNilCells(cells []*scan.Figure) []*scan.Figure {
	var out []*scan.Figure
	for _, c := range cells {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// changedKeys lists keys whose value differs between the two attribute
// maps, including keys present on only one side.
func changedKeys(a, b map[string]string) []string {
	seen := map[string]bool{}
	var keys []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range a {
		add(k)
	}
	for k := range b {
		add(k)
	}
	var changed []string
	for _, k := range keys {
		av, aok := a[k]
		bv, bok := b[k]
		if aok != bok || av != bv {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
