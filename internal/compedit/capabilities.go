// Package compedit mediates AI-proposed edits to an embedded block. Model
// output is untrusted text; the only way it reaches the document is through
// Finalize and Apply, which enforce the per-kind capability contract.
package compedit

import "xmdedit/internal/xmd/scan"

// Capabilities is the declarative allow-list constraining what an edit may
// change for one block kind.
type Capabilities struct {
	AllowSrcChange        bool       `json:"allowSrcChange"`
	AllowRemove           bool       `json:"allowRemove"`
	AllowedFigureAttrs    []string   `json:"allowedFigureAttrs,omitempty"`
	AllowedContainerAttrs []string   `json:"allowedContainerAttrs,omitempty"`
	OutputShape           scan.Kind  `json:"outputShape"`
}

var figureAttrAllowList = []string{"width", "align", "placement", "desc"}

var containerAttrAllowList = []string{
	"cols", "caption", "label", "align", "placement", "margin",
	"borderStyle", "borderColor", "borderWidth",
}

// CapabilitiesFor returns the fixed edit policy for kind. Image replacement
// is a separate, non-AI-mediated operation, so src is never mutable here.
func CapabilitiesFor(kind scan.Kind) Capabilities {
	caps := Capabilities{
		AllowSrcChange: false,
		AllowRemove:    true,
		OutputShape:    kind,
	}
	switch kind {
	case scan.KindFigure:
		caps.AllowedFigureAttrs = figureAttrAllowList
	case scan.KindGrid:
		caps.AllowedFigureAttrs = figureAttrAllowList
		caps.AllowedContainerAttrs = containerAttrAllowList
	case scan.KindXMDTable, scan.KindPipeTable:
		caps.AllowedContainerAttrs = containerAttrAllowList
	}
	return caps
}

// SuggestionsFor derives the UI suggestion strings purely from the
// allow-list. Suggestions are never sourced from the model, so the UI stays
// deterministic.
func SuggestionsFor(kind scan.Kind, caps Capabilities) []string {
	var out []string
	allowed := func(list []string, key string) bool {
		for _, k := range list {
			if k == key {
				return true
			}
		}
		return false
	}
	plural := kind == scan.KindGrid
	if allowed(caps.AllowedFigureAttrs, "width") {
		if plural {
			out = append(out, "Make the images larger", "Make the images smaller")
		} else {
			out = append(out, "Make the image larger", "Make the image smaller")
		}
	}
	if allowed(caps.AllowedFigureAttrs, "align") || allowed(caps.AllowedContainerAttrs, "align") {
		out = append(out, "Center it")
	}
	if allowed(caps.AllowedFigureAttrs, "placement") || allowed(caps.AllowedContainerAttrs, "placement") {
		out = append(out, "Place it inline with the text")
	}
	if allowed(caps.AllowedFigureAttrs, "desc") {
		out = append(out, "Add a short description")
	}
	if allowed(caps.AllowedContainerAttrs, "caption") {
		out = append(out, "Add a caption")
	}
	if allowed(caps.AllowedContainerAttrs, "cols") && kind == scan.KindGrid {
		out = append(out, "Use a different number of columns")
	}
	if caps.AllowRemove {
		out = append(out, "Remove it")
	}
	return out
}
