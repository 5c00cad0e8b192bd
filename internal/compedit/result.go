package compedit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResultType discriminates the model's response union.
type ResultType string

const (
	ResultClarify ResultType = "clarify"
	ResultUpdate  ResultType = "update"
)

// Result is the component-edit response as the model proposed it. The
// UpdatedXMD payload is untrusted and only ever passes through Finalize.
type Result struct {
	Type                 ResultType `json:"type,omitempty"`
	Question             string     `json:"question,omitempty"`
	Suggestions          []string   `json:"suggestions,omitempty"`
	UpdatedXMD           string     `json:"updatedXmd,omitempty"`
	Summary              string     `json:"summary,omitempty"`
	ConfirmationQuestion string     `json:"confirmationQuestion,omitempty"`
}

// ParseResult decodes the raw model JSON into the Result union. A response
// with no explicit type is classified by which payload it carries; anything
// that fits neither arm is an error.
func ParseResult(raw json.RawMessage) (Result, error) {
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("compedit: decode model response: %w", err)
	}
	if res.Type == "" {
		switch {
		case strings.TrimSpace(res.UpdatedXMD) != "" || res.Summary != "":
			res.Type = ResultUpdate
		case strings.TrimSpace(res.Question) != "":
			res.Type = ResultClarify
		}
	}
	switch res.Type {
	case ResultClarify, ResultUpdate:
		return res, nil
	default:
		return Result{}, fmt.Errorf("compedit: invalid result type %q", res.Type)
	}
}
