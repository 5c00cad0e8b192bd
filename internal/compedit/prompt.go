package compedit

import (
	"bytes"
	"encoding/json"
	"strings"
)

const editInstructions = `You edit one embedded block of an extended-markdown document.
Respond with a single JSON object, one of:
  {"type":"clarify","question":"..."} when the request is ambiguous, or
  {"type":"update","updatedXmd":"...","summary":"...","confirmationQuestion":"..."} with the full replacement markup.
Rules:
- updatedXmd must contain exactly one block of the same kind as the original.
- Only change what the capabilities allow. Never change an image source.
- An empty updatedXmd means "remove the element".`

// encodeJSONBlock renders v as a compact JSON block for prompt inclusion.
func encodeJSONBlock(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimSpace(buf.String())
}

// buildPrompt assembles the instruction text, the user's request, the
// capability contract, and the block context. Media payloads in the context
// are redacted before this is called.
func buildPrompt(userPrompt string, caps Capabilities, ctx Context) string {
	var b strings.Builder
	b.WriteString(editInstructions)
	b.WriteString("\n\n[REQUEST]\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\n[CAPABILITIES]\n")
	b.WriteString(encodeJSONBlock(caps))
	b.WriteString("\n\n[BLOCK CONTEXT]\n")
	b.WriteString(encodeJSONBlock(ctx))
	return b.String()
}
