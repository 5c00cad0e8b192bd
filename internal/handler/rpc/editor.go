// Package rpc holds the HTTP and websocket handlers of the editor gateway.
package rpc

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"xmdedit/internal/docstore"
	"xmdedit/internal/editor/decor"
	"xmdedit/internal/editor/session"
)

// EditorHandler serves the document endpoints: decoration queries and the
// two mutation primitives (replace, toggle).
type EditorHandler struct {
	sessions *session.Manager
}

func NewEditorHandler(sessions *session.Manager) *EditorHandler {
	return &EditorHandler{sessions: sessions}
}

type decorationDTO struct {
	From      int    `json:"from"`
	To        int    `json:"to"`
	Kind      string `json:"kind"`
	Inline    bool   `json:"inline,omitempty"`
	BlockKind string `json:"blockKind"`
}

type decorationsResponse struct {
	DocID       string          `json:"docId"`
	Rev         int64           `json:"rev"`
	Decorations []decorationDTO `json:"decorations"`
}

func toDecorationDTOs(ds []decor.Decoration) []decorationDTO {
	out := make([]decorationDTO, 0, len(ds))
	for _, d := range ds {
		out = append(out, decorationDTO{
			From:      d.From,
			To:        d.To,
			Kind:      string(d.Kind),
			Inline:    d.Inline,
			BlockKind: string(d.Block.Kind),
		})
	}
	return out
}

// HandleDecorations serves GET /v1/docs/{id}/decorations.
func (h *EditorHandler) HandleDecorations(w http.ResponseWriter, r *http.Request) {
	docID := strings.TrimSpace(r.PathValue("id"))
	if docID == "" {
		http.Error(w, "document id is required", http.StatusBadRequest)
		return
	}
	doc, err := h.sessions.Open(r.Context(), docID)
	if err != nil {
		writeDocError(w, docID, err)
		return
	}
	writeJSON(w, http.StatusOK, decorationsResponse{
		DocID:       docID,
		Rev:         doc.Rev(),
		Decorations: toDecorationDTOs(doc.Decorations()),
	})
}

type replaceRequest struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Expected string `json:"expected"`
	Text     string `json:"text"`
}

// HandleReplace serves POST /v1/docs/{id}/replace. When the request carries
// an expected anchor and the live text no longer matches it, the edit is
// refused with 409.
func (h *EditorHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	docID := strings.TrimSpace(r.PathValue("id"))
	if docID == "" {
		http.Error(w, "document id is required", http.StatusBadRequest)
		return
	}
	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	doc, err := h.sessions.Open(r.Context(), docID)
	if err != nil {
		writeDocError(w, docID, err)
		return
	}
	if req.Expected != "" {
		err = doc.ReplaceSpanIfMatch(req.From, req.To, req.Expected, req.Text)
	} else {
		err = doc.ReplaceSpan(req.From, req.To, req.Text)
	}
	switch {
	case errors.Is(err, session.ErrAnchorMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, session.ErrOutOfBounds):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("replace %s failed: %v", docID, err)
		http.Error(w, "replace failed", http.StatusInternalServerError)
		return
	}
	if err := h.sessions.Save(r.Context(), docID); err != nil {
		log.Printf("save %s failed: %v", docID, err)
	}
	writeJSON(w, http.StatusOK, decorationsResponse{
		DocID:       docID,
		Rev:         doc.Rev(),
		Decorations: toDecorationDTOs(doc.Decorations()),
	})
}

type toggleRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// HandleToggle serves POST /v1/docs/{id}/toggle.
func (h *EditorHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	docID := strings.TrimSpace(r.PathValue("id"))
	if docID == "" {
		http.Error(w, "document id is required", http.StatusBadRequest)
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	doc, err := h.sessions.Open(r.Context(), docID)
	if err != nil {
		writeDocError(w, docID, err)
		return
	}
	if err := doc.Toggle(req.From, req.To); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, decorationsResponse{
		DocID:       docID,
		Rev:         doc.Rev(),
		Decorations: toDecorationDTOs(doc.Decorations()),
	})
}

func writeDocError(w http.ResponseWriter, docID string, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	log.Printf("open %s failed: %v", docID, err)
	http.Error(w, "document load failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}
