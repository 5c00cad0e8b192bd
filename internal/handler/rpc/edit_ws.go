package rpc

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"xmdedit/internal/compedit"
	"xmdedit/internal/editor/session"
	"xmdedit/internal/xmd/scan"
)

// EditHandler serves the component-edit panel over a websocket: one
// connection per open document, carrying edit requests out and proposals,
// decoration sets, and errors back.
type EditHandler struct {
	sessions *session.Manager
	svc      *compedit.Service
}

func NewEditHandler(sessions *session.Manager, svc *compedit.Service) *EditHandler {
	return &EditHandler{sessions: sessions, svc: svc}
}

const (
	editWSWriteWait = 10 * time.Second
	editWSPongWait  = 60 * time.Second
	editWSPingEvery = (editWSPongWait * 9) / 10
)

var editWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type editWSTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type editWSInbound struct {
	Type         string       `json:"type"`
	PanelID      string       `json:"panelId,omitempty"`
	Kind         string       `json:"kind,omitempty"`
	From         int          `json:"from,omitempty"`
	To           int          `json:"to,omitempty"`
	Prompt       string       `json:"prompt,omitempty"`
	Conversation []editWSTurn `json:"conversation,omitempty"`
	Expected     string       `json:"expected,omitempty"`
	Text         string       `json:"text,omitempty"`
}

type editWSOutbound struct {
	Type        string            `json:"type"`
	DocID       string            `json:"docId,omitempty"`
	PanelID     string            `json:"panelId,omitempty"`
	Rev         int64             `json:"rev,omitempty"`
	Decorations []decorationDTO   `json:"decorations,omitempty"`
	Outcome     *compedit.Outcome `json:"outcome,omitempty"`
	Code        string            `json:"code,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// HandleEditWS serves GET /v1/docs/{id}/ws.
func (h *EditHandler) HandleEditWS(w http.ResponseWriter, r *http.Request) {
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

	conn, err := editWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(editWSPongWait)); err != nil {
		log.Printf("edit ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(editWSPongWait))
	})

	writeCh := make(chan editWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(editWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(editWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(editWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushEditWS(writeCh, editWSOutbound{
		Type:        "decorations",
		DocID:       docID,
		Rev:         doc.Rev(),
		Decorations: toDecorationDTOs(doc.Decorations()),
	})

	// Accepted proposals wait here until the client applies or the panel
	// closes. One live proposal per panel.
	var proposalMu sync.Mutex
	proposals := make(map[string]*compedit.Proposal)

	for {
		var in editWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))
		switch msgType {
		case "ping":
			pushEditWS(writeCh, editWSOutbound{Type: "pong"})

		case "propose":
			panelID := strings.TrimSpace(in.PanelID)
			if panelID == "" {
				pushEditWS(writeCh, editWSOutbound{
					Type:    "error",
					Code:    "invalid_argument",
					Message: "panelId is required",
				})
				continue
			}
			req := compedit.Request{
				PanelID:      panelID,
				Kind:         scan.Kind(strings.TrimSpace(in.Kind)),
				From:         in.From,
				To:           in.To,
				Prompt:       in.Prompt,
				Conversation: toTurns(in.Conversation),
			}
			// The model call runs off the read loop so closePanel and
			// further edits stay responsive while it is in flight.
			go func() {
				p, err := h.svc.Propose(ctx, doc, req)
				if err != nil {
					pushEditWS(writeCh, editWSOutbound{
						Type:    "error",
						PanelID: panelID,
						Code:    editErrCode(err),
						Message: err.Error(),
					})
					return
				}
				proposalMu.Lock()
				proposals[panelID] = p
				proposalMu.Unlock()
				pushEditWS(writeCh, editWSOutbound{
					Type:    "proposal",
					DocID:   docID,
					PanelID: panelID,
					Outcome: &p.Outcome,
				})
			}()

		case "apply":
			panelID := strings.TrimSpace(in.PanelID)
			proposalMu.Lock()
			p := proposals[panelID]
			proposalMu.Unlock()
			if p == nil {
				pushEditWS(writeCh, editWSOutbound{
					Type:    "error",
					PanelID: panelID,
					Code:    "invalid_argument",
					Message: "no proposal is pending for this panel",
				})
				continue
			}
			if err := h.svc.Apply(doc, p); err != nil {
				pushEditWS(writeCh, editWSOutbound{
					Type:    "error",
					PanelID: panelID,
					Code:    editErrCode(err),
					Message: err.Error(),
				})
				continue
			}
			proposalMu.Lock()
			delete(proposals, panelID)
			proposalMu.Unlock()
			if err := h.sessions.Save(ctx, docID); err != nil {
				log.Printf("save %s failed: %v", docID, err)
			}
			pushEditWS(writeCh, editWSOutbound{
				Type:    "apply_ack",
				DocID:   docID,
				PanelID: panelID,
			})
			pushEditWS(writeCh, editWSOutbound{
				Type:        "decorations",
				DocID:       docID,
				Rev:         doc.Rev(),
				Decorations: toDecorationDTOs(doc.Decorations()),
			})

		case "closepanel":
			panelID := strings.TrimSpace(in.PanelID)
			h.svc.ClosePanel(panelID)
			proposalMu.Lock()
			delete(proposals, panelID)
			proposalMu.Unlock()
			pushEditWS(writeCh, editWSOutbound{
				Type:    "close_ack",
				PanelID: panelID,
			})

		case "replace":
			var err error
			if in.Expected != "" {
				err = doc.ReplaceSpanIfMatch(in.From, in.To, in.Expected, in.Text)
			} else {
				err = doc.ReplaceSpan(in.From, in.To, in.Text)
			}
			if err != nil {
				pushEditWS(writeCh, editWSOutbound{
					Type:    "error",
					Code:    editErrCode(err),
					Message: err.Error(),
				})
				continue
			}
			if err := h.sessions.Save(ctx, docID); err != nil {
				log.Printf("save %s failed: %v", docID, err)
			}
			pushEditWS(writeCh, editWSOutbound{
				Type:        "decorations",
				DocID:       docID,
				Rev:         doc.Rev(),
				Decorations: toDecorationDTOs(doc.Decorations()),
			})

		case "toggle":
			if err := doc.Toggle(in.From, in.To); err != nil {
				pushEditWS(writeCh, editWSOutbound{
					Type:    "error",
					Code:    editErrCode(err),
					Message: err.Error(),
				})
				continue
			}
			pushEditWS(writeCh, editWSOutbound{
				Type:        "decorations",
				DocID:       docID,
				Rev:         doc.Rev(),
				Decorations: toDecorationDTOs(doc.Decorations()),
			})

		default:
			pushEditWS(writeCh, editWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + msgType,
			})
		}
	}
}

func toTurns(in []editWSTurn) []compedit.Turn {
	if len(in) == 0 {
		return nil
	}
	out := make([]compedit.Turn, len(in))
	for i, t := range in {
		out[i] = compedit.Turn{Role: t.Role, Content: t.Content}
	}
	return out
}

func editErrCode(err error) string {
	switch {
	case errors.Is(err, compedit.ErrStaleAnchor):
		return "stale_anchor"
	case errors.Is(err, compedit.ErrSuperseded):
		return "superseded"
	case errors.Is(err, compedit.ErrNotAccepted):
		return "not_accepted"
	case errors.Is(err, compedit.ErrModelCall):
		return "model_call_failed"
	case errors.Is(err, session.ErrOutOfBounds), errors.Is(err, session.ErrAnchorMismatch):
		return "invalid_argument"
	default:
		return "internal"
	}
}

func pushEditWS(writeCh chan editWSOutbound, out editWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
