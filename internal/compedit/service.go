package compedit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"xmdedit/internal/editor/session"
	"xmdedit/internal/llm"
	"xmdedit/internal/xmd/scan"
)

var (
	// ErrSuperseded means a newer request for the same panel started (or
	// the panel closed) while this one was in flight; its response is
	// discarded.
	ErrSuperseded = errors.New("compedit: request superseded")
	// ErrModelCall wraps network, timeout, and invalid-payload failures
	// from the edit operation. Surfaced to the user with retry; never a
	// crash.
	ErrModelCall = errors.New("compedit: model call failed")
	// ErrNotAccepted means Apply was attempted on a proposal the
	// finalizer did not accept.
	ErrNotAccepted = errors.New("compedit: proposal was not accepted")
)

// Request is one user-initiated component edit.
type Request struct {
	PanelID      string
	Kind         scan.Kind
	From         int
	To           int
	Prompt       string
	Conversation []Turn
}

// Proposal is the finalized result of one request. Anchor holds the exact
// span text the outcome was computed against; Apply re-checks it.
type Proposal struct {
	PanelID string
	Seq     uint64
	Kind    scan.Kind
	From    int
	To      int
	Anchor  string
	Outcome Outcome
	Model   string
}

// Service runs the component-edit pipeline: context build → model call →
// finalize → apply. At most one request per panel is live; starting a new
// one supersedes any earlier in-flight request for that panel.
type Service struct {
	client llm.Client

	mu      sync.Mutex
	nextSeq uint64
	panels  map[string]*panelState
}

// panelState tracks one open panel. Entries are removed once the panel is
// closed and no request is in flight, so the map is bounded by the number of
// open panels. Sequence numbers come from one process-wide counter; a panel
// reopened under the same ID can never collide with a proposal from before
// the close.
type panelState struct {
	seq      uint64
	inFlight int
	closed   bool
}

func NewService(client llm.Client) *Service {
	return &Service{client: client, panels: make(map[string]*panelState)}
}

// Propose builds the edit context for the block at [from, to), calls the
// model, and runs the result through the finalizer. The document is not
// mutated; the user keeps editing while this is in flight.
func (s *Service) Propose(ctx context.Context, doc *session.Session, req Request) (*Proposal, error) {
	spanText, err := doc.SpanText(req.From, req.To)
	if err != nil {
		return nil, err
	}
	caps := CapabilitiesFor(req.Kind)
	ectx := BuildContext(req.Kind, spanText, redactTurns(req.Conversation))
	prompt := buildPrompt(req.Prompt, caps, ectx)

	seq := s.begin(req.PanelID)
	defer s.finish(req.PanelID)
	input := map[string]any{
		"kind":         req.Kind,
		"source":       spanText,
		"capabilities": caps,
		"context":      ectx,
		"model":        s.client.Name(),
	}
	raw, callErr := s.client.GenerateJSON(ctx, prompt, input)
	if !s.current(req.PanelID, seq) {
		// A newer request (or a panel close) won the race; this
		// response is dead regardless of its content.
		return nil, ErrSuperseded
	}
	if callErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, callErr)
	}
	res, err := ParseResult(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, err)
	}

	return &Proposal{
		PanelID: req.PanelID,
		Seq:     seq,
		Kind:    req.Kind,
		From:    req.From,
		To:      req.To,
		Anchor:  spanText,
		Outcome: Finalize(req.Kind, spanText, caps, res),
		Model:   s.client.Name(),
	}, nil
}

// Apply commits an accepted proposal, re-verifying the anchor first.
func (s *Service) Apply(doc *session.Session, p *Proposal) error {
	if p.Outcome.Status != StatusAccepted {
		return ErrNotAccepted
	}
	if !s.current(p.PanelID, p.Seq) {
		return ErrSuperseded
	}
	return Apply(doc, p.From, p.To, p.Anchor, p.Outcome.Replacement)
}

// ClosePanel discards interest in any in-flight response for the panel; a
// late response resolves into ErrSuperseded and commits nothing. The panel's
// bookkeeping is dropped as soon as nothing is in flight.
func (s *Service) ClosePanel(panelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.panels[panelID]
	if !ok {
		return
	}
	st.closed = true
	if st.inFlight <= 0 {
		delete(s.panels, panelID)
	}
}

func (s *Service) begin(panelID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.panels[panelID]
	if !ok {
		st = &panelState{}
		s.panels[panelID] = st
	}
	st.closed = false
	st.inFlight++
	s.nextSeq++
	st.seq = s.nextSeq
	return st.seq
}

func (s *Service) finish(panelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.panels[panelID]
	if !ok {
		return
	}
	st.inFlight--
	if st.closed && st.inFlight <= 0 {
		delete(s.panels, panelID)
	}
}

func (s *Service) current(panelID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.panels[panelID]
	return ok && !st.closed && st.seq == seq
}

// redactTurns strips inline image payloads out of the chat history. The
// block source itself stays verbatim — the model must be able to echo the
// src reference exactly.
func redactTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = Turn{Role: t.Role, Content: llm.RedactMediaString(t.Content)}
	}
	return out
}
