package session

import (
	"context"
	"sync"

	"xmdedit/internal/docstore"
)

// Manager hands out one Session per open document. Opening an already-open
// document returns the live session, so all clients of a document share one
// buffer and one ledger.
type Manager struct {
	docs *docstore.Store

	mu   sync.Mutex
	open map[string]*Session
}

func NewManager(docs *docstore.Store) *Manager {
	return &Manager{docs: docs, open: make(map[string]*Session)}
}

// Open returns the live session for docID, loading the document text from
// the store on first open.
func (m *Manager) Open(ctx context.Context, docID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.open[docID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	body, err := m.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have opened it while we were loading.
	if s, ok := m.open[docID]; ok {
		return s, nil
	}
	s := New(body)
	m.open[docID] = s
	return s, nil
}

// Save writes the session's current text back to the store.
func (m *Manager) Save(ctx context.Context, docID string) error {
	m.mu.Lock()
	s, ok := m.open[docID]
	m.mu.Unlock()
	if !ok {
		return docstore.ErrNotFound
	}
	return m.docs.Put(ctx, docID, s.Text())
}

// Close drops the live session. Unsaved changes are discarded.
func (m *Manager) Close(docID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, docID)
}
