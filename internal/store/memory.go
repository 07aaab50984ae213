package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/briefloop/briefloop/internal/models"
)

// MemoryStore is an in-memory ConversationStore for tests and
// single-shot CLI runs. Thread-safe. States are deep-copied through
// JSON so callers cannot alias stored state.
type MemoryStore struct {
	mu     sync.RWMutex
	convos map[string]*models.ConversationState
	audits map[string][]AuditRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		convos: make(map[string]*models.ConversationState),
		audits: make(map[string][]AuditRecord),
	}
}

// Put saves or replaces the conversation state.
func (m *MemoryStore) Put(_ context.Context, state *models.ConversationState) error {
	cp, err := copyState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convos[state.ID] = cp
	return nil
}

// Get returns the conversation with the given ID, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*models.ConversationState, error) {
	m.mu.RLock()
	state, ok := m.convos[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyState(state)
}

// List returns summaries of all stored conversations, most recently
// updated first.
func (m *MemoryStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.convos))
	for _, state := range m.convos {
		out = append(out, Summarize(state))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a conversation and its audit trail. Idempotent.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convos, id)
	delete(m.audits, id)
	return nil
}

// AppendAudit appends one extraction audit record.
func (m *MemoryStore) AppendAudit(_ context.Context, rec AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[rec.ConversationID] = append(m.audits[rec.ConversationID], rec)
	return nil
}

// AuditTrail returns a conversation's audit records in append order.
func (m *MemoryStore) AuditTrail(_ context.Context, conversationID string) ([]AuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trail := m.audits[conversationID]
	out := make([]AuditRecord, len(trail))
	copy(out, trail)
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func copyState(state *models.ConversationState) (*models.ConversationState, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("copying conversation state: %w", err)
	}
	var cp models.ConversationState
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("copying conversation state: %w", err)
	}
	return &cp, nil
}

var _ ConversationStore = (*MemoryStore)(nil)
