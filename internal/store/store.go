// Package store defines the ConversationStore interface for persisting
// conversation state and the extraction audit trail, with in-memory and
// SQLite implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/briefloop/briefloop/internal/models"
)

// ErrNotFound is returned when a conversation ID is unknown.
var ErrNotFound = errors.New("conversation not found")

// AuditRecord is one row of the extraction audit trail: the feature
// vector and outcome of a single calibration decision. Features are
// ephemeral everywhere else; this is the only place they outlive the
// turn.
type AuditRecord struct {
	ConversationID string                    `json:"conversation_id"`
	Turn           int                       `json:"turn"`
	Slot           string                    `json:"slot"`
	Accepted       bool                      `json:"accepted"`
	Provisional    bool                      `json:"provisional"`
	Confidence     float64                   `json:"confidence"`
	Threshold      float64                   `json:"threshold"`
	Features       models.ConfidenceFeatures `json:"features"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// ConversationStore persists conversation state between turns and
// appends the audit trail. Implementations must be safe for concurrent
// use across conversations; per-conversation serialization is the
// caller's job.
type ConversationStore interface {
	// Put saves or replaces the conversation state.
	Put(ctx context.Context, state *models.ConversationState) error

	// Get returns the conversation with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.ConversationState, error)

	// List returns summaries of all stored conversations, most recently
	// updated first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a conversation and its audit trail. Idempotent.
	Delete(ctx context.Context, id string) error

	// AppendAudit appends one extraction audit record.
	AppendAudit(ctx context.Context, rec AuditRecord) error

	// AuditTrail returns a conversation's audit records in append order.
	AuditTrail(ctx context.Context, conversationID string) ([]AuditRecord, error)

	// Close releases resources.
	Close() error
}

// Summary is a lightweight listing row for a stored conversation.
type Summary struct {
	ID         string        `json:"id"`
	Template   string        `json:"template"`
	Status     models.Status `json:"status"`
	Turn       int           `json:"turn"`
	Coverage   float64       `json:"coverage"`
	StopReason string        `json:"stop_reason,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Summarize builds a Summary from a conversation state.
func Summarize(state *models.ConversationState) Summary {
	return Summary{
		ID:         state.ID,
		Template:   state.Template,
		Status:     state.Status,
		Turn:       state.Turn,
		Coverage:   state.Coverage(),
		StopReason: state.StopReason,
		UpdatedAt:  state.UpdatedAt,
	}
}
