package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/briefloop/briefloop/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id          TEXT PRIMARY KEY,
	template    TEXT NOT NULL,
	status      TEXT NOT NULL,
	turn        INTEGER NOT NULL,
	state_json  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	turn            INTEGER NOT NULL,
	slot            TEXT NOT NULL,
	accepted        INTEGER NOT NULL,
	provisional     INTEGER NOT NULL,
	confidence      REAL NOT NULL,
	threshold       REAL NOT NULL,
	features_json   TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id)
);

CREATE INDEX IF NOT EXISTS idx_audit_conversation
	ON audit_log(conversation_id, id);
`

// SQLiteStore persists conversations and their extraction audit trail
// in a single SQLite database file. State is stored as JSON alongside
// a few indexed columns for listing.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Put saves or replaces the conversation state.
func (s *SQLiteStore) Put(ctx context.Context, state *models.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, template, status, turn, state_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			template = excluded.template,
			status = excluded.status,
			turn = excluded.turn,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		state.ID, state.Template, string(state.Status), state.Turn, string(data),
		state.CreatedAt.UTC().Format(time.RFC3339Nano),
		state.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put conversation: %w", err)
	}
	return nil
}

// Get returns the conversation with the given ID, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.ConversationState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM conversations WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	var state models.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal conversation %s: %w", id, err)
	}
	return &state, nil
}

// List returns summaries of all stored conversations, most recently
// updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state_json FROM conversations ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var state models.ConversationState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			return nil, fmt.Errorf("unmarshal conversation: %w", err)
		}
		out = append(out, Summarize(&state))
	}
	return out, rows.Err()
}

// Delete removes a conversation and its audit trail. Idempotent.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_log WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete audit: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return tx.Commit()
}

// AppendAudit appends one extraction audit record.
func (s *SQLiteStore) AppendAudit(ctx context.Context, rec AuditRecord) error {
	features, err := json.Marshal(rec.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (conversation_id, turn, slot, accepted, provisional, confidence, threshold, features_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ConversationID, rec.Turn, rec.Slot,
		boolInt(rec.Accepted), boolInt(rec.Provisional),
		rec.Confidence, rec.Threshold, string(features),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// AuditTrail returns a conversation's audit records in append order.
func (s *SQLiteStore) AuditTrail(ctx context.Context, conversationID string) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, turn, slot, accepted, provisional, confidence, threshold, features_json, created_at
		 FROM audit_log WHERE conversation_id = ? ORDER BY id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var accepted, provisional int
		var features sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.ConversationID, &rec.Turn, &rec.Slot,
			&accepted, &provisional, &rec.Confidence, &rec.Threshold,
			&features, &createdStr); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		rec.Accepted = accepted != 0
		rec.Provisional = provisional != 0
		if features.Valid {
			if err := json.Unmarshal([]byte(features.String), &rec.Features); err != nil {
				return nil, fmt.Errorf("unmarshal features: %w", err)
			}
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ConversationStore = (*SQLiteStore)(nil)
