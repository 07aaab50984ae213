package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/store"
)

// withStores runs a subtest against each ConversationStore implementation.
func withStores(t *testing.T, fn func(t *testing.T, s store.ConversationStore)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		s := store.NewMemoryStore()
		defer s.Close()
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), store.DBFileName))
		if err != nil {
			t.Fatalf("NewSQLiteStore() error: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func sampleState(id string) *models.ConversationState {
	schema := []models.SlotSchema{
		{Name: "goal", Priority: models.PriorityCritical},
		{Name: "budget", Priority: models.PriorityImportant},
	}
	return models.NewConversationState(id, "project-brief", schema)
}

func TestPutGetRoundTrip(t *testing.T) {
	withStores(t, func(t *testing.T, s store.ConversationStore) {
		ctx := context.Background()
		state := sampleState("c1")
		state.Turn = 3
		state.LowConfStreak = 1
		state.Slots["goal"].Value = models.TextValue("ship the dashboard")
		state.Slots["goal"].Confidence = 0.82
		state.RecordQuestion(models.AskedQuestion{Turn: 1, ID: "q1", Text: "Goal?", Slot: "goal", Topic: "scope"})
		state.RecordAnswer(models.AnswerRecord{Turn: 1, Slot: "goal", Text: "ship it", Accepted: true, Confidence: 0.82})

		if err := s.Put(ctx, state); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		got, err := s.Get(ctx, "c1")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}

		if got.ID != "c1" || got.Turn != 3 || got.LowConfStreak != 1 {
			t.Errorf("Get() = %+v, want persisted scalars", got)
		}
		if got.Slots["goal"].Value.Text != "ship the dashboard" || got.Slots["goal"].Confidence != 0.82 {
			t.Errorf("slot state = %+v, want round-tripped value", got.Slots["goal"])
		}
		if len(got.QuestionHistory) != 1 || len(got.AnswerHistory) != 1 {
			t.Errorf("histories = (%d, %d), want (1, 1)", len(got.QuestionHistory), len(got.AnswerHistory))
		}
		if len(got.Schema) != 2 {
			t.Errorf("schema length = %d, want 2", len(got.Schema))
		}
	})
}

func TestGetNotFound(t *testing.T) {
	withStores(t, func(t *testing.T, s store.ConversationStore) {
		if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestPutReplacesExisting(t *testing.T) {
	withStores(t, func(t *testing.T, s store.ConversationStore) {
		ctx := context.Background()
		state := sampleState("c1")
		if err := s.Put(ctx, state); err != nil {
			t.Fatal(err)
		}

		state.Turn = 5
		state.Complete("done")
		if err := s.Put(ctx, state); err != nil {
			t.Fatalf("second Put() error: %v", err)
		}

		got, err := s.Get(ctx, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Turn != 5 || got.Status != models.StatusComplete {
			t.Errorf("Get() after replace = turn %d status %q, want 5 complete", got.Turn, got.Status)
		}

		list, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 {
			t.Errorf("List() length = %d, want 1 after replace", len(list))
		}
	})
}

func TestListOrderedByRecency(t *testing.T) {
	withStores(t, func(t *testing.T, s store.ConversationStore) {
		ctx := context.Background()
		older := sampleState("older")
		older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
		newer := sampleState("newer")
		newer.UpdatedAt = time.Now().UTC()

		if err := s.Put(ctx, older); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(ctx, newer); err != nil {
			t.Fatal(err)
		}

		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("List() length = %d, want 2", len(list))
		}
		if list[0].ID != "newer" || list[1].ID != "older" {
			t.Errorf("List() order = [%s, %s], want most recent first", list[0].ID, list[1].ID)
		}
		if list[0].Template != "project-brief" {
			t.Errorf("Template = %q, want project-brief", list[0].Template)
		}
	})
}

func TestDeleteIdempotent(t *testing.T) {
	withStores(t, func(t *testing.T, s store.ConversationStore) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleState("c1")); err != nil {
			t.Fatal(err)
		}
		if err := s.AppendAudit(ctx, sampleAudit("c1", 1)); err != nil {
			t.Fatal(err)
		}

		if err := s.Delete(ctx, "c1"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := s.Get(ctx, "c1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
		}
		trail, err := s.AuditTrail(ctx, "c1")
		if err != nil {
			t.Fatalf("AuditTrail() error: %v", err)
		}
		if len(trail) != 0 {
			t.Errorf("audit trail survived delete: %d records", len(trail))
		}

		// Deleting again is not an error.
		if err := s.Delete(ctx, "c1"); err != nil {
			t.Errorf("repeat Delete() error: %v", err)
		}
	})
}

func TestAuditTrailAppendOrder(t *testing.T) {
	withStores(t, func(t *testing.T, s store.ConversationStore) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleState("c1")); err != nil {
			t.Fatal(err)
		}

		for turn := 1; turn <= 3; turn++ {
			if err := s.AppendAudit(ctx, sampleAudit("c1", turn)); err != nil {
				t.Fatalf("AppendAudit(turn %d) error: %v", turn, err)
			}
		}

		trail, err := s.AuditTrail(ctx, "c1")
		if err != nil {
			t.Fatalf("AuditTrail() error: %v", err)
		}
		if len(trail) != 3 {
			t.Fatalf("AuditTrail() length = %d, want 3", len(trail))
		}
		for i, rec := range trail {
			if rec.Turn != i+1 {
				t.Errorf("trail[%d].Turn = %d, want %d", i, rec.Turn, i+1)
			}
		}

		rec := trail[0]
		if !rec.Accepted || rec.Confidence != 0.82 || rec.Threshold != 0.75 {
			t.Errorf("record = %+v, want round-tripped outcome", rec)
		}
		if rec.Features.Self != 0.9 || rec.Features.EvidenceSpans != 2 {
			t.Errorf("features = %+v, want round-tripped vector", rec.Features)
		}
	})
}

func TestStateIsolation(t *testing.T) {
	// Mutating a state after Put, or the state returned by Get, must not
	// leak into the stored copy.
	withStores(t, func(t *testing.T, s store.ConversationStore) {
		ctx := context.Background()
		state := sampleState("c1")
		if err := s.Put(ctx, state); err != nil {
			t.Fatal(err)
		}

		state.Slots["goal"].Value = models.TextValue("mutated after put")

		got, err := s.Get(ctx, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Slots["goal"].Filled() {
			t.Error("post-Put mutation leaked into the store")
		}

		got.Slots["goal"].Value = models.TextValue("mutated after get")
		again, err := s.Get(ctx, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if again.Slots["goal"].Filled() {
			t.Error("mutation of a Get result leaked into the store")
		}
	})
}

func sampleAudit(id string, turn int) store.AuditRecord {
	return store.AuditRecord{
		ConversationID: id,
		Turn:           turn,
		Slot:           "goal",
		Accepted:       true,
		Confidence:     0.82,
		Threshold:      0.75,
		Features: models.ConfidenceFeatures{
			Self:          0.9,
			Validator:     0.7,
			EvidenceSpans: 2,
			AnswerQuality: 0.7,
			Novelty:       1.0,
			Consistency:   0.8,
			Critical:      true,
		},
		CreatedAt: time.Now().UTC(),
	}
}
