package session

import (
	"testing"

	"docqa/internal/pipeline"
)

func TestGetOrCreateGeneratesID(t *testing.T) {
	s := NewStore()

	conv := s.GetOrCreate("")
	if conv.ID == "" {
		t.Fatal("expected a generated session id")
	}
	if len(conv.History) != 0 {
		t.Errorf("new session should have empty history, got %d turns", len(conv.History))
	}

	again, ok := s.Get(conv.ID)
	if !ok {
		t.Fatal("session not found after creation")
	}
	if again.ID != conv.ID {
		t.Errorf("id mismatch: %s vs %s", again.ID, conv.ID)
	}
}

func TestAppendTurnAndSummary(t *testing.T) {
	s := NewStore()

	s.AppendTurn("sess-1", pipeline.Turn{Question: "q1", Answer: "a1"})
	s.AppendTurn("sess-1", pipeline.Turn{Question: "q2", Answer: "a2"})
	s.SetSummary("sess-1", "a summary")

	conv, ok := s.Get("sess-1")
	if !ok {
		t.Fatal("session not found")
	}
	if len(conv.History) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(conv.History))
	}
	if conv.History[1].Question != "q2" {
		t.Errorf("turns out of order: %+v", conv.History)
	}
	if conv.Summary != "a summary" {
		t.Errorf("unexpected summary: %q", conv.Summary)
	}
}

func TestReturnedHistoryIsACopy(t *testing.T) {
	s := NewStore()
	s.AppendTurn("sess-1", pipeline.Turn{Question: "q1", Answer: "a1"})

	conv, _ := s.Get("sess-1")
	conv.History[0].Answer = "tampered"

	fresh, _ := s.Get("sess-1")
	if fresh.History[0].Answer != "a1" {
		t.Error("store history was mutated through a returned copy")
	}
}

func TestResetClearsHistoryButKeepsSession(t *testing.T) {
	s := NewStore()
	s.AppendTurn("sess-1", pipeline.Turn{Question: "q1", Answer: "a1"})
	s.SetSummary("sess-1", "a summary")

	if !s.Reset("sess-1") {
		t.Fatal("expected reset to report existing session")
	}
	if s.Reset("missing") {
		t.Error("expected reset of missing session to report false")
	}

	conv, ok := s.Get("sess-1")
	if !ok {
		t.Fatal("session gone after reset")
	}
	if len(conv.History) != 0 {
		t.Errorf("history not cleared: %d turns", len(conv.History))
	}
	if conv.Summary != "" {
		t.Errorf("summary not cleared: %q", conv.Summary)
	}
}

func TestListAndDelete(t *testing.T) {
	s := NewStore()
	s.AppendTurn("a", pipeline.Turn{Question: "q", Answer: "a"})
	s.AppendTurn("b", pipeline.Turn{Question: "q", Answer: "a"})

	if got := len(s.List()); got != 2 {
		t.Fatalf("expected 2 sessions, got %d", got)
	}

	if !s.Delete("a") {
		t.Error("expected delete to report existing session")
	}
	if s.Delete("a") {
		t.Error("expected delete of missing session to report false")
	}
	if got := len(s.List()); got != 1 {
		t.Errorf("expected 1 session after delete, got %d", got)
	}
}
