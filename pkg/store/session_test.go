package store

import (
	"testing"
	"time"
)

func TestAppendTurnIndexes(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.AppendTurn(RoleUser, "hello")
	s.AppendTurn(RoleAssistant, "hi there")
	s.AppendTurn(RoleUser, "question")

	for i, turn := range s.History {
		if turn.Index != i {
			t.Errorf("turn %d has index %d", i, turn.Index)
		}
	}
}

func TestLastAssistantTurn(t *testing.T) {
	s := NewSession("s1", time.Now())
	if got := s.LastAssistantTurn(); got != "" {
		t.Errorf("empty history returned %q", got)
	}

	s.AppendTurn(RoleUser, "q1")
	s.AppendTurn(RoleAssistant, "a1")
	s.AppendTurn(RoleUser, "q2")
	s.AppendTurn(RoleAssistant, "a2")
	s.AppendTurn(RoleUser, "q3")

	if got := s.LastAssistantTurn(); got != "a2" {
		t.Errorf("LastAssistantTurn = %q, want a2", got)
	}
}

func TestTrimHistory(t *testing.T) {
	s := NewSession("s1", time.Now())
	for i := 0; i < 10; i++ {
		s.AppendTurn(RoleUser, "q")
		s.AppendTurn(RoleAssistant, "a")
	}

	s.TrimHistory(6)

	if len(s.History) != 12 {
		t.Errorf("history length = %d, want 12", len(s.History))
	}
	// The oldest turns are dropped, the newest survive.
	if s.History[len(s.History)-1].Index != 19 {
		t.Errorf("last kept index = %d, want 19", s.History[len(s.History)-1].Index)
	}
}

func TestIndexesStayUniqueAcrossTrims(t *testing.T) {
	s := NewSession("s1", time.Now())
	for i := 0; i < 10; i++ {
		s.AppendTurn(RoleUser, "q")
		s.AppendTurn(RoleAssistant, "a")
	}

	s.TrimHistory(6)
	s.AppendTurn(RoleUser, "q11")

	if got := s.History[len(s.History)-1].Index; got != 20 {
		t.Errorf("index after trim = %d, want 20", got)
	}

	seen := map[int]bool{}
	for _, turn := range s.History {
		if seen[turn.Index] {
			t.Errorf("index %d assigned twice", turn.Index)
		}
		seen[turn.Index] = true
	}
}

func TestTrimHistoryUnderBoundIsNoop(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.AppendTurn(RoleUser, "q")
	s.AppendTurn(RoleAssistant, "a")

	s.TrimHistory(6)

	if len(s.History) != 2 {
		t.Errorf("history length = %d, want 2", len(s.History))
	}
}

func TestClearSlot(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.PendingSlot = SlotCourseCode
	s.StoredIntent = "IA_ACCESS_ISSUE"
	s.StoredPlatform = "CENGAGE"
	s.StoredPublisher = "CENGAGE"

	s.ClearSlot()

	if s.PendingSlot != SlotNone || s.StoredIntent != "" || s.StoredPlatform != "" || s.StoredPublisher != "" {
		t.Errorf("slot state not fully cleared: %+v", s)
	}
}
