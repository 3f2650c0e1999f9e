package store

import "time"

// ChatTurn is a single entry in a session's conversation history.
// Immutable once appended.
type ChatTurn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
	Index   int    `json:"index"`
}

// Session represents the active conversation state in memory
type Session struct {
	ID      string     `json:"id"`
	History []ChatTurn `json:"history"`

	// THE PENDING SLOT (at most one active at a time)
	PendingSlot PendingSlot `json:"pending_slot"`

	// Remembered while a slot is pending
	StoredIntent    string `json:"stored_intent,omitempty"`
	StoredPlatform  string `json:"stored_platform,omitempty"`
	StoredPublisher string `json:"stored_publisher,omitempty"`

	// NextIndex is the index the next appended turn receives. It only
	// grows, surviving history trims.
	NextIndex int `json:"next_index"`

	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingSlot names the piece of information the dialogue is waiting for.
type PendingSlot string

const (
	SlotNone            PendingSlot = ""
	SlotCourseCode      PendingSlot = "AWAITING_COURSE_CODE"
	SlotPlatformSubtype PendingSlot = "AWAITING_PLATFORM_SUBTYPE"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// NewSession returns an empty session with no pending slot.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		History:      make([]ChatTurn, 0, 8),
		PendingSlot:  SlotNone,
		LastActivity: now,
		CreatedAt:    now,
	}
}

// ClearSlot drops the pending slot and everything remembered for it.
func (s *Session) ClearSlot() {
	s.PendingSlot = SlotNone
	s.StoredIntent = ""
	s.StoredPlatform = ""
	s.StoredPublisher = ""
}

// AppendTurn adds a turn to the history, assigning the next index.
// Indexes are monotonic over the session's lifetime, so they stay unique
// after old turns are trimmed away.
func (s *Session) AppendTurn(role, content string) {
	s.History = append(s.History, ChatTurn{
		Role:    role,
		Content: content,
		Index:   s.NextIndex,
	})
	s.NextIndex++
}

// LastAssistantTurn returns the most recent assistant turn content, or "".
func (s *Session) LastAssistantTurn() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleAssistant {
			return s.History[i].Content
		}
	}
	return ""
}

// TrimHistory drops the oldest turns once the history exceeds twice the
// bound, keeping the most recent 2*bound entries.
func (s *Session) TrimHistory(bound int) {
	if limit := bound * 2; len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}
