package events

import "time"

const (
	TypeTurnCompleted  = "chat.turn_completed"
	TypeSessionExpired = "chat.session_expired"
)

// NewTurnCompleted records one finished conversation turn for analytics.
// Timings are in milliseconds.
func NewTurnCompleted(sessionID, intent, source string, confidence float64, retrievalMs, llmMs, totalMs float64) Event {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id":        sessionID,
			"intent":            intent,
			"source":            source,
			"confidence":        confidence,
			"retrieval_time_ms": retrievalMs,
			"llm_time_ms":       llmMs,
			"total_time_ms":     totalMs,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionExpired records a session reaped by the inactivity sweep.
func NewSessionExpired(sessionID string, turns int, age time.Duration) Event {
	return BaseEvent{
		Type: TypeSessionExpired,
		Data: map[string]interface{}{
			"session_id":  sessionID,
			"turns":       turns,
			"age_seconds": age.Seconds(),
		},
		OccurredAt: time.Now(),
	}
}
