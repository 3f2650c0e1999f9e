package dto

type SessionSummary struct {
	Id            string  `json:"id"` // truncated, not the full id
	HistoryLength int     `json:"history_length"`
	PendingSlot   string  `json:"pending_slot"`
	LastActivity  string  `json:"last_activity"`
	AgeMinutes    float64 `json:"age_minutes"`
}

type SessionStatsResponse struct {
	ActiveSessions int              `json:"active_sessions"`
	Sessions       []SessionSummary `json:"sessions"`
}

type RetrievalDebugRequest struct {
	Query     string `json:"query" validate:"required,min=1"`
	Partition string `json:"partition" validate:"required,min=1"`
	TopK      int    `json:"top_k" validate:"omitempty,min=1,max=20"`
}

type RetrievalDebugHit struct {
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

type RetrievalDebugResponse struct {
	Partition       string              `json:"partition"`
	Hits            []RetrievalDebugHit `json:"hits"`
	RetrievalTimeMs float64             `json:"retrieval_time_ms"`
}

type LlmDebugRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

type LlmDebugResponse struct {
	Reply     string  `json:"reply"`
	LlmTimeMs float64 `json:"llm_time_ms"`
}
