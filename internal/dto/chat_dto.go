package dto

type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=4000"`
	SessionId string `json:"session_id" validate:"omitempty,max=128"`
}

type ChatResponse struct {
	Reply           string  `json:"reply"`
	Source          string  `json:"source"`
	ArticleLink     *string `json:"article_link"`
	Confidence      float64 `json:"confidence"`
	RetrievalTimeMs float64 `json:"retrieval_time_ms"`
	LlmTimeMs       float64 `json:"llm_time_ms"`
	TotalTimeMs     float64 `json:"total_time_ms"`
	SessionId       string  `json:"session_id"`
}
