package service

import (
	"context"
	"time"

	"campus-chatbot-be/internal/dto"
	"campus-chatbot-be/internal/repository/memory"
	"campus-chatbot-be/pkg/chat/search"
	"campus-chatbot-be/pkg/llm"
	"campus-chatbot-be/pkg/store"
)

type IAdminService interface {
	GetSessionStats(ctx context.Context) *dto.SessionStatsResponse
	DeleteSession(ctx context.Context, sessionID string) bool
	DebugRetrieval(ctx context.Context, request *dto.RetrievalDebugRequest) (*dto.RetrievalDebugResponse, error)
	DebugLlm(ctx context.Context, request *dto.LlmDebugRequest) (*dto.LlmDebugResponse, error)
}

// adminService backs the operator endpoints: session inspection and the
// isolated retrieval-only / llm-only probes used to profile each stage.
type adminService struct {
	sessionRepo *memory.SessionRepository
	retriever   search.Retriever
	llmProvider llm.LLMProvider
	sessionTTL  time.Duration
}

func NewAdminService(
	sessionRepo *memory.SessionRepository,
	retriever search.Retriever,
	llmProvider llm.LLMProvider,
	sessionTTL time.Duration,
) IAdminService {
	return &adminService{
		sessionRepo: sessionRepo,
		retriever:   retriever,
		llmProvider: llmProvider,
		sessionTTL:  sessionTTL,
	}
}

func (s *adminService) GetSessionStats(ctx context.Context) *dto.SessionStatsResponse {
	s.sessionRepo.SweepExpired(time.Now(), s.sessionTTL)

	sessions := s.sessionRepo.List()
	summaries := make([]dto.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, dto.SessionSummary{
			Id:            truncateID(sess.ID),
			HistoryLength: len(sess.History),
			PendingSlot:   string(sess.PendingSlot),
			LastActivity:  sess.LastActivity.Format(time.RFC3339),
			AgeMinutes:    time.Since(sess.CreatedAt).Minutes(),
		})
	}

	return &dto.SessionStatsResponse{
		ActiveSessions: len(summaries),
		Sessions:       summaries,
	}
}

func (s *adminService) DeleteSession(ctx context.Context, sessionID string) bool {
	return s.sessionRepo.Delete(sessionID)
}

func (s *adminService) DebugRetrieval(ctx context.Context, request *dto.RetrievalDebugRequest) (*dto.RetrievalDebugResponse, error) {
	topK := request.TopK
	if topK <= 0 {
		topK = 3
	}

	start := time.Now()
	passages, err := s.retriever.Search(ctx, request.Query, request.Partition, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]dto.RetrievalDebugHit, len(passages))
	for i, p := range passages {
		hits[i] = dto.RetrievalDebugHit{
			Content:  p.Content,
			Score:    p.Score,
			Position: p.Position,
		}
	}

	return &dto.RetrievalDebugResponse{
		Partition:       request.Partition,
		Hits:            hits,
		RetrievalTimeMs: msSince(start),
	}, nil
}

func (s *adminService) DebugLlm(ctx context.Context, request *dto.LlmDebugRequest) (*dto.LlmDebugResponse, error) {
	start := time.Now()
	reply, err := s.llmProvider.Chat(ctx, []llm.Message{
		{Role: store.RoleUser, Content: request.Message},
	})
	if err != nil {
		return nil, err
	}

	return &dto.LlmDebugResponse{
		Reply:     reply,
		LlmTimeMs: msSince(start),
	}, nil
}

// truncateID hides the full session id from the stats listing.
func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
