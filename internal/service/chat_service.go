package service

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"campus-chatbot-be/internal/dto"
	"campus-chatbot-be/internal/pkg/ratelimit"
	"campus-chatbot-be/internal/repository/contract"
	"campus-chatbot-be/internal/repository/memory"
	"campus-chatbot-be/pkg/chat/dialog"
	"campus-chatbot-be/pkg/chat/extract"
	"campus-chatbot-be/pkg/chat/response"
	"campus-chatbot-be/pkg/chat/search"
	"campus-chatbot-be/pkg/events"
	"campus-chatbot-be/pkg/llm"
	natspub "campus-chatbot-be/pkg/nats"
	"campus-chatbot-be/pkg/store"

	"github.com/google/uuid"
)

// ErrRateLimited is returned when a session sends turns faster than the
// configured per-minute limit.
var ErrRateLimited = errors.New("session rate limit exceeded")

type IChatService interface {
	SendChat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
	SweepExpiredSessions(ctx context.Context)
}

// chatService runs the per-turn pipeline: sweep expired sessions,
// lock the session, extract signals, step the dialogue machine, route
// retrieval, generate the reply, record the turn.
type chatService struct {
	sessionRepo *memory.SessionRepository
	links       contract.DocumentLinkRepository
	limiter     *ratelimit.RedisLimiter
	publisher   *natspub.Publisher

	machine   *dialog.Machine
	router    *search.Router
	assembler *response.Assembler

	sessionTTL          time.Duration
	historyBound        int
	confidenceThreshold float64
	turnLogger          *log.Logger
}

func NewChatService(
	sessionRepo *memory.SessionRepository,
	links contract.DocumentLinkRepository,
	limiter *ratelimit.RedisLimiter,
	publisher *natspub.Publisher,
	retriever search.Retriever,
	llmProvider llm.LLMProvider,
	topK int,
	confidenceThreshold float64,
	sessionTTL time.Duration,
	historyBound int,
) IChatService {
	turnLogger := initTurnLogger()

	return &chatService{
		sessionRepo:         sessionRepo,
		links:               links,
		limiter:             limiter,
		publisher:           publisher,
		machine:             dialog.NewMachine(turnLogger),
		router:              search.NewRouter(retriever, topK, confidenceThreshold, turnLogger),
		assembler:           response.NewAssembler(llmProvider, historyBound, turnLogger),
		sessionTTL:          sessionTTL,
		historyBound:        historyBound,
		confidenceThreshold: confidenceThreshold,
		turnLogger:          turnLogger,
	}
}

func initTurnLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "chat_turns.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[CHAT] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (s *chatService) SendChat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	requestStart := time.Now()

	sessionID := request.SessionId
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if s.limiter != nil && !s.limiter.Allow(ctx, sessionID) {
		return nil, ErrRateLimited
	}

	s.sweepExpired(ctx)

	var resp *dto.ChatResponse
	s.sessionRepo.WithLock(sessionID, func() {
		resp = s.runTurn(ctx, sessionID, request.Message, requestStart)
	})
	return resp, nil
}

// SweepExpiredSessions reaps idle sessions. It also runs opportunistically
// at turn start, so the background ticker only covers quiet periods.
func (s *chatService) SweepExpiredSessions(ctx context.Context) {
	s.sweepExpired(ctx)
}

func (s *chatService) sweepExpired(ctx context.Context) {
	expired := s.sessionRepo.SweepExpired(time.Now(), s.sessionTTL)
	for _, sess := range expired {
		s.turnLogger.Printf("[SESSION] Expired: %s (%d turns)", sess.ID, len(sess.History))
		s.publishEvent(ctx, events.NewSessionExpired(sess.ID, len(sess.History), time.Since(sess.CreatedAt)))
	}
}

func (s *chatService) runTurn(ctx context.Context, sessionID, message string, requestStart time.Time) *dto.ChatResponse {
	now := time.Now()
	session, created := s.sessionRepo.GetOrCreate(sessionID, now)
	if created {
		s.turnLogger.Printf("[SESSION] Created: %s", sessionID)
	}
	session.LastActivity = now

	sig := extract.Extract(message)
	decision := s.machine.Step(session, message, sig)

	// Clarification turns short-circuit: no retrieval, no generation.
	if decision.Clarification != "" {
		s.recordTurn(session, message, decision.Clarification)
		resp := &dto.ChatResponse{
			Reply:       decision.Clarification,
			Source:      decision.Source,
			Confidence:  0.0,
			TotalTimeMs: msSince(requestStart),
			SessionId:   sessionID,
		}
		s.publishTurn(ctx, sessionID, decision.Intent, decision.Source, resp)
		return resp
	}

	retrievalStart := time.Now()
	retrieved, err := s.router.Route(ctx, session, message, decision)
	if err != nil {
		// Retrieval transport failure: proceed ungrounded, the turn
		// must still complete.
		s.turnLogger.Printf("[SEARCH] Retrieval failed: %v", err)
		retrieved = &search.Result{Source: search.SourceLLMOnly}
	}
	retrievalMs := msSince(retrievalStart)

	llmStart := time.Now()
	reply := s.assembler.Generate(ctx, session, message, decision, sig, retrieved)
	llmMs := msSince(llmStart)

	s.recordTurn(session, message, reply)

	resp := &dto.ChatResponse{
		Reply:           reply,
		Source:          retrieved.Source,
		ArticleLink:     s.resolveArticleLink(ctx, retrieved),
		Confidence:      retrieved.Confidence,
		RetrievalTimeMs: retrievalMs,
		LlmTimeMs:       llmMs,
		TotalTimeMs:     msSince(requestStart),
		SessionId:       sessionID,
	}
	s.publishTurn(ctx, sessionID, decision.Intent, retrieved.Source, resp)
	return resp
}

func (s *chatService) recordTurn(session *store.Session, message, reply string) {
	session.AppendTurn(store.RoleUser, message)
	session.AppendTurn(store.RoleAssistant, reply)
	session.TrimHistory(s.historyBound)
}

// resolveArticleLink prefers the link embedded in the passage text and
// falls back to the document-link table keyed by source id. Weak matches
// keep their context but never surface a link.
func (s *chatService) resolveArticleLink(ctx context.Context, retrieved *search.Result) *string {
	if retrieved.Source == search.SourceLLMOnly {
		return nil
	}
	if retrieved.Confidence < s.confidenceThreshold {
		return nil
	}
	if retrieved.ArticleLink != "" {
		link := retrieved.ArticleLink
		return &link
	}
	if s.links == nil {
		return nil
	}
	doc, err := s.links.FindBySourceId(ctx, retrieved.Source)
	if err != nil {
		s.turnLogger.Printf("[SEARCH] Document link lookup failed for %s: %v", retrieved.Source, err)
		return nil
	}
	if doc == nil {
		return nil
	}
	return &doc.Url
}

func (s *chatService) publishTurn(ctx context.Context, sessionID, intent, source string, resp *dto.ChatResponse) {
	s.publishEvent(ctx, events.NewTurnCompleted(
		sessionID, intent, source, resp.Confidence,
		resp.RetrievalTimeMs, resp.LlmTimeMs, resp.TotalTimeMs,
	))
}

// publishEvent sends an analytics event, best effort.
func (s *chatService) publishEvent(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.turnLogger.Printf("[EVENTS] Publish %s failed: %v", event.EventType(), err)
	}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
