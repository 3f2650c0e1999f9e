package bootstrap

import (
	"context"
	"log"

	"campus-chatbot-be/internal/config"
	"campus-chatbot-be/internal/controller"
	"campus-chatbot-be/internal/pkg/logger"
	"campus-chatbot-be/internal/pkg/ratelimit"
	"campus-chatbot-be/internal/repository/implementation"
	"campus-chatbot-be/internal/repository/memory"
	"campus-chatbot-be/internal/service"
	"campus-chatbot-be/pkg/embedding"
	"campus-chatbot-be/pkg/llm/factory"
	pktNats "campus-chatbot-be/pkg/nats"
	"campus-chatbot-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	AdminController  controller.IAdminController
	IngestController controller.IIngestController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	ChatService     service.IChatService

	// Shared infrastructure, exposed for shutdown
	Logger    logger.ILogger
	NatsPub   *pktNats.Publisher
	Limiter   *ratelimit.RedisLimiter
	Retriever *retrieval.VectorRetriever
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus (in-process ingestion queue)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Repositories
	passageRepo := implementation.NewPassageRepository(db)
	linkRepo := implementation.NewDocumentLinkRepository(db)
	sessionRepo := memory.NewSessionRepository()

	// 5. Retrieval
	retrieverLogger := log.Default()
	retriever := retrieval.NewVectorRetriever(embeddingProvider, passageRepo, retrieverLogger)
	if err := retriever.RefreshPartitions(context.Background()); err != nil {
		log.Printf("[WARN] Failed to load partition registry: %v", err)
	}

	// 6. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	limiter := ratelimit.NewRedisLimiter(cfg.App.RedisURL, cfg.Chat.TurnsPerMinute, sysLogger)

	// 7. Services
	chatService := service.NewChatService(
		sessionRepo,
		linkRepo,
		limiter,
		natsPub,
		retriever,
		llmProvider,
		cfg.Chat.RetrievalTopK,
		cfg.Chat.ConfidenceThreshold,
		cfg.Chat.SessionTTL,
		cfg.Chat.HistoryBound,
	)
	adminService := service.NewAdminService(sessionRepo, retriever, llmProvider, cfg.Chat.SessionTTL)
	ingestService := service.NewIngestService(pubSub, cfg.Chat.IngestTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Chat.IngestTopic,
		passageRepo,
		linkRepo,
		embeddingProvider,
		retriever,
	)

	return &Container{
		ChatController:   controller.NewChatController(chatService),
		AdminController:  controller.NewAdminController(adminService),
		IngestController: controller.NewIngestController(ingestService),
		ConsumerService:  consumerService,
		ChatService:      chatService,
		Logger:           sysLogger,
		NatsPub:          natsPub,
		Limiter:          limiter,
		Retriever:        retriever,
	}
}
