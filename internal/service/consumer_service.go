package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"campus-chatbot-be/internal/dto"
	"campus-chatbot-be/internal/model"
	"campus-chatbot-be/internal/repository/contract"
	"campus-chatbot-be/pkg/chat/search"
	"campus-chatbot-be/pkg/embedding"
	"campus-chatbot-be/pkg/retrieval"
	"campus-chatbot-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the ingestion worker: it drains the document topic,
// splits each document, embeds the chunks and appends them to the
// target partition.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	passages          contract.PassageRepository
	links             contract.DocumentLinkRepository
	embeddingProvider embedding.EmbeddingProvider
	retriever         *retrieval.VectorRetriever
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	passages contract.PassageRepository,
	links contract.DocumentLinkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	retriever *retrieval.VectorRetriever,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		passages:          passages,
		links:             links,
		embeddingProvider: embeddingProvider,
		retriever:         retriever,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Ingesting document into partition %q (content length: %d)",
		payload.Partition, len(payload.Content))

	// New passages are appended after the partition's existing ones so
	// source ids stay stable.
	base, err := cs.passages.CountByPartition(ctx, payload.Partition)
	if err != nil {
		log.Printf("[ERROR] Failed to count partition %q: %v", payload.Partition, err)
		msg.Nack()
		return
	}

	// ChunkSize 1500 chars with 200 overlap, same shape the instruction
	// documents were authored in.
	chunks := utils.SplitText(payload.Content, 1500, 200)
	log.Printf("[INFO] Content split into %d chunks", len(chunks))

	meta, _ := json.Marshal(map[string]string{"title": payload.Title})

	var newPassages []*model.Passage
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[ERROR] Failed to embed chunk %d for partition %q: %v", i, payload.Partition, err)
			msg.Nack()
			return
		}

		newPassages = append(newPassages, &model.Passage{
			Id:        uuid.New(),
			Partition: payload.Partition,
			Content:   chunk,
			Embedding: pgvector.NewVector(res.Embedding.Values),
			Position:  int(base) + i,
			Metadata:  datatypes.JSON(meta),
			CreatedAt: time.Now(),
		})
	}

	if err := cs.passages.CreateBulk(ctx, newPassages); err != nil {
		log.Printf("[ERROR] Failed to store passages: %v", err)
		msg.Nack()
		return
	}

	if payload.ArticleLink != "" {
		for _, p := range newPassages {
			link := &model.DocumentLink{
				SourceId: search.SourceID(p.Partition, p.Position),
				Url:      payload.ArticleLink,
				Title:    payload.Title,
			}
			if err := cs.links.Upsert(ctx, link); err != nil {
				log.Printf("[ERROR] Failed to upsert document link %s: %v", link.SourceId, err)
				msg.Nack()
				return
			}
		}
	}

	// A first document may have created a brand-new partition.
	if err := cs.retriever.RefreshPartitions(ctx); err != nil {
		log.Printf("[WARN] Failed to refresh partition registry: %v", err)
	}

	log.Printf("[SUCCESS] Ingested %d passages into %q", len(newPassages), payload.Partition)
	msg.Ack()
}
