package service

import (
	"context"
	"encoding/json"

	"campus-chatbot-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IIngestService interface {
	QueueDocument(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
}

// ingestService enqueues knowledge documents for asynchronous chunking
// and embedding so the HTTP request returns immediately.
type ingestService struct {
	pubSub    *gochannel.GoChannel
	topicName string
}

func NewIngestService(pubSub *gochannel.GoChannel, topicName string) IIngestService {
	return &ingestService{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (s *ingestService) QueueDocument(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	payload := dto.PublishIngestDocumentMessage{
		Partition:   request.Partition,
		Content:     request.Content,
		ArticleLink: request.ArticleLink,
		Title:       request.Title,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return nil, err
	}

	return &dto.IngestDocumentResponse{
		Partition: request.Partition,
		Queued:    true,
	}, nil
}
