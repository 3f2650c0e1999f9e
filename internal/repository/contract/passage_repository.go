package contract

import (
	"context"

	"campus-chatbot-be/internal/model"
)

// ScoredPassage wraps a Passage with its cosine similarity score
type ScoredPassage struct {
	Passage    *model.Passage
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type PassageRepository interface {
	CreateBulk(ctx context.Context, passages []*model.Passage) error
	DeleteByPartition(ctx context.Context, partition string) error
	CountByPartition(ctx context.Context, partition string) (int64, error)
	ListPartitions(ctx context.Context) ([]string, error)
	// SearchSimilarWithScore returns the top passages of one partition
	// ranked by cosine similarity to the query vector.
	SearchSimilarWithScore(ctx context.Context, partition string, embedding []float32, limit int) ([]*ScoredPassage, error)
}
