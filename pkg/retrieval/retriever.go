package retrieval

import (
	"context"
	"fmt"
	"log"
	"sync"

	"campus-chatbot-be/internal/repository/contract"
	"campus-chatbot-be/pkg/chat/search"
	"campus-chatbot-be/pkg/embedding"
)

// VectorRetriever answers search.Retriever queries against the pgvector
// passage store. Known partitions are loaded once at startup and after
// each ingestion run, so a query for a partition that was never seeded
// fails fast with ErrPartitionNotFound instead of returning an empty
// result set.
type VectorRetriever struct {
	embedder embedding.EmbeddingProvider
	passages contract.PassageRepository
	logger   *log.Logger

	mu         sync.RWMutex
	partitions map[string]struct{}
}

func NewVectorRetriever(embedder embedding.EmbeddingProvider, passages contract.PassageRepository, logger *log.Logger) *VectorRetriever {
	return &VectorRetriever{
		embedder:   embedder,
		passages:   passages,
		logger:     logger,
		partitions: make(map[string]struct{}),
	}
}

// RefreshPartitions reloads the partition registry from the store.
func (r *VectorRetriever) RefreshPartitions(ctx context.Context) error {
	names, err := r.passages.ListPartitions(ctx)
	if err != nil {
		return fmt.Errorf("list partitions: %w", err)
	}

	registry := make(map[string]struct{}, len(names))
	for _, name := range names {
		registry[name] = struct{}{}
	}

	r.mu.Lock()
	r.partitions = registry
	r.mu.Unlock()

	r.logger.Printf("[RETRIEVAL] Partition registry loaded: %v", names)
	return nil
}

func (r *VectorRetriever) hasPartition(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.partitions[name]
	return ok
}

func (r *VectorRetriever) Search(ctx context.Context, query, partition string, k int) ([]search.ScoredPassage, error) {
	if !r.hasPartition(partition) {
		return nil, fmt.Errorf("%w: %s", search.ErrPartitionNotFound, partition)
	}

	resp, err := r.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.passages.SearchSimilarWithScore(ctx, partition, resp.Embedding.Values, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]search.ScoredPassage, len(scored))
	for i, s := range scored {
		results[i] = search.ScoredPassage{
			Content:   s.Passage.Content,
			Score:     s.Similarity,
			Partition: partition,
			Position:  s.Passage.Position,
		}
	}
	return results, nil
}
