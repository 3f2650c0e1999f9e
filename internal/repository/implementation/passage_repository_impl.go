package implementation

import (
	"context"

	"campus-chatbot-be/internal/model"
	"campus-chatbot-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PassageRepositoryImpl struct {
	db *gorm.DB
}

func NewPassageRepository(db *gorm.DB) contract.PassageRepository {
	return &PassageRepositoryImpl{db: db}
}

func (r *PassageRepositoryImpl) CreateBulk(ctx context.Context, passages []*model.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(passages).Error
}

func (r *PassageRepositoryImpl) DeleteByPartition(ctx context.Context, partition string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("partition = ?", partition).
		Delete(&model.Passage{}).Error
}

func (r *PassageRepositoryImpl) CountByPartition(ctx context.Context, partition string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Passage{}).
		Where("partition = ?", partition).
		Count(&count).Error
	return count, err
}

func (r *PassageRepositoryImpl) ListPartitions(ctx context.Context) ([]string, error) {
	var partitions []string
	err := r.db.WithContext(ctx).Model(&model.Passage{}).
		Distinct("partition").
		Order("partition").
		Pluck("partition", &partitions).Error
	return partitions, err
}

func (r *PassageRepositoryImpl) SearchSimilarWithScore(ctx context.Context, partition string, embedding []float32, limit int) ([]*contract.ScoredPassage, error) {
	if limit <= 0 {
		limit = 3
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) gives the similarity back.
	type result struct {
		model.Passage
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("passages").
		Select("passages.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("partition = ?", partition).
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPassage, len(results))
	for i := range results {
		p := results[i].Passage
		scored[i] = &contract.ScoredPassage{
			Passage:    &p,
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
