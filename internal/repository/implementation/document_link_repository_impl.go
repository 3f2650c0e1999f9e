package implementation

import (
	"context"
	"errors"
	"time"

	"campus-chatbot-be/internal/model"
	"campus-chatbot-be/internal/repository/contract"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentLinkRepositoryImpl struct {
	db *gorm.DB
	// Link rows change only on ingest, so lookups are cached. A miss is
	// cached too: most passages carry no article link.
	cache *gocache.Cache
}

func NewDocumentLinkRepository(db *gorm.DB) contract.DocumentLinkRepository {
	return &DocumentLinkRepositoryImpl{
		db:    db,
		cache: gocache.New(10*time.Minute, 15*time.Minute),
	}
}

func (r *DocumentLinkRepositoryImpl) Upsert(ctx context.Context, link *model.DocumentLink) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "title", "updated_at"}),
		}).
		Create(link).Error
	if err == nil {
		r.cache.Delete(link.SourceId)
	}
	return err
}

func (r *DocumentLinkRepositoryImpl) FindBySourceId(ctx context.Context, sourceId string) (*model.DocumentLink, error) {
	if cached, found := r.cache.Get(sourceId); found {
		if cached == nil {
			return nil, nil
		}
		return cached.(*model.DocumentLink), nil
	}

	var m model.DocumentLink
	if err := r.db.WithContext(ctx).Where("source_id = ?", sourceId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.cache.Set(sourceId, nil, gocache.DefaultExpiration)
			return nil, nil
		}
		return nil, err
	}

	r.cache.Set(sourceId, &m, gocache.DefaultExpiration)
	return &m, nil
}
