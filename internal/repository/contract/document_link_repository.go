package contract

import (
	"context"

	"campus-chatbot-be/internal/model"
)

type DocumentLinkRepository interface {
	Upsert(ctx context.Context, link *model.DocumentLink) error
	FindBySourceId(ctx context.Context, sourceId string) (*model.DocumentLink, error)
}
