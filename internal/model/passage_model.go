package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Passage is one retrievable chunk of a knowledge partition. Partitions
// are read-only at serving time; rows are written by the ingestion
// pipeline only.
type Passage struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Partition string          `gorm:"type:varchar(64);not null;index"`
	Content   string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 / nomic-embed-text use 768 dimensions
	Position  int             `gorm:"default:0"`        // 0-based index within the partition
	Metadata  datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt  `gorm:"index"`
}

func (Passage) TableName() string {
	return "passages"
}
