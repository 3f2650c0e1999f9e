package model

import "time"

// DocumentLink maps a retrieval source id (e.g. INSTR_CENGAGE_SOURCE_2)
// to the article URL shown back to the user alongside an answer.
type DocumentLink struct {
	SourceId  string    `gorm:"type:varchar(64);primaryKey"`
	Url       string    `gorm:"type:text;not null"`
	Title     string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (DocumentLink) TableName() string {
	return "document_links"
}
