package dto

type IngestDocumentRequest struct {
	Partition   string `json:"partition" validate:"required,min=1,max=64"`
	Content     string `json:"content" validate:"required,min=1"`
	ArticleLink string `json:"article_link" validate:"omitempty,url"`
	Title       string `json:"title" validate:"omitempty,max=255"`
}

// PublishIngestDocumentMessage is the payload queued for the ingestion
// consumer.
type PublishIngestDocumentMessage struct {
	Partition   string `json:"partition"`
	Content     string `json:"content"`
	ArticleLink string `json:"article_link,omitempty"`
	Title       string `json:"title,omitempty"`
}

type IngestDocumentResponse struct {
	Partition string `json:"partition"`
	Queued    bool   `json:"queued"`
}
