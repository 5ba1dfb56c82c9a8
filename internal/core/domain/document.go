package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusIndexed    DocumentStatus = "indexed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the metadata record for an uploaded file. The file body lives
// in object storage; the derived chunks live in the vector index tagged with
// this document's ID and owner.
type Document struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Filename    string         `json:"filename"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	ChunkCount  int            `json:"chunk_count"`
	Error       string         `json:"error,omitempty"`
	UploadedAt  time.Time      `json:"upload_timestamp"`
}

// ScrapedPage is one documentation page as delivered by the crawler or the
// live search fetcher.
type ScrapedPage struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Snippet string `json:"snippet,omitempty"`
}
