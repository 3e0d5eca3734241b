package dto

import "github.com/noah-isme/doc-intake-api/internal/models"

// SubmitDocumentForm carries the multipart fields accompanying an
// uploaded document. The file itself arrives as the "file" part.
type SubmitDocumentForm struct {
	SourceType    string `form:"source_type"`
	ExtractedText string `form:"extracted_text"`
}

// JournalQuery mirrors supported ledger listing filters.
type JournalQuery struct {
	Status       string `form:"status"`
	DocumentType string `form:"document_type"`
	SourceType   string `form:"source_type"`
	Duplicates   *bool  `form:"duplicates"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// JournalListResponse wraps a ledger page.
type JournalListResponse struct {
	Entries    []models.JournalEntry `json:"entries"`
	Pagination models.Pagination     `json:"pagination"`
}

// CompleteItemRequest is a worker's terminal report for a claimed item.
type CompleteItemRequest struct {
	Success      bool                   `json:"success"`
	ResultData   map[string]interface{} `json:"result_data,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}
