package models

import (
	"time"
)

type Category string

const (
	CategoryRadiology Category = "radiology"
	CategoryReport    Category = "report"
)

// URLSegment is the path segment the category is served under.
func (c Category) URLSegment() string {
	if c == CategoryReport {
		return "reports"
	}
	return string(c)
}

type Record struct {
	ID          string    `json:"id" db:"id"`
	RecordType  Category  `json:"record_type" db:"record_type"`
	PatientNote *string   `json:"patient_note" db:"patient_note"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
}

type File struct {
	ID               string    `json:"id" db:"id"`
	RecordID         string    `json:"record_id" db:"record_id"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	StoredPath       string    `json:"-" db:"stored_path"`
	FileType         string    `json:"file_type" db:"file_type"`
	Position         int       `json:"-" db:"position"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type TranslationResult struct {
	ID                    string    `json:"id" db:"id"`
	FileID                string    `json:"file_id" db:"file_id"`
	OriginalText          string    `json:"original_text" db:"original_text"`
	TranslatedText        string    `json:"translated_text" db:"translated_text"`
	OCRDurationMs         int64     `json:"ocr_duration_ms" db:"ocr_duration_ms"`
	TranslationDurationMs int64     `json:"translation_duration_ms" db:"translation_duration_ms"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// RecordSummary is one row of a record listing.
type RecordSummary struct {
	ID          string    `json:"id" db:"id"`
	PatientNote *string   `json:"patient_note" db:"patient_note"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	FileCount   int       `json:"file_count" db:"file_count"`
	// Preview is only populated for report listings.
	Preview *string `json:"translation_preview,omitempty" db:"-"`
}

type UploadedFile struct {
	Filename string
	Content  []byte
}

type UploadRequest struct {
	Category    Category
	Files       []UploadedFile
	PatientNote *string
	User        *User
}

type TranslationPayload struct {
	OriginalText          string `json:"original_text"`
	TranslatedText        string `json:"translated_text"`
	OCRDurationMs         int64  `json:"ocr_duration_ms"`
	TranslationDurationMs int64  `json:"translation_duration_ms"`
}

type TranslationHistoryEntry struct {
	ID                    string    `json:"id"`
	OriginalText          string    `json:"original_text"`
	TranslatedText        string    `json:"translated_text"`
	OCRDurationMs         int64     `json:"ocr_duration_ms"`
	TranslationDurationMs int64     `json:"translation_duration_ms"`
	CreatedAt             time.Time `json:"created_at"`
}

type FileResponse struct {
	ID               string                    `json:"id"`
	OriginalFilename string                    `json:"original_filename"`
	FileType         string                    `json:"file_type"`
	DownloadURL      string                    `json:"download_url"`
	Translation      *TranslationPayload       `json:"translation,omitempty"`
	Translations     []TranslationHistoryEntry `json:"translations,omitempty"`
}

type RecordResponse struct {
	ID          string         `json:"id"`
	RecordType  Category       `json:"record_type"`
	PatientNote *string        `json:"patient_note"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   string         `json:"created_by"`
	Files       []FileResponse `json:"files"`
}

// DownloadURL is the API path a stored file can be fetched from.
func DownloadURL(category Category, fileID string) string {
	return "/api/" + category.URLSegment() + "/files/" + fileID
}

// NewFileResponse builds the response entry for a stored file without translation data.
func NewFileResponse(category Category, f File) FileResponse {
	return FileResponse{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		FileType:         f.FileType,
		DownloadURL:      DownloadURL(category, f.ID),
	}
}

// NewRecordResponse builds a record response with its files in upload order.
func NewRecordResponse(record *Record, files []File) *RecordResponse {
	resp := &RecordResponse{
		ID:          record.ID,
		RecordType:  record.RecordType,
		PatientNote: record.PatientNote,
		CreatedAt:   record.CreatedAt,
		CreatedBy:   record.CreatedBy,
		Files:       make([]FileResponse, 0, len(files)),
	}
	for _, f := range files {
		resp.Files = append(resp.Files, NewFileResponse(record.RecordType, f))
	}
	return resp
}
