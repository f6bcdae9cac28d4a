package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/pipeline"
	"github.com/BerylCAtieno/intpatient-api/internal/repository"
	"github.com/BerylCAtieno/intpatient-api/internal/storage"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

// PreviewLength is how many characters of the current translation a report
// listing shows.
const PreviewLength = 200

var allowedExtensions = map[models.Category][]string{
	models.CategoryRadiology: {"jpg", "jpeg", "png", "bmp", "dcm"},
	models.CategoryReport:    {"jpg", "jpeg", "png", "pdf"},
}

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"dcm":  "application/dicom",
	"pdf":  "application/pdf",
}

type RecordService interface {
	UploadRadiology(ctx context.Context, req *models.UploadRequest) (*models.RecordResponse, error)
	UploadReport(ctx context.Context, req *models.UploadRequest) (<-chan pipeline.Event, error)
	ReprocessReport(ctx context.Context, id string, user *models.User) (<-chan pipeline.Event, error)
	ListRecords(ctx context.Context, category models.Category) ([]models.RecordSummary, error)
	GetRecord(ctx context.Context, category models.Category, id string) (*models.RecordResponse, error)
	GetFile(ctx context.Context, category models.Category, id string) (*models.File, []byte, error)
	DeleteRecord(ctx context.Context, category models.Category, id string) error
}

type recordService struct {
	repo         repository.Repository
	storage      storage.Storage
	orchestrator *pipeline.Orchestrator
	logger       *utils.Logger
	now          func() time.Time
}

func NewRecordService(repo repository.Repository, store storage.Storage, orchestrator *pipeline.Orchestrator, logger *utils.Logger) RecordService {
	return &recordService{
		repo:         repo,
		storage:      store,
		orchestrator: orchestrator,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// FileExtension returns the lower-case extension of a filename without the dot.
func FileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

func validateUpload(req *models.UploadRequest) error {
	allowed, ok := allowedExtensions[req.Category]
	if !ok {
		return utils.NewBadRequestError(fmt.Sprintf("Unknown record type '%s'", req.Category))
	}
	if len(req.Files) == 0 {
		return utils.NewBadRequestError("No files provided")
	}

	for _, f := range req.Files {
		ext := FileExtension(f.Filename)
		if !contains(allowed, ext) {
			return utils.NewBadRequestError(fmt.Sprintf("Invalid file type: %s. Allowed: %s", f.Filename, strings.Join(allowed, ", ")))
		}
		if len(f.Content) == 0 {
			return utils.NewBadRequestError(fmt.Sprintf("Uploaded file is empty: %s", f.Filename))
		}
	}

	return nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// createRecord stores the bytes of every file and then writes the record and
// file rows. Objects already stored are removed when a later step fails.
func (s *recordService) createRecord(ctx context.Context, req *models.UploadRequest) (*models.Record, []models.File, error) {
	if err := validateUpload(req); err != nil {
		return nil, nil, err
	}

	now := s.now()
	record := &models.Record{
		ID:          utils.GenerateID(),
		RecordType:  req.Category,
		PatientNote: req.PatientNote,
		CreatedAt:   now,
		CreatedBy:   req.User.DisplayName(),
	}

	files := make([]models.File, 0, len(req.Files))
	for i, upload := range req.Files {
		ext := FileExtension(upload.Filename)
		key := path.Join(req.Category.URLSegment(), record.ID, utils.GenerateStorageName(ext))

		if err := s.storage.Upload(ctx, key, upload.Content, contentTypes[ext]); err != nil {
			s.logger.Error("Failed to store file", "error", err, "key", key, "filename", upload.Filename)
			s.removeObjects(files)
			return nil, nil, utils.NewInternalError("Failed to store uploaded files")
		}

		files = append(files, models.File{
			ID:               utils.GenerateID(),
			RecordID:         record.ID,
			OriginalFilename: upload.Filename,
			StoredPath:       key,
			FileType:         ext,
			Position:         i,
			CreatedAt:        now,
		})
	}

	if err := s.repo.CreateRecord(ctx, record, files); err != nil {
		s.logger.Error("Failed to save record", "error", err, "record_id", record.ID)
		s.removeObjects(files)
		return nil, nil, utils.NewInternalError("Failed to save record")
	}

	s.logger.Info("Record created",
		"id", record.ID,
		"record_type", record.RecordType,
		"files", len(files),
		"created_by", record.CreatedBy)

	return record, files, nil
}

// removeObjects deletes stored bytes on a best-effort basis.
func (s *recordService) removeObjects(files []models.File) {
	ctx := context.Background()
	for _, f := range files {
		if err := s.storage.Delete(ctx, f.StoredPath); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to remove stored file", "error", err, "key", f.StoredPath)
		}
	}
}

func (s *recordService) UploadRadiology(ctx context.Context, req *models.UploadRequest) (*models.RecordResponse, error) {
	req.Category = models.CategoryRadiology

	record, files, err := s.createRecord(ctx, req)
	if err != nil {
		return nil, err
	}

	return models.NewRecordResponse(record, files), nil
}

func (s *recordService) ListRecords(ctx context.Context, category models.Category) ([]models.RecordSummary, error) {
	records, err := s.repo.ListRecords(ctx, category)
	if err != nil {
		s.logger.Error("Failed to list records", "error", err, "record_type", category)
		return nil, utils.NewInternalError("Failed to list records")
	}

	if category != models.CategoryReport {
		return records, nil
	}

	for i := range records {
		preview, err := s.preview(ctx, records[i].ID)
		if err != nil {
			s.logger.Error("Failed to load translation preview", "error", err, "record_id", records[i].ID)
			return nil, utils.NewInternalError("Failed to list records")
		}
		records[i].Preview = &preview
	}

	return records, nil
}

// preview is the start of the current translation of a record's first file.
func (s *recordService) preview(ctx context.Context, recordID string) (string, error) {
	files, err := s.repo.ListFiles(ctx, recordID)
	if err != nil || len(files) == 0 {
		return "", err
	}

	latest, err := s.repo.LatestTranslation(ctx, files[0].ID)
	if err != nil || latest == nil {
		return "", err
	}

	return truncate(latest.TranslatedText, PreviewLength), nil
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

func (s *recordService) lookup(ctx context.Context, category models.Category, id string) (*models.Record, []models.File, error) {
	record, err := s.repo.GetRecord(ctx, category, id)
	if err != nil {
		s.logger.Error("Failed to get record", "error", err, "id", id)
		return nil, nil, utils.NewInternalError("Failed to retrieve record")
	}
	if record == nil {
		return nil, nil, utils.NewNotFoundError("Record not found")
	}

	files, err := s.repo.ListFiles(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list files", "error", err, "record_id", id)
		return nil, nil, utils.NewInternalError("Failed to retrieve record")
	}

	return record, files, nil
}

func (s *recordService) GetRecord(ctx context.Context, category models.Category, id string) (*models.RecordResponse, error) {
	record, files, err := s.lookup(ctx, category, id)
	if err != nil {
		return nil, err
	}

	resp := models.NewRecordResponse(record, files)
	if category != models.CategoryReport {
		return resp, nil
	}

	fileIDs := make([]string, 0, len(files))
	for _, f := range files {
		fileIDs = append(fileIDs, f.ID)
	}

	history, err := s.repo.ListTranslations(ctx, fileIDs)
	if err != nil {
		s.logger.Error("Failed to list translations", "error", err, "record_id", id)
		return nil, utils.NewInternalError("Failed to retrieve record")
	}

	for i := range resp.Files {
		entries := history[resp.Files[i].ID]
		resp.Files[i].Translations = make([]models.TranslationHistoryEntry, 0, len(entries))
		for _, t := range entries {
			resp.Files[i].Translations = append(resp.Files[i].Translations, models.TranslationHistoryEntry{
				ID:                    t.ID,
				OriginalText:          t.OriginalText,
				TranslatedText:        t.TranslatedText,
				OCRDurationMs:         t.OCRDurationMs,
				TranslationDurationMs: t.TranslationDurationMs,
				CreatedAt:             t.CreatedAt,
			})
		}
		if n := len(entries); n > 0 {
			resp.Files[i].Translation = payload(entries[n-1])
		}
	}

	return resp, nil
}

func payload(t models.TranslationResult) *models.TranslationPayload {
	return &models.TranslationPayload{
		OriginalText:          t.OriginalText,
		TranslatedText:        t.TranslatedText,
		OCRDurationMs:         t.OCRDurationMs,
		TranslationDurationMs: t.TranslationDurationMs,
	}
}

func (s *recordService) GetFile(ctx context.Context, category models.Category, id string) (*models.File, []byte, error) {
	file, err := s.repo.GetFile(ctx, category, id)
	if err != nil {
		s.logger.Error("Failed to get file", "error", err, "id", id)
		return nil, nil, utils.NewInternalError("Failed to retrieve file")
	}
	if file == nil {
		return nil, nil, utils.NewNotFoundError("File not found")
	}

	data, err := s.storage.Download(ctx, file.StoredPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, utils.NewNotFoundError("File not found in storage")
	}
	if err != nil {
		s.logger.Error("Failed to download file", "error", err, "key", file.StoredPath)
		return nil, nil, utils.NewInternalError("Failed to retrieve file")
	}

	return file, data, nil
}

func (s *recordService) DeleteRecord(ctx context.Context, category models.Category, id string) error {
	files, err := s.repo.ListFiles(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list files", "error", err, "record_id", id)
		return utils.NewInternalError("Failed to delete record")
	}

	err = s.repo.DeleteRecord(ctx, category, id)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.NewNotFoundError("Record not found")
	}
	if err != nil {
		s.logger.Error("Failed to delete record", "error", err, "id", id)
		return utils.NewInternalError("Failed to delete record")
	}

	s.removeObjects(files)
	s.logger.Info("Record deleted", "id", id, "record_type", category, "files", len(files))

	return nil
}
