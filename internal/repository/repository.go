package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateRecord(ctx context.Context, record *models.Record, files []models.File) error
	GetRecord(ctx context.Context, category models.Category, id string) (*models.Record, error)
	ListRecords(ctx context.Context, category models.Category) ([]models.RecordSummary, error)
	ListFiles(ctx context.Context, recordID string) ([]models.File, error)
	GetFile(ctx context.Context, category models.Category, id string) (*models.File, error)
	DeleteRecord(ctx context.Context, category models.Category, id string) error
	SaveTranslations(ctx context.Context, results []models.TranslationResult) error
	ListTranslations(ctx context.Context, fileIDs []string) (map[string][]models.TranslationResult, error)
	LatestTranslation(ctx context.Context, fileID string) (*models.TranslationResult, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateRecord inserts a record together with its files in one transaction.
func (r *repository) CreateRecord(ctx context.Context, record *models.Record, files []models.File) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, record_type, patient_note, created_at, created_by)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, record.RecordType, record.PatientNote, record.CreatedAt, record.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	for _, f := range files {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO uploaded_files (id, record_id, original_filename, stored_path, file_type, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, f.ID, record.ID, f.OriginalFilename, f.StoredPath, f.FileType, f.Position, f.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert file %s: %w", f.OriginalFilename, err)
		}
	}

	return tx.Commit()
}

func (r *repository) GetRecord(ctx context.Context, category models.Category, id string) (*models.Record, error) {
	var record models.Record

	err := r.db.GetContext(ctx, &record, `
		SELECT id, record_type, patient_note, created_at, created_by
		FROM records
		WHERE id = ? AND record_type = ?
	`, id, category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *repository) ListRecords(ctx context.Context, category models.Category) ([]models.RecordSummary, error) {
	records := []models.RecordSummary{}

	err := r.db.SelectContext(ctx, &records, `
		SELECT r.id, r.patient_note, r.created_at, r.created_by, COUNT(f.id) AS file_count
		FROM records r
		LEFT JOIN uploaded_files f ON f.record_id = r.id
		WHERE r.record_type = ?
		GROUP BY r.id
		ORDER BY r.created_at DESC
	`, category)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// ListFiles returns a record's files in upload order.
func (r *repository) ListFiles(ctx context.Context, recordID string) ([]models.File, error) {
	files := []models.File{}

	err := r.db.SelectContext(ctx, &files, `
		SELECT id, record_id, original_filename, stored_path, file_type, position, created_at
		FROM uploaded_files
		WHERE record_id = ?
		ORDER BY position
	`, recordID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

// GetFile only returns files whose record belongs to the given category.
func (r *repository) GetFile(ctx context.Context, category models.Category, id string) (*models.File, error) {
	var file models.File

	err := r.db.GetContext(ctx, &file, `
		SELECT f.id, f.record_id, f.original_filename, f.stored_path, f.file_type, f.position, f.created_at
		FROM uploaded_files f
		JOIN records r ON r.id = f.record_id
		WHERE f.id = ? AND r.record_type = ?
	`, id, category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &file, nil
}

// DeleteRecord removes a record with its files and translations.
func (r *repository) DeleteRecord(ctx context.Context, category models.Category, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM records WHERE id = ? AND record_type = ?`, id, category)
	if err != nil {
		return fmt.Errorf("lookup record: %w", err)
	}
	if exists == 0 {
		return sql.ErrNoRows
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM translations
		WHERE file_id IN (SELECT id FROM uploaded_files WHERE record_id = ?)
	`, id)
	if err != nil {
		return fmt.Errorf("delete translations: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM uploaded_files WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return tx.Commit()
}

// SaveTranslations appends all results of one pipeline run atomically.
func (r *repository) SaveTranslations(ctx context.Context, results []models.TranslationResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range results {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO translations (id, file_id, original_text, translated_text, ocr_duration_ms, translation_duration_ms, created_at)
			VALUES (:id, :file_id, :original_text, :translated_text, :ocr_duration_ms, :translation_duration_ms, :created_at)
		`, t)
		if err != nil {
			return fmt.Errorf("insert translation for file %s: %w", t.FileID, err)
		}
	}

	return tx.Commit()
}

// ListTranslations groups every stored result by file, oldest first.
func (r *repository) ListTranslations(ctx context.Context, fileIDs []string) (map[string][]models.TranslationResult, error) {
	grouped := make(map[string][]models.TranslationResult, len(fileIDs))
	if len(fileIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, file_id, original_text, translated_text, ocr_duration_ms, translation_duration_ms, created_at
		FROM translations
		WHERE file_id IN (?)
		ORDER BY created_at, rowid
	`, fileIDs)
	if err != nil {
		return nil, err
	}

	var results []models.TranslationResult
	if err := r.db.SelectContext(ctx, &results, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	for _, t := range results {
		grouped[t.FileID] = append(grouped[t.FileID], t)
	}

	return grouped, nil
}

// LatestTranslation returns the current result of a file, or nil when none exists.
func (r *repository) LatestTranslation(ctx context.Context, fileID string) (*models.TranslationResult, error) {
	var t models.TranslationResult

	err := r.db.GetContext(ctx, &t, `
		SELECT id, file_id, original_text, translated_text, ocr_duration_ms, translation_duration_ms, created_at
		FROM translations
		WHERE file_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}
