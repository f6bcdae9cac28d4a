package services

import (
	"context"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/pipeline"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

const eventBuffer = 8

// UploadReport stores the files of a report upload and starts processing
// them. The returned channel carries the progress events and is closed after
// the terminal event.
func (s *recordService) UploadReport(ctx context.Context, req *models.UploadRequest) (<-chan pipeline.Event, error) {
	req.Category = models.CategoryReport

	record, files, err := s.createRecord(ctx, req)
	if err != nil {
		return nil, err
	}

	inputs := make([]pipeline.Input, len(files))
	for i, f := range files {
		inputs[i] = pipeline.Input{
			FileID:   f.ID,
			FileType: f.FileType,
			Content:  req.Files[i].Content,
		}
	}

	return s.process(ctx, record, files, inputs, userToken(req.User)), nil
}

// ReprocessReport runs the stored files of a report through the pipeline
// again. New results are appended to the history of each file.
func (s *recordService) ReprocessReport(ctx context.Context, id string, user *models.User) (<-chan pipeline.Event, error) {
	record, files, err := s.lookup(ctx, models.CategoryReport, id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, utils.NewBadRequestError("Record has no files to process")
	}

	inputs := make([]pipeline.Input, len(files))
	for i, f := range files {
		data, err := s.storage.Download(ctx, f.StoredPath)
		if err != nil {
			s.logger.Error("Failed to read stored file", "error", err, "key", f.StoredPath, "record_id", id)
			return nil, utils.NewInternalError("Failed to read stored files")
		}
		inputs[i] = pipeline.Input{
			FileID:   f.ID,
			FileType: f.FileType,
			Content:  data,
		}
	}

	s.logger.Info("Reprocessing report", "id", id, "files", len(files))

	return s.process(ctx, record, files, inputs, userToken(user)), nil
}

func (s *recordService) process(ctx context.Context, record *models.Record, files []models.File, inputs []pipeline.Input, token string) <-chan pipeline.Event {
	emit := pipeline.NewEmitter(ctx, eventBuffer)

	go func() {
		defer emit.Close()

		slots := s.orchestrator.Run(ctx, inputs, token, emit)
		s.finalize(ctx, record, files, slots, emit)
	}()

	return emit.Events()
}

// finalize saves one result per processed file in a single transaction and
// emits the terminal event. It still runs when the client has gone away.
func (s *recordService) finalize(ctx context.Context, record *models.Record, files []models.File, slots []pipeline.Slot, emit *pipeline.Emitter) {
	now := s.now()
	resp := models.NewRecordResponse(record, files)
	results := make([]models.TranslationResult, 0, len(slots))

	for i := range slots {
		slot := &slots[i]
		if !slot.Processed() {
			continue
		}

		result := models.TranslationResult{
			ID:                    utils.GenerateID(),
			FileID:                slot.FileID,
			OriginalText:          slot.Extraction.Text,
			TranslatedText:        slot.Translation.Text,
			OCRDurationMs:         slot.Extraction.Duration.Milliseconds(),
			TranslationDurationMs: slot.Translation.Duration.Milliseconds(),
			CreatedAt:             now,
		}
		results = append(results, result)
		resp.Files[i].Translation = payload(result)
	}

	if err := s.repo.SaveTranslations(context.WithoutCancel(ctx), results); err != nil {
		s.logger.Error("Failed to save translation results", "error", err, "record_id", record.ID)
		emit.Emit(pipeline.Event{Phase: pipeline.PhaseError, Error: "Failed to save translation results"})
		return
	}

	s.logger.Info("Report processed",
		"id", record.ID,
		"files", len(files),
		"saved", len(results))

	emit.Emit(pipeline.Event{Phase: pipeline.PhaseComplete, Result: resp})
}

func userToken(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.Token
}
