package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/BerylCAtieno/intpatient-api/internal/middleware"
	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/services"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
	"github.com/gorilla/mux"
)

// multipartMemory is how much of a form is kept in memory before parts
// spill to temporary files.
const multipartMemory = 32 << 20

// RecordHandler serves the endpoints of one record category.
type RecordHandler struct {
	service       services.RecordService
	category      models.Category
	maxUploadSize int64
	logger        *utils.Logger
}

func NewRecordHandler(service services.RecordService, category models.Category, maxUploadSize int64, logger *utils.Logger) *RecordHandler {
	return &RecordHandler{
		service:       service,
		category:      category,
		maxUploadSize: maxUploadSize,
		logger:        logger.With("record_type", string(category)),
	}
}

// Upload stores the files of a multipart form. Radiology uploads answer with
// the stored record; report uploads stream processing progress.
func (h *RecordHandler) Upload(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseUpload(w, r)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	h.logger.Info("Upload received", "files", len(req.Files), "user", req.User.DisplayName())

	if h.category == models.CategoryRadiology {
		resp, err := h.service.UploadRadiology(r.Context(), req)
		if err != nil {
			respondError(h.logger, w, err)
			return
		}
		respondJSON(h.logger, w, http.StatusOK, resp)
		return
	}

	events, err := h.service.UploadReport(r.Context(), req)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	streamEvents(h.logger, w, events)
}

func (h *RecordHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	events, err := h.service.ReprocessReport(r.Context(), id, middleware.UserFromContext(r.Context()))
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	streamEvents(h.logger, w, events)
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListRecords(r.Context(), h.category)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, records)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.service.GetRecord(r.Context(), h.category, id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, record)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.DeleteRecord(r.Context(), h.category, id); err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]string{"detail": "Record deleted"})
}

func (h *RecordHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	file, data, err := h.service.GetFile(r.Context(), h.category, id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	contentType := mime.TypeByExtension("." + file.FileType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalFilename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write file", "error", err, "file_id", id)
	}
}

func (h *RecordHandler) parseUpload(w http.ResponseWriter, r *http.Request) (*models.UploadRequest, error) {
	if r.ContentLength > h.maxUploadSize {
		return nil, h.tooLarge()
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, h.tooLarge()
		}
		return nil, utils.NewBadRequestError("Invalid form data")
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, utils.NewBadRequestError("No files provided")
	}

	req := &models.UploadRequest{
		Category: h.category,
		Files:    make([]models.UploadedFile, 0, len(headers)),
		User:     middleware.UserFromContext(r.Context()),
	}
	if note := r.FormValue("patient_note"); note != "" {
		req.PatientNote = &note
	}

	for _, header := range headers {
		data, err := readPart(header)
		if err != nil {
			h.logger.Error("Failed to read uploaded file", "error", err, "filename", header.Filename)
			return nil, utils.NewBadRequestError(fmt.Sprintf("Failed to read file: %s", header.Filename))
		}
		req.Files = append(req.Files, models.UploadedFile{
			Filename: header.Filename,
			Content:  data,
		})
	}

	return req, nil
}

func (h *RecordHandler) tooLarge() error {
	return utils.NewBadRequestError(fmt.Sprintf("Upload exceeds %dMB limit", h.maxUploadSize>>20))
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
