package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/intpatient-api/internal/config"
	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/pipeline"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
	"github.com/stretchr/testify/assert"
)

type stubAuth struct{}

func (stubAuth) Login(context.Context, *models.LoginRequest) (*models.LoginResponse, error) {
	return nil, utils.NewUnauthorizedError("Authentication failed")
}

func (stubAuth) CurrentUser(_ context.Context, token string) (*models.User, error) {
	if token != "good" {
		return nil, utils.NewUnauthorizedError("Invalid or expired token")
	}
	return &models.User{Username: "nurse", Token: token}, nil
}

type stubRecords struct {
	listed []models.Category
}

func (s *stubRecords) UploadRadiology(context.Context, *models.UploadRequest) (*models.RecordResponse, error) {
	return nil, utils.NewBadRequestError("unused")
}

func (s *stubRecords) UploadReport(context.Context, *models.UploadRequest) (<-chan pipeline.Event, error) {
	return nil, utils.NewBadRequestError("unused")
}

func (s *stubRecords) ReprocessReport(context.Context, string, *models.User) (<-chan pipeline.Event, error) {
	return nil, utils.NewNotFoundError("Record not found")
}

func (s *stubRecords) ListRecords(_ context.Context, category models.Category) ([]models.RecordSummary, error) {
	s.listed = append(s.listed, category)
	return []models.RecordSummary{}, nil
}

func (s *stubRecords) GetRecord(context.Context, models.Category, string) (*models.RecordResponse, error) {
	return nil, utils.NewNotFoundError("Record not found")
}

func (s *stubRecords) GetFile(context.Context, models.Category, string) (*models.File, []byte, error) {
	return nil, nil, utils.NewNotFoundError("File not found")
}

func (s *stubRecords) DeleteRecord(context.Context, models.Category, string) error {
	return nil
}

func newTestRouter(records *stubRecords) http.Handler {
	cfg := &config.Config{
		CORSOrigins:   []string{"http://localhost:5173"},
		MaxUploadSize: 1 << 20,
	}
	return NewRouter(cfg, stubAuth{}, records, utils.NewDiscardLogger())
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestRouter(&stubRecords{}), http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newTestRouter(&stubRecords{})

	for _, target := range []string{
		"/api/auth/me",
		"/api/radiology/records",
		"/api/reports/records",
		"/api/reports/records/abc",
		"/api/reports/files/abc",
	} {
		rec := do(h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)

		rec = do(h, http.MethodGet, target, "bad")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestCategoryRoutes(t *testing.T) {
	records := &stubRecords{}
	h := newTestRouter(records)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/radiology/records", "good").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/reports/records", "good").Code)
	assert.Equal(t, []models.Category{models.CategoryRadiology, models.CategoryReport}, records.listed)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/api/reports/records/abc/reprocess", "good").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/api/radiology/records/abc/reprocess", "good").Code,
		"radiology records are never processed")
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/api/reports/upload", "good").Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/reports/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	newTestRouter(&stubRecords{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
