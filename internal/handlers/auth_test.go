package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BerylCAtieno/intpatient-api/internal/middleware"
	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
	"github.com/stretchr/testify/assert"
)

type fakeAuthService struct{}

func (fakeAuthService) Login(_ context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "secret" {
		return nil, utils.NewUnauthorizedError("Authentication failed")
	}
	return &models.LoginResponse{AccessToken: "tok", User: map[string]any{"username": req.Username}}, nil
}

func (fakeAuthService) CurrentUser(context.Context, string) (*models.User, error) {
	return nil, utils.NewUnauthorizedError("Invalid or expired token")
}

func TestLogin(t *testing.T) {
	h := NewAuthHandler(fakeAuthService{}, utils.NewDiscardLogger())

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"nurse","password":"secret"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"access_token":"tok","user":{"username":"nurse"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"nurse","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	h := NewAuthHandler(fakeAuthService{}, utils.NewDiscardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	user := &models.User{Username: "nurse", Token: "tok", Raw: map[string]any{"username": "nurse", "id": float64(7)}}
	req = req.WithContext(middleware.WithUser(req.Context(), user))

	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"nurse","id":7}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "tok")
}
