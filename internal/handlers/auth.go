package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/BerylCAtieno/intpatient-api/internal/middleware"
	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/services"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

type AuthHandler struct {
	service services.AuthService
	logger  *utils.Logger
}

func NewAuthHandler(service services.AuthService, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(h.logger, w, utils.NewBadRequestError("Invalid request body"))
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, resp)
}

// Me returns the user behind the request token, as the credential service
// described it.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		respondError(h.logger, w, utils.NewUnauthorizedError("Not authenticated"))
		return
	}

	if user.Raw != nil {
		respondJSON(h.logger, w, http.StatusOK, user.Raw)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, user)
}
