package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

func respondJSON(logger *utils.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

func respondError(logger *utils.Logger, w http.ResponseWriter, err error) {
	var status int
	var message string

	switch e := err.(type) {
	case *utils.AppError:
		status = e.StatusCode
		message = e.Message
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request error", "status", status, "error", err)
	} else {
		logger.Warn("Request error", "status", status, "error", message)
	}

	respondJSON(logger, w, status, map[string]string{"error": message})
}
