package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

func Health(logger *utils.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(logger, w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
