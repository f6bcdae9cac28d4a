package router

import (
	"net/http"

	"github.com/BerylCAtieno/intpatient-api/internal/config"
	"github.com/BerylCAtieno/intpatient-api/internal/handlers"
	"github.com/BerylCAtieno/intpatient-api/internal/middleware"
	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/services"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"

	"github.com/gorilla/mux"
)

func NewRouter(cfg *config.Config, authService services.AuthService, recordService services.RecordService, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	api := r.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", handlers.Health(logger)).Methods(http.MethodGet)

	authHandler := handlers.NewAuthHandler(authService, logger)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(authService, logger))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)

	for _, category := range []models.Category{models.CategoryRadiology, models.CategoryReport} {
		h := handlers.NewRecordHandler(recordService, category, cfg.MaxUploadSize, logger)
		prefix := "/" + category.URLSegment()

		protected.HandleFunc(prefix+"/upload", h.Upload).Methods(http.MethodPost)
		protected.HandleFunc(prefix+"/records", h.List).Methods(http.MethodGet)
		protected.HandleFunc(prefix+"/records/{id}", h.Get).Methods(http.MethodGet)
		protected.HandleFunc(prefix+"/records/{id}", h.Delete).Methods(http.MethodDelete)
		protected.HandleFunc(prefix+"/files/{id}", h.Download).Methods(http.MethodGet)

		if category == models.CategoryReport {
			protected.HandleFunc(prefix+"/records/{id}/reprocess", h.Reprocess).Methods(http.MethodPost)
		}
	}

	// CORS wraps the router so preflights and 405s carry the headers too
	return middleware.CORS(cfg.CORSOrigins)(r)
}
