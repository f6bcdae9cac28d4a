package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

type contextKey string

const userKey contextKey = "user"

// UserResolver maps a bearer token to the user it belongs to.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// Auth rejects requests without a valid bearer token and stores the user in
// the request context.
func Auth(resolver UserResolver, logger *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				writeError(logger, w, utils.NewUnauthorizedError("Missing or invalid authorization header"))
				return
			}

			user, err := resolver.CurrentUser(r.Context(), strings.TrimSpace(token))
			if err != nil {
				writeError(logger, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or nil outside Auth.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

func writeError(logger *utils.Logger, w http.ResponseWriter, err error) {
	appErr, ok := err.(*utils.AppError)
	if !ok {
		appErr = utils.NewUnauthorizedError("Invalid or expired token")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": appErr.Message}); err != nil {
		logger.Error("Failed to write error response", "status", appErr.StatusCode, "error", err)
	}
}
