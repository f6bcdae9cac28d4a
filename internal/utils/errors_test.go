package utils

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"bad request", NewBadRequestError("bad"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("nope"), http.StatusUnauthorized},
		{"not found", NewNotFoundError("missing"), http.StatusNotFound},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)

			var appErr *AppError
			assert.True(t, errors.As(error(tt.err), &appErr))
			assert.Contains(t, tt.err.Error(), tt.err.Message)
		})
	}
}

func TestGenerateStorageName(t *testing.T) {
	name := GenerateStorageName("pdf")
	assert.Len(t, name, 36+len(".pdf"))
	assert.NotEqual(t, name, GenerateStorageName("pdf"))
	assert.Len(t, GenerateStorageName(""), 36)
}
