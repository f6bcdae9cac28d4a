package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/BerylCAtieno/intpatient-api/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"missing key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, true},
		{"missing bucket", minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}, true},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, false},
		{"network", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s3Error("download", "reports/rec-1/a.png", tt.err)

			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
			assert.Contains(t, err.Error(), "reports/rec-1/a.png")
		})
	}
}

// fakeS3 answers just enough of the S3 API for the bucket check and for
// objects that do not exist.
func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && strings.TrimSuffix(r.URL.Path, "/") == "/intpatient":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/intpatient/"):
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>` +
				`<Key>` + strings.TrimPrefix(r.URL.Path, "/intpatient/") + `</Key><BucketName>intpatient</BucketName></Error>`))
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestS3DownloadMissingObject(t *testing.T) {
	srv := fakeS3(t)
	endpoint, err := url.Parse(srv.URL)
	require.NoError(t, err)

	store, err := New(&config.Config{
		StorageBackend:    config.StorageS3,
		S3Endpoint:        endpoint.Host,
		S3AccessKeyID:     "minioadmin",
		S3SecretAccessKey: "minioadmin",
		S3BucketName:      "intpatient",
		S3Region:          "us-east-1",
	})
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "reports/rec-1/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
