package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, 4, cfg.TranslationConcurrency)
	assert.Equal(t, 1, cfg.TranslatorAgentID)
	assert.Equal(t, 120*time.Second, cfg.OCRTimeout)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadSize)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("TRANSLATION_CONCURRENCY", "2")
	t.Setenv("UPPERMIND_URL", "http://uppermind.local/")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageS3, cfg.StorageBackend)
	assert.Equal(t, 2, cfg.TranslationConcurrency)
	assert.Equal(t, "http://uppermind.local", cfg.UpperMindURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric agent", "TRANSLATOR_AGENT_ID", "one"},
		{"zero concurrency", "TRANSLATION_CONCURRENCY", "0"},
		{"unknown backend", "STORAGE_BACKEND", "ftp"},
		{"bad timeout", "OCR_TIMEOUT_SECONDS", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
