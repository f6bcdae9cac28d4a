package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

const extractionPrompt = "Extract all text from this image. Return only the extracted text, nothing else."

// Client turns the bytes of one image into text.
type Client interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

type ollamaClient struct {
	baseURL string
	model   string
	logger  *utils.Logger
	client  *http.Client
}

type GenerateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type GenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaClient(baseURL, model string, timeout time.Duration, logger *utils.Logger) Client {
	return &ollamaClient{
		baseURL: baseURL,
		model:   model,
		logger:  logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ollamaClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	text, err := c.generate(ctx, image)
	if err != nil {
		return "", &models.ExtractionError{Cause: err}
	}
	return text, nil
}

func (c *ollamaClient) generate(ctx context.Context, image []byte) (string, error) {
	reqBody := GenerateRequest{
		Model:  c.model,
		Prompt: extractionPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
		Stream: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Ollama API error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", genResp.Error)
	}

	c.logger.Debug("Image text extracted",
		"model", c.model,
		"image_bytes", len(image),
		"text_length", len(genResp.Response),
		"duration_ms", time.Since(start).Milliseconds())

	return genResp.Response, nil
}
