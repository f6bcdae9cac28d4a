package uppermind

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

// ErrUnauthorized is returned when UpperMind rejects credentials or a token.
var ErrUnauthorized = errors.New("uppermind: unauthorized")

// Client talks to the UpperMind service, which owns user credentials and
// hosts the translator agent.
type Client struct {
	baseURL       string
	agentID       int
	logger        *utils.Logger
	authClient    *http.Client
	translateHTTP *http.Client
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

type ChatRequest struct {
	Content string `json:"content"`
	AgentID int    `json:"agent_id"`
}

func NewClient(baseURL string, agentID int, translateTimeout time.Duration, logger *utils.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		agentID: agentID,
		logger:  logger,
		authClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		translateHTTP: &http.Client{
			Timeout: translateTimeout,
		},
	}
}

// Authenticate exchanges a username and password for an access token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(c.authClient, req)
	if err != nil {
		return nil, err
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token received", ErrUnauthorized)
	}

	return &token, nil
}

// GetUser resolves a bearer token to the user it belongs to.
func (c *Client) GetUser(ctx context.Context, token string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(c.authClient, req)
	if err != nil {
		return nil, err
	}

	user, err := DecodeUser(body)
	if err != nil {
		return nil, err
	}
	user.Token = token

	return user, nil
}

// Translate sends text to the translator agent using the caller's token.
func (c *Client) Translate(ctx context.Context, text, token string) (string, error) {
	jsonData, err := json.Marshal(ChatRequest{Content: text, AgentID: c.agentID})
	if err != nil {
		return "", &models.TranslationError{Cause: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/noninteractive", bytes.NewReader(jsonData))
	if err != nil {
		return "", &models.TranslationError{Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(c.translateHTTP, req)
	if err != nil {
		return "", &models.TranslationError{Cause: err}
	}

	return parseTranslation(body), nil
}

func (c *Client) do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("UpperMind API error", "path", req.URL.Path, "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("uppermind returned status %d", resp.StatusCode)
	}

	return body, nil
}

// DecodeUser parses an /auth/me payload, keeping every field for echoing back.
func DecodeUser(body []byte) (*models.User, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	user := &models.User{Raw: raw}
	if v, ok := raw["username"].(string); ok {
		user.Username = v
	}
	if v, ok := raw["email"].(string); ok {
		user.Email = v
	}

	return user, nil
}
