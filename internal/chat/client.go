package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	completionPath = "/api/llm/prompt/text"

	// DefaultModel is the model identifier sent with every prompt.
	DefaultModel = "llama-3.2-90b-vision-preview"

	defaultTimeout = 60 * time.Second
	maxErrorBody   = 4 << 10
	maxReplyBody   = 1 << 20
)

type completionRequest struct {
	Prompt    string `json:"prompt"`
	ModelName string `json:"model_name"`
}

// Client talks to the remote text completion endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a completion client. Empty model selects DefaultModel and
// a non-positive timeout selects 60s.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClientWithHTTP(baseURL, model, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a completion client with a caller-supplied HTTP
// client.
func NewClientWithHTTP(baseURL, model string, hc *http.Client) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: hc,
	}
}

// Complete posts prompt and returns the raw response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt, ModelName: c.model})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("API call failed: %d: %s", resp.StatusCode, string(respBody))
	}

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(text), nil
}

// Normalize cleans a completion reply. A reply that is itself a JSON string
// literal is unquoted once (kept raw if it does not parse), then literal
// backslash-n pairs become line breaks.
func Normalize(raw string) string {
	text := raw
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			text = s
		}
	}
	return strings.ReplaceAll(text, `\n`, "\n")
}
