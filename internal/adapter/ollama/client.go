// Package ollama provides a model backend client for a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/StatForge/internal/domain/conversation"
	"github.com/Strob0t/StatForge/internal/port/llm"
	"github.com/Strob0t/StatForge/internal/resilience"
)

const (
	defaultTimeout = 120 * time.Second
	probeTimeout   = 5 * time.Second
	maxResponse    = 8 << 20
)

// Client talks to the Ollama HTTP API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ llm.Client = (*Client)(nil)

// NewClient creates an Ollama client for one model. A zero timeout uses 120s.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to chat calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []conversation.Message `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  chatOptions            `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
	EvalCount  int    `json:"eval_count"`
}

// Tag is one locally installed model.
type Tag struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Chat sends the conversation to /api/chat with streaming disabled.
func (c *Client) Chat(ctx context.Context, messages []conversation.Message, opts llm.ChatOptions) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Options: chatOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat: %w", err)
	}

	var resp []byte
	call := func() error {
		var err error
		resp, err = c.doRequest(ctx, c.httpClient, http.MethodPost, "/api/chat", body)
		return err
	}
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", fmt.Errorf("unmarshal chat: %w", err)
	}
	if out.DoneReason == "length" {
		slog.Warn("model reply truncated", "model", c.model, "eval_count", out.EvalCount)
	}
	return out.Message.Content, nil
}

// ListTags returns the models installed on the server.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	probe := &http.Client{Timeout: probeTimeout}
	resp, err := c.doRequest(ctx, probe, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	var out struct {
		Models []Tag `json:"models"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return out.Models, nil
}

// IsAvailable reports whether the server answers the tag listing.
func (c *Client) IsAvailable(ctx context.Context) bool {
	_, err := c.ListTags(ctx)
	return err == nil
}

// ModelExists reports whether the configured model is installed.
// "llama3.1" matches an installed "llama3.1:latest".
func (c *Client) ModelExists(ctx context.Context) (bool, error) {
	tags, err := c.ListTags(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tags {
		if t.Name == c.model || strings.HasPrefix(t.Name, c.model+":") {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) doRequest(ctx context.Context, hc *http.Client, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, llm.NewStatusError("ollama", resp.StatusCode, data)
	}
	return data, nil
}
