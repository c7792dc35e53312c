// Package litellm provides a model backend client for a LiteLLM Proxy
// (OpenAI-compatible chat completions).
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	defaultTimeout = 180 * time.Second
	probeTimeout   = 5 * time.Second
	maxResponse    = 8 << 20
)

// Client talks to the LiteLLM Proxy.
type Client struct {
	baseURL   string
	masterKey string
	model     string
	chat      *http.Client
	probe     *http.Client
	breaker   *resilience.Breaker
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a LiteLLM client for one model. A zero timeout uses 180s.
func NewClient(baseURL, masterKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		masterKey: masterKey,
		model:     model,
		chat:      &http.Client{Timeout: timeout},
		probe:     &http.Client{Timeout: min(timeout, probeTimeout)},
	}
}

// SetBreaker attaches a circuit breaker to chat calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model       string                 `json:"model"`
	Messages    []conversation.Message `json:"messages"`
	Temperature float64                `json:"temperature"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	Stream      bool                   `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Chat sends the conversation to /v1/chat/completions and returns the first choice.
func (c *Client) Chat(ctx context.Context, messages []conversation.Message, opts llm.ChatOptions) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat: %w", err)
	}

	var out chatResponse
	call := func() error {
		return c.do(ctx, c.chat, http.MethodPost, "/v1/chat/completions", body, &out)
	}
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat: response has no choices")
	}

	choice := out.Choices[0]
	if choice.FinishReason == "length" {
		slog.Warn("model reply truncated", "model", c.model, "completion_tokens", out.Usage.CompletionTokens)
	}
	slog.Debug("chat completed", "model", c.model,
		"prompt_tokens", out.Usage.PromptTokens, "completion_tokens", out.Usage.CompletionTokens)
	return choice.Message.Content, nil
}

// Models lists the model names the proxy routes.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, c.probe, http.MethodGet, "/v1/models", nil, &out); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	names := make([]string, len(out.Data))
	for i, m := range out.Data {
		names[i] = m.ID
	}
	return names, nil
}

// ModelExists reports whether the configured model is served by the proxy.
func (c *Client) ModelExists(ctx context.Context) (bool, error) {
	names, err := c.Models(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == c.model {
			return true, nil
		}
	}
	return false, nil
}

// IsAvailable reports whether the proxy answers its liveliness probe.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.do(ctx, c.probe, http.MethodGet, "/health/liveliness", nil, nil) == nil
}

// do sends one request and decodes a 2xx JSON body into out, if out is non-nil.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.masterKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.masterKey)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return llm.NewStatusError("litellm", resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
