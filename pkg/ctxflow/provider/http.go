// Package provider implements live provider adapters for the execution
// core. The wire format is the OpenAI-compatible chat completions API,
// which works with OpenAI, Anthropic proxies, LiteLLM, and any compatible
// gateway endpoint.
package provider

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
	"unicode/utf8"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
)

// DefaultBaseURL points at a local LiteLLM proxy, the default gateway for
// one-off copilot runs.
const DefaultBaseURL = "http://localhost:4000"

const defaultTimeout = 60 * time.Second

// HTTPAdapter executes provider calls over an OpenAI-compatible
// /chat/completions endpoint. It satisfies execctx.Adapter, so it drops
// into an Executor in place of the stub without changing the contract.
type HTTPAdapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPAdapter creates an adapter for the given base URL (the LiteLLM
// default when empty). A nil logger falls back to slog.Default.
func NewHTTPAdapter(baseURL string, logger *slog.Logger) *HTTPAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("component", "provider"),
	}
}

// ---------- Wire Types (OpenAI-compatible) ----------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
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
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the resolved call as a single-message chat completion.
// The per-call API key goes into the Authorization header and nowhere
// else.
func (a *HTTPAdapter) Complete(ctx context.Context, call execctx.ProviderCall) (execctx.Completion, error) {
	reqBody := chatRequest{
		Model: call.Model,
		Messages: []chatMessage{
			{Role: "user", Content: call.Prompt},
		},
	}
	if v, ok := routingNumber(call.Routing, "max_tokens"); ok {
		reqBody.MaxTokens = int(v)
	}
	if v, ok := routingNumber(call.Routing, "temperature"); ok {
		reqBody.Temperature = &v
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return execctx.Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := a.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return execctx.Completion{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if call.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+call.APIKey)
	}

	a.logger.Debug("sending chat completion",
		"provider", call.Provider,
		"model", call.Model,
		"prompt_chars", utf8.RuneCountInString(call.Prompt),
		"endpoint", endpoint,
	)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return execctx.Completion{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return execctx.Completion{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("API error",
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 500),
		)
		return execctx.Completion{}, fmt.Errorf("API returned %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return execctx.Completion{}, fmt.Errorf("parsing response: %w", err)
	}

	if chatResp.Error != nil {
		return execctx.Completion{}, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return execctx.Completion{}, fmt.Errorf("no response from model")
	}

	a.logger.Info("chat completion done",
		"model", call.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", chatResp.Usage.PromptTokens,
		"completion_tokens", chatResp.Usage.CompletionTokens,
		"finish_reason", chatResp.Choices[0].FinishReason,
	)

	return execctx.Completion{
		Content: strings.TrimSpace(chatResp.Choices[0].Message.Content),
		Usage: execctx.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

func routingNumber(routing map[string]any, key string) (float64, bool) {
	switch v := routing[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
