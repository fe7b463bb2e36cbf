// Package execctx – executor.go assembles prompts from a context and a
// task, resolves effective routing, and delegates to a provider adapter.
package execctx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Request describes one execution of a context.
type Request struct {
	// Task is the prompt's trailing task line.
	Task string

	// SystemPrompt, when set, becomes the leading system line.
	SystemPrompt string

	// OverrideRouting is shallow-merged over the context's routing for
	// this call only; the context is not modified.
	OverrideRouting map[string]any

	// APIKey is the per-call credential handed to the adapter. It is
	// never persisted in the context or its snapshot.
	APIKey string
}

// Usage holds token accounting reported by a provider.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Response is the standardized execution result.
type Response struct {
	Result       string       `json:"result"`
	ContextID    string       `json:"contextId"`
	ModelUsed    string       `json:"modelUsed"`
	ProviderUsed string       `json:"providerUsed"`
	Duration     float64      `json:"duration"` // wall-clock seconds around the provider call
	Meta         ResponseMeta `json:"metadata"`

	// Usage is populated by live adapters; the stub leaves it zero.
	Usage Usage `json:"-"`
}

// ResponseMeta describes the executed context.
type ResponseMeta struct {
	Intent           string `json:"intent"`
	InputCount       int    `json:"inputCount"`
	TotalInputTokens int    `json:"totalInputTokens"`
}

// ProviderCall is the fully resolved request handed to an Adapter.
type ProviderCall struct {
	Provider string
	Model    string
	Prompt   string
	Routing  map[string]any
	APIKey   string
}

// Completion is what an Adapter returns on success.
type Completion struct {
	Content string
	Usage   Usage
}

// Adapter performs the provider call. Implementations must honor ctx
// cancellation; everything around the call is synchronous.
type Adapter interface {
	Complete(ctx context.Context, call ProviderCall) (Completion, error)
}

// StubAdapter is the default Adapter: it performs no I/O and returns a
// deterministic placeholder referencing provider, model, and prompt
// length. Swap in a live adapter (e.g. provider.HTTPAdapter) for real
// execution; the surrounding contract does not change.
type StubAdapter struct{}

func (StubAdapter) Complete(_ context.Context, call ProviderCall) (Completion, error) {
	content := fmt.Sprintf(
		"[STUB] Execution result from %s/%s\nPrompt length: %d chars\nTo enable actual execution, implement provider adapters and provide API keys.",
		call.Provider, call.Model, utf8.RuneCountInString(call.Prompt),
	)
	return Completion{Content: content}, nil
}

// Executor runs contexts against a provider adapter.
type Executor struct {
	adapter Adapter
	logger  *slog.Logger
}

// NewExecutor creates an Executor. A nil logger falls back to
// slog.Default.
func NewExecutor(adapter Adapter, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{adapter: adapter, logger: logger.With("component", "executor")}
}

// Execute resolves effective routing (request overrides win per key),
// assembles the prompt, delegates to the adapter, and returns the
// standardized response. A max_time constraint (seconds) bounds the
// provider call via context cancellation. Provider failures come back as
// an *ExecError carrying provider, model, and cause.
func (e *Executor) Execute(ctx context.Context, c *Context, req Request) (*Response, error) {
	routing := copyMap(c.Routing)
	for k, v := range req.OverrideRouting {
		routing[k] = v
	}

	model := DefaultModel
	if m, ok := routing["model"].(string); ok && m != "" {
		model = m
	}
	provider := DefaultProvider
	if p, ok := routing["provider"].(string); ok && p != "" {
		provider = p
	}

	prompt := assemblePrompt(c, req)

	if maxTime, ok := numericConstraint(c.Constraints, ConstraintMaxTime); ok && maxTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(maxTime)*time.Second)
		defer cancel()
	}

	e.logger.Debug("executing context",
		"context_id", c.ID,
		"provider", provider,
		"model", model,
		"prompt_chars", utf8.RuneCountInString(prompt))

	start := time.Now()
	completion, err := e.adapter.Complete(ctx, ProviderCall{
		Provider: provider,
		Model:    model,
		Prompt:   prompt,
		Routing:  routing,
		APIKey:   req.APIKey,
	})
	duration := time.Since(start)

	if err != nil {
		e.logger.Error("provider call failed",
			"context_id", c.ID,
			"provider", provider,
			"model", model,
			"error", err)
		return nil, &ExecError{Provider: provider, Model: model, Cause: err}
	}

	return &Response{
		Result:       completion.Content,
		ContextID:    c.ID,
		ModelUsed:    model,
		ProviderUsed: provider,
		Duration:     duration.Seconds(),
		Meta: ResponseMeta{
			Intent:           c.Intent,
			InputCount:       len(c.Inputs),
			TotalInputTokens: c.TotalTokens(),
		},
		Usage: completion.Usage,
	}, nil
}

// assemblePrompt renders the prompt text: optional system line, each input
// one per line under a "Context:" header, then the task line.
func assemblePrompt(c *Context, req Request) string {
	var parts []string

	if req.SystemPrompt != "" {
		parts = append(parts, fmt.Sprintf("System: %s\n", req.SystemPrompt))
	}

	if len(c.Inputs) > 0 {
		parts = append(parts, "Context:\n")
		for _, in := range c.Inputs {
			parts = append(parts, renderData(in.Data), "\n")
		}
	}

	parts = append(parts, fmt.Sprintf("\nTask: %s", req.Task))

	return strings.Join(parts, "\n")
}
