package execctx

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// captureAdapter records the call it receives and returns a canned
// completion or error.
type captureAdapter struct {
	call       ProviderCall
	completion Completion
	err        error
}

func (a *captureAdapter) Complete(_ context.Context, call ProviderCall) (Completion, error) {
	a.call = call
	return a.completion, a.err
}

func TestExecuteStub(t *testing.T) {
	c := New("analyze", WithRouting(map[string]any{"model": "gpt-3.5-turbo"}))
	c.AddInput("Analysis data", 1.0)

	resp, err := c.Execute(context.Background(), Request{Task: "Analyze this data"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if resp.ContextID != c.ID {
		t.Errorf("contextId = %q, want %q", resp.ContextID, c.ID)
	}
	if resp.ModelUsed != "gpt-3.5-turbo" {
		t.Errorf("modelUsed = %q, want gpt-3.5-turbo", resp.ModelUsed)
	}
	if resp.ProviderUsed != DefaultProvider {
		t.Errorf("providerUsed = %q, want %q", resp.ProviderUsed, DefaultProvider)
	}
	if !strings.Contains(resp.Result, "[STUB]") {
		t.Errorf("stub result missing placeholder marker: %q", resp.Result)
	}
	if !strings.Contains(resp.Result, "openai/gpt-3.5-turbo") {
		t.Errorf("stub result must reference provider/model: %q", resp.Result)
	}
	if resp.Duration < 0 {
		t.Errorf("duration = %v, want >= 0", resp.Duration)
	}
	if resp.Meta.Intent != "analyze" || resp.Meta.InputCount != 1 {
		t.Errorf("metadata = %+v", resp.Meta)
	}
	if resp.Meta.TotalInputTokens != c.TotalTokens() {
		t.Errorf("totalInputTokens = %d, want %d", resp.Meta.TotalInputTokens, c.TotalTokens())
	}
}

func TestExecuteDefaultsModelAndProvider(t *testing.T) {
	c := New("analyze")

	resp, err := c.Execute(context.Background(), Request{Task: "t"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if resp.ModelUsed != DefaultModel {
		t.Errorf("modelUsed = %q, want default %q", resp.ModelUsed, DefaultModel)
	}
	if resp.ProviderUsed != DefaultProvider {
		t.Errorf("providerUsed = %q, want default %q", resp.ProviderUsed, DefaultProvider)
	}
}

func TestExecuteOverrideRoutingWins(t *testing.T) {
	c := New("analyze", WithRouting(map[string]any{"model": "gpt-4", "provider": "openai"}))
	adapter := &captureAdapter{completion: Completion{Content: "ok"}}

	resp, err := NewExecutor(adapter, nil).Execute(context.Background(), c, Request{
		Task:            "t",
		OverrideRouting: map[string]any{"model": "claude-3-opus", "provider": "anthropic"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if resp.ModelUsed != "claude-3-opus" || resp.ProviderUsed != "anthropic" {
		t.Errorf("override lost: model=%q provider=%q", resp.ModelUsed, resp.ProviderUsed)
	}
	// The override must not leak into the context.
	if c.Routing["model"] != "gpt-4" {
		t.Errorf("context routing mutated by override: %v", c.Routing["model"])
	}
}

func TestExecutePromptAssembly(t *testing.T) {
	c := New("analyze")
	c.AddInput("first input", 1.0)
	c.AddInput(map[string]any{"key": "value"}, 0.9)
	adapter := &captureAdapter{completion: Completion{Content: "ok"}}

	_, err := NewExecutor(adapter, nil).Execute(context.Background(), c, Request{
		Task:         "Summarize",
		SystemPrompt: "Be terse",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	prompt := adapter.call.Prompt
	if !strings.HasPrefix(prompt, "System: Be terse\n") {
		t.Errorf("prompt missing leading system line: %q", prompt)
	}
	if !strings.Contains(prompt, "Context:") {
		t.Errorf("prompt missing context header: %q", prompt)
	}
	if !strings.Contains(prompt, "first input") {
		t.Errorf("prompt missing string input verbatim: %q", prompt)
	}
	if !strings.Contains(prompt, `{"key":"value"}`) {
		t.Errorf("prompt missing canonical non-string rendering: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "\nTask: Summarize") {
		t.Errorf("prompt missing trailing task line: %q", prompt)
	}

	sysIdx := strings.Index(prompt, "System:")
	ctxIdx := strings.Index(prompt, "Context:")
	taskIdx := strings.Index(prompt, "Task:")
	if !(sysIdx < ctxIdx && ctxIdx < taskIdx) {
		t.Errorf("prompt sections out of order: %q", prompt)
	}
}

func TestExecutePromptMultiInputLayout(t *testing.T) {
	// The exact layout is part of the cross-runtime contract: every
	// input contributes its own blank-line separator.
	c := New("analyze")
	c.AddInput("a", 1.0)
	c.AddInput("b", 0.9)
	adapter := &captureAdapter{completion: Completion{Content: "ok"}}

	_, err := NewExecutor(adapter, nil).Execute(context.Background(), c, Request{
		Task:         "T",
		SystemPrompt: "S",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := "System: S\n\nContext:\n\na\n\n\nb\n\n\n\nTask: T"
	if adapter.call.Prompt != want {
		t.Errorf("prompt = %q, want %q", adapter.call.Prompt, want)
	}
}

func TestStubAdapterCountsCharacters(t *testing.T) {
	completion, err := StubAdapter{}.Complete(context.Background(), ProviderCall{
		Provider: "openai",
		Model:    "gpt-4",
		Prompt:   "€€€€", // 4 characters, 12 bytes
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if !strings.Contains(completion.Content, "Prompt length: 4 chars") {
		t.Errorf("stub must count characters, not bytes: %q", completion.Content)
	}
}

func TestExecutePromptWithoutSystemOrInputs(t *testing.T) {
	c := New("analyze")
	adapter := &captureAdapter{completion: Completion{Content: "ok"}}

	_, err := NewExecutor(adapter, nil).Execute(context.Background(), c, Request{Task: "t"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if strings.Contains(adapter.call.Prompt, "System:") {
		t.Error("prompt has a system line without a system prompt")
	}
	if strings.Contains(adapter.call.Prompt, "Context:") {
		t.Error("prompt has a context block without inputs")
	}
}

func TestExecutePassesAPIKeyToAdapterOnly(t *testing.T) {
	c := New("analyze")
	adapter := &captureAdapter{completion: Completion{Content: "ok"}}

	_, err := NewExecutor(adapter, nil).Execute(context.Background(), c, Request{Task: "t", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if adapter.call.APIKey != "sk-test" {
		t.Errorf("adapter key = %q, want sk-test", adapter.call.APIKey)
	}
	snap, err := c.EncodeJSON()
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if strings.Contains(string(snap), "sk-test") {
		t.Error("API key leaked into the snapshot")
	}
}

func TestExecuteProviderFailure(t *testing.T) {
	c := New("analyze", WithRouting(map[string]any{"model": "gpt-4"}))
	cause := errors.New("connection refused")
	adapter := &captureAdapter{err: cause}

	_, err := NewExecutor(adapter, nil).Execute(context.Background(), c, Request{Task: "t"})
	if err == nil {
		t.Fatal("provider failure must surface as an error")
	}

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("error type = %T, want *ExecError", err)
	}
	if execErr.Provider != "openai" || execErr.Model != "gpt-4" {
		t.Errorf("failure detail = %s/%s, want openai/gpt-4", execErr.Provider, execErr.Model)
	}
	if !errors.Is(err, cause) {
		t.Error("underlying cause must stay reachable via errors.Is")
	}
}
