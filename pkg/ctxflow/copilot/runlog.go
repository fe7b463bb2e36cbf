// Package copilot – runlog.go persists one JSON record per run, success
// or failure.
package copilot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
)

// RunLogUsage is the token usage block of a run log record.
type RunLogUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewRunLogUsage converts executor usage into the run log form.
func NewRunLogUsage(u execctx.Usage) *RunLogUsage {
	return &RunLogUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// RunLog is the structured record of one copilot run. Usage, cost, and
// output path are nil on failure; Error is nil on success.
type RunLog struct {
	PromptID           string       `json:"prompt_id"`
	TimestampStart     time.Time    `json:"timestamp_start"`
	TimestampEnd       time.Time    `json:"timestamp_end"`
	User               string       `json:"user"`
	Prompt             string       `json:"prompt"`
	InstructionsSource string       `json:"instructions_source"`
	Model              string       `json:"model"`
	BudgetUSD          float64      `json:"budget_usd"`
	EstimatedMaxTokens int          `json:"estimated_max_tokens"`
	Usage              *RunLogUsage `json:"usage"`
	CostUSD            *float64     `json:"cost_usd"`
	OutputPath         *string      `json:"output_path"`
	Error              *string      `json:"error"`
}

// WriteRunLog writes the log as <promptID>.json under logDir, creating
// the directory if needed, and returns the path written.
func WriteRunLog(log RunLog, logDir string) (string, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("creating log dir: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling run log: %w", err)
	}

	path := filepath.Join(logDir, log.PromptID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run log: %w", err)
	}
	return path, nil
}
