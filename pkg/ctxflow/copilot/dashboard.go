// Package copilot – dashboard.go renders the Markdown artifact produced
// by a run.
package copilot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateDashboard writes a Markdown dashboard for a completed run and
// returns the path it wrote. Planner runs get the planning layout, every
// other task type the generic one.
func GenerateDashboard(prompt, result, taskType, outputPath string) (string, error) {
	if taskType == "" {
		taskType = TaskGeneral
	}

	var markdown string
	if taskType == TaskPlanner {
		markdown = fmt.Sprintf(`# Weekend Planning Tool

## Request
%s

## Plan
%s

## Notes
- Generated by ctxflow copilot
- Budget estimate based on LLM usage
`, prompt, result)
	} else {
		title := strings.ToUpper(taskType[:1]) + taskType[1:]
		markdown = fmt.Sprintf(`# Task: %s

## Request
%s

## Response
%s

## Metadata
- Task Type: %s
- Generated by ctxflow copilot
`, title, prompt, result, taskType)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("creating dashboard dir: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("writing dashboard: %w", err)
	}
	return outputPath, nil
}
