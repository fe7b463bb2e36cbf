// Package copilot implements one-off copilot runs: prompt analysis,
// budget-to-token conversion, cost accounting, dashboard generation, and
// run logging around the execution core.
package copilot

import "regexp"

// Task types detected from a prompt.
const (
	TaskPlanner       = "planner"
	TaskAnalysis      = "analysis"
	TaskGeneration    = "generation"
	TaskSummarization = "summarization"
	TaskGeneral       = "general"
)

// Hints are high-level task hints extracted from a natural-language
// prompt.
type Hints struct {
	TaskType string   `json:"task_type"`
	Keywords []string `json:"keywords"`
}

// Detection patterns, checked in order; the first match wins. American
// and British spellings both count.
var hintPatterns = []struct {
	pattern  *regexp.Regexp
	taskType string
	keyword  string
}{
	{regexp.MustCompile(`(?i)\b(plan|planner|planning|schedule|agenda)\b`), TaskPlanner, "planning"},
	{regexp.MustCompile(`(?i)\b(analy[sz]e?|analysis|examine|inspect|investigate)\b`), TaskAnalysis, "analysis"},
	{regexp.MustCompile(`(?i)\b(build|create|generate|make|develop)\b`), TaskGeneration, "generation"},
	{regexp.MustCompile(`(?i)\b(summari[sz]e?|summary|brief|overview)\b`), TaskSummarization, "summarization"},
}

// ParsePromptHints detects the task type of a prompt with simple keyword
// patterns. Prompts matching nothing are "general" with no keywords.
func ParsePromptHints(prompt string) Hints {
	for _, p := range hintPatterns {
		if p.pattern.MatchString(prompt) {
			return Hints{TaskType: p.taskType, Keywords: []string{p.keyword}}
		}
	}
	return Hints{TaskType: TaskGeneral, Keywords: []string{}}
}
