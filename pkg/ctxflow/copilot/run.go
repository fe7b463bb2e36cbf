// Package copilot – run.go defines and validates the configuration of a
// one-off copilot run.
package copilot

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
)

// ModelEnvVar overrides the run model when set.
const ModelEnvVar = "CTXFLOW_MODEL"

// DefaultRunModel is used when neither the environment nor the caller
// picks a model.
const DefaultRunModel = "gpt-4o-mini"

// Instruction sources recorded in the run log.
const (
	InstructionsFromFlag    = "flag"
	InstructionsFromFile    = "file"
	InstructionsFromDefault = "default"
)

// RunParams are the caller-supplied knobs of a run.
type RunParams struct {
	// Prompt is the natural-language task description. Required.
	Prompt string

	// User names who the run is for; it selects the virtual key.
	// Required.
	User string

	// BudgetUSD caps spend for this run. Must be positive.
	BudgetUSD float64

	// Instructions are inline custom instructions. Mutually exclusive
	// with InstructionsFile.
	Instructions string

	// InstructionsFile is a path to read instructions from.
	InstructionsFile string
}

// RunConfig is a validated run configuration with derived fields.
type RunConfig struct {
	RunParams

	// PromptID uniquely identifies this run.
	PromptID string

	// Model is the LLM model, resolved default → env override.
	Model string

	// Mode is always "one_off" in the current scope.
	Mode string

	// Hints are the task hints parsed from the prompt.
	Hints Hints

	// InstructionsSource records where the effective instructions came
	// from (flag, file, or default).
	InstructionsSource string

	resolvedInstructions string
}

// NewRunConfig validates params and derives the run fields. Validation
// failures surface as *execctx.ConfigError.
func NewRunConfig(params RunParams) (*RunConfig, error) {
	if params.Prompt == "" {
		return nil, &execctx.ConfigError{Field: "prompt", Reason: "must not be empty"}
	}
	if params.User == "" {
		return nil, &execctx.ConfigError{Field: "user", Reason: "must not be empty"}
	}
	if params.BudgetUSD <= 0 {
		return nil, &execctx.ConfigError{Field: "budget", Reason: "must be greater than 0"}
	}
	if params.Instructions != "" && params.InstructionsFile != "" {
		return nil, &execctx.ConfigError{Field: "instructions", Reason: "cannot specify both --instructions and --instructions-file"}
	}

	cfg := &RunConfig{
		RunParams: params,
		PromptID:  uuid.NewString(),
		Model:     DefaultRunModel,
		Mode:      "one_off",
		Hints:     ParsePromptHints(params.Prompt),
	}

	if envModel := os.Getenv(ModelEnvVar); envModel != "" {
		cfg.Model = envModel
	}

	switch {
	case params.Instructions != "":
		cfg.InstructionsSource = InstructionsFromFlag
		cfg.resolvedInstructions = params.Instructions
	case params.InstructionsFile != "":
		data, err := os.ReadFile(params.InstructionsFile)
		if err != nil {
			return nil, &execctx.ConfigError{
				Field:  "instructions-file",
				Reason: fmt.Sprintf("instructions file not found: %s", params.InstructionsFile),
			}
		}
		cfg.InstructionsSource = InstructionsFromFile
		cfg.resolvedInstructions = string(data)
	default:
		cfg.InstructionsSource = InstructionsFromDefault
	}

	return cfg, nil
}

// UserInstructions returns the effective instructions: flag first, then
// file contents, then empty.
func (c *RunConfig) UserInstructions() string {
	return c.resolvedInstructions
}
