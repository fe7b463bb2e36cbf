package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/config"
	"github.com/jholhewres/ctxflow/pkg/ctxflow/copilot"
	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
	"github.com/jholhewres/ctxflow/pkg/ctxflow/provider"
)

// virtualKeyEnvPrefix + uppercased user name is the env var holding that
// user's virtual key for the gateway.
const virtualKeyEnvPrefix = "CTXFLOW_VIRTUAL_KEY_"

// newCopilotCmd creates the `ctxflow copilot` command group.
func newCopilotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copilot",
		Short: "One-off copilot runs with a USD budget cap",
	}
	cmd.AddCommand(newCopilotRunCmd())
	return cmd
}

func newCopilotRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a one-off copilot run",
		Long: `Execute a one-off run: the prompt is analyzed for task hints, the
USD budget is converted to a token limit, and the run goes through the
configured gateway (--live) or the deterministic stub.

The per-user virtual key comes from CTXFLOW_VIRTUAL_KEY_<USER>; when
unset and stdin is a terminal, the key is prompted for interactively.
Keys are used for the call only and never persisted.

Example:
  ctxflow copilot run --prompt "build me a custom weekend planning tool" --user matthew --budget 0.05`,
		RunE: runCopilotRun,
	}

	cmd.Flags().String("prompt", "", "natural language prompt describing the task")
	cmd.Flags().String("user", "", "username for this run")
	cmd.Flags().Float64("budget", 0, "USD budget cap for this run")
	cmd.Flags().String("instructions", "", "custom instructions")
	cmd.Flags().String("instructions-file", "", "path to an instructions file")
	cmd.Flags().Bool("live", false, "execute against the configured gateway instead of the stub")
	cmd.MarkFlagRequired("prompt")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("budget")

	return cmd
}

func runCopilotRun(cmd *cobra.Command, _ []string) error {
	start := time.Now().UTC()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	prompt, _ := cmd.Flags().GetString("prompt")
	user, _ := cmd.Flags().GetString("user")
	budget, _ := cmd.Flags().GetFloat64("budget")
	instructions, _ := cmd.Flags().GetString("instructions")
	instructionsFile, _ := cmd.Flags().GetString("instructions-file")
	live, _ := cmd.Flags().GetBool("live")

	runCfg, err := copilot.NewRunConfig(copilot.RunParams{
		Prompt:           prompt,
		User:             user,
		BudgetUSD:        budget,
		Instructions:     instructions,
		InstructionsFile: instructionsFile,
	})
	if err != nil {
		return err
	}

	printRunConfig(runCfg)

	maxTokens := copilot.BudgetToMaxTokens(runCfg.BudgetUSD, runCfg.Model)
	fmt.Printf("Estimated max tokens: %d\n\n", maxTokens)

	// Failures from here on still produce a run log record.
	failRun := func(cause error) error {
		writeLog(cfg, runCfg, start, maxTokens, nil, cause, logger)
		return cause
	}

	var adapter execctx.Adapter = execctx.StubAdapter{}
	var apiKey string
	if live {
		fmt.Printf("Gateway: %s\n", cfg.Proxy.BaseURL)
		apiKey, err = resolveVirtualKey(runCfg.User)
		if err != nil {
			return failRun(err)
		}
		adapter = provider.NewHTTPAdapter(cfg.Proxy.BaseURL, logger)
	}

	c := execctx.New(runCfg.Hints.TaskType,
		execctx.WithConstraints(map[string]any{execctx.ConstraintMaxTokens: maxTokens}),
		execctx.WithRouting(map[string]any{"model": runCfg.Model, "max_tokens": maxTokens}),
		execctx.WithMetadata(map[string]any{
			"user":      runCfg.User,
			"prompt_id": runCfg.PromptID,
			"mode":      runCfg.Mode,
		}))
	if instr := runCfg.UserInstructions(); instr != "" {
		c.AddInput("Instructions: "+instr, 1.0)
	}

	resp, err := execctx.NewExecutor(adapter, logger).Execute(cmd.Context(), c, execctx.Request{
		Task:         runCfg.Prompt,
		SystemPrompt: "You are a helpful assistant.",
		APIKey:       apiKey,
	})
	if err != nil {
		return failRun(err)
	}

	cost := copilot.CalculateCost(resp.Usage, runCfg.Model)
	fmt.Println("✓ Run successful")
	fmt.Printf("  Tokens used: %d\n", resp.Usage.TotalTokens)
	fmt.Printf("  Cost: $%.6f\n\n", cost)

	dashboardPath := filepath.Join(cfg.Output.DashboardDir, runCfg.PromptID+".md")
	dashboardPath, err = copilot.GenerateDashboard(runCfg.Prompt, resp.Result, runCfg.Hints.TaskType, dashboardPath)
	if err != nil {
		return failRun(err)
	}
	fmt.Printf("✓ Dashboard generated: %s\n\n", dashboardPath)

	writeLog(cfg, runCfg, start, maxTokens, &runSuccess{
		usage:         resp.Usage,
		costUSD:       cost,
		dashboardPath: dashboardPath,
	}, nil, logger)

	printPreview(resp.Result)
	return nil
}

type runSuccess struct {
	usage         execctx.Usage
	costUSD       float64
	dashboardPath string
}

// writeLog persists the run record, success or failure. Log write errors
// are reported but never mask the run outcome.
func writeLog(cfg *config.Config, runCfg *copilot.RunConfig, start time.Time, maxTokens int, success *runSuccess, cause error, logger *slog.Logger) {
	log := copilot.RunLog{
		PromptID:           runCfg.PromptID,
		TimestampStart:     start,
		TimestampEnd:       time.Now().UTC(),
		User:               runCfg.User,
		Prompt:             runCfg.Prompt,
		InstructionsSource: runCfg.InstructionsSource,
		Model:              runCfg.Model,
		BudgetUSD:          runCfg.BudgetUSD,
		EstimatedMaxTokens: maxTokens,
	}
	if success != nil {
		log.Usage = copilot.NewRunLogUsage(success.usage)
		log.CostUSD = &success.costUSD
		log.OutputPath = &success.dashboardPath
	}
	if cause != nil {
		msg := cause.Error()
		log.Error = &msg
	}

	path, err := copilot.WriteRunLog(log, cfg.Output.LogDir)
	if err != nil {
		logger.Warn("writing run log failed", "error", err)
		return
	}
	fmt.Printf("Log written: %s\n", path)
}

// resolveVirtualKey reads the per-user virtual key from the environment,
// falling back to an interactive prompt when stdin is a terminal.
func resolveVirtualKey(user string) (string, error) {
	envVar := virtualKeyEnvPrefix + strings.ToUpper(strings.ReplaceAll(user, "-", "_"))
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("Virtual key for %s (input hidden): ", user)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading virtual key: %w", err)
		}
		if key := strings.TrimSpace(string(raw)); key != "" {
			return key, nil
		}
	}

	return "", fmt.Errorf("virtual key not found: set the %s environment variable", envVar)
}

func printRunConfig(runCfg *copilot.RunConfig) {
	view := map[string]any{
		"prompt_id":    runCfg.PromptID,
		"prompt":       runCfg.Prompt,
		"user":         runCfg.User,
		"budget":       runCfg.BudgetUSD,
		"model":        runCfg.Model,
		"mode":         runCfg.Mode,
		"prompt_hints": runCfg.Hints,
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return
	}
	fmt.Printf("Configuration: %s\n\n", data)
}

func printPreview(result string) {
	fmt.Println("Response preview:")
	fmt.Println(strings.Repeat("-", 60))
	preview := result
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}
	fmt.Println(preview)
	fmt.Println(strings.Repeat("-", 60))
}
