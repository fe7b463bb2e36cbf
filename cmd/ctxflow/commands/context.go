package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
	"github.com/jholhewres/ctxflow/pkg/ctxflow/provider"
)

// newContextCmd creates the `ctxflow context` command group for managing
// stored execution contexts.
func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Create and manage execution contexts",
	}

	cmd.AddCommand(
		newContextCreateCmd(),
		newContextAddCmd(),
		newContextPruneCmd(),
		newContextRouteCmd(),
		newContextExecCmd(),
		newContextShowCmd(),
		newContextListCmd(),
		newContextRmCmd(),
	)

	return cmd
}

func newContextCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new execution context",
		RunE:  runContextCreate,
	}

	cmd.Flags().String("intent", "", "categorical intent (e.g. analyze, summarize)")
	cmd.Flags().String("category", "", "optional category")
	cmd.Flags().Int("max-tokens", 0, "max_tokens constraint")
	cmd.Flags().StringP("model", "m", "", "routing model hint")
	cmd.Flags().String("provider", "", "routing provider hint")
	cmd.MarkFlagRequired("intent")

	return cmd
}

func runContextCreate(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	intent, _ := cmd.Flags().GetString("intent")
	category, _ := cmd.Flags().GetString("category")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	model, _ := cmd.Flags().GetString("model")
	providerName, _ := cmd.Flags().GetString("provider")

	opts := []execctx.Option{}
	if category != "" {
		opts = append(opts, execctx.WithCategory(category))
	}
	if maxTokens > 0 {
		opts = append(opts, execctx.WithConstraints(map[string]any{execctx.ConstraintMaxTokens: maxTokens}))
	}

	c := execctx.New(intent, opts...)
	if model != "" || providerName != "" {
		c.Route(model, providerName, "")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Save(c); err != nil {
		return err
	}

	fmt.Println(c.ID)
	return nil
}

func newContextAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id> <data>",
		Short: "Append an input to a context",
		Args:  cobra.ExactArgs(2),
		RunE:  runContextAdd,
	}

	cmd.Flags().Float64("relevance", 1.0, "relevance score (0.0 to 1.0)")
	cmd.Flags().Int("tokens", -1, "explicit token count (estimated when omitted)")
	cmd.Flags().Bool("json", false, "parse the data argument as JSON instead of a string")

	return cmd
}

func runContextAdd(cmd *cobra.Command, args []string) error {
	relevance, _ := cmd.Flags().GetFloat64("relevance")
	tokens, _ := cmd.Flags().GetInt("tokens")
	asJSON, _ := cmd.Flags().GetBool("json")

	var data any = args[1]
	if asJSON {
		if err := json.Unmarshal([]byte(args[1]), &data); err != nil {
			return fmt.Errorf("parsing data as JSON: %w", err)
		}
	}

	return withStoredContext(cmd, args[0], func(c *execctx.Context) error {
		if tokens >= 0 {
			c.AddInputTokens(data, relevance, tokens)
		} else {
			c.AddInput(data, relevance)
		}
		fmt.Printf("%d inputs, %d tokens total\n", len(c.Inputs), c.TotalTokens())
		return nil
	})
}

func newContextPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune <id>",
		Short: "Prune a context's inputs to fit token and relevance bounds",
		Args:  cobra.ExactArgs(1),
		RunE:  runContextPrune,
	}

	cmd.Flags().Int("max-tokens", -1, "token budget (defaults to the max_tokens constraint)")
	cmd.Flags().Float64("relevance-threshold", 0.0, "minimum relevance to keep")

	return cmd
}

func runContextPrune(cmd *cobra.Command, args []string) error {
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	threshold, _ := cmd.Flags().GetFloat64("relevance-threshold")

	return withStoredContext(cmd, args[0], func(c *execctx.Context) error {
		before := len(c.Inputs)
		c.Prune(maxTokens, threshold)
		fmt.Printf("pruned %d -> %d inputs, %d tokens total\n", before, len(c.Inputs), c.TotalTokens())
		return nil
	})
}

func newContextRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <id>",
		Short: "Resolve a context's model and provider routing",
		Args:  cobra.ExactArgs(1),
		RunE:  runContextRoute,
	}

	cmd.Flags().StringP("model", "m", "", "explicit model")
	cmd.Flags().String("provider", "", "explicit provider")
	cmd.Flags().String("strategy", "", "cost_optimized, quality_optimized, or speed_optimized")

	return cmd
}

func runContextRoute(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	providerName, _ := cmd.Flags().GetString("provider")
	strategy, _ := cmd.Flags().GetString("strategy")

	return withStoredContext(cmd, args[0], func(c *execctx.Context) error {
		c.Route(model, providerName, strategy)
		routing, err := json.Marshal(c.Routing)
		if err != nil {
			return err
		}
		fmt.Println(string(routing))
		return nil
	})
}

func newContextExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <id>",
		Short: "Execute a context with a task",
		Long: `Execute a stored context with a task. Without --live the provider
call is stubbed; with --live it goes through the configured
OpenAI-compatible gateway using the CTXFLOW_API_KEY environment
variable as the per-call credential.`,
		Args: cobra.ExactArgs(1),
		RunE: runContextExec,
	}

	cmd.Flags().String("task", "", "task description")
	cmd.Flags().String("system-prompt", "", "optional system prompt")
	cmd.Flags().Bool("live", false, "execute against the configured gateway instead of the stub")
	cmd.MarkFlagRequired("task")

	return cmd
}

func runContextExec(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	task, _ := cmd.Flags().GetString("task")
	systemPrompt, _ := cmd.Flags().GetString("system-prompt")
	live, _ := cmd.Flags().GetBool("live")

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.Load(args[0])
	if err != nil {
		return err
	}

	var adapter execctx.Adapter = execctx.StubAdapter{}
	if live {
		adapter = provider.NewHTTPAdapter(cfg.Proxy.BaseURL, logger)
	}

	resp, err := execctx.NewExecutor(adapter, logger).Execute(cmd.Context(), c, execctx.Request{
		Task:         task,
		SystemPrompt: systemPrompt,
		APIKey:       os.Getenv("CTXFLOW_API_KEY"),
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newContextShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a context's snapshot JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.Load(args[0])
			if err != nil {
				return err
			}
			data, err := c.EncodeJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func newContextListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no stored contexts")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tINTENT\tINPUTS\tTOKENS\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					e.ID, e.Intent, e.InputCount, e.Tokens, e.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newContextRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a stored context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Delete(args[0])
		},
	}
}

// withStoredContext loads a context, applies fn, and saves it back.
func withStoredContext(cmd *cobra.Command, id string, fn func(*execctx.Context) error) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.Load(id)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.Save(c)
}
