package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
)

// newModelsCmd creates the `ctxflow models` command that dumps the model
// registry.
func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered models with capability and cost facts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tPROVIDER\tMAX TOKENS\tIN $/1K\tOUT $/1K\tQUALITY\tSPEED")
			for _, name := range execctx.Models() {
				spec, _ := execctx.ModelSpecFor(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.4f\t%.2f\t%.2f\n",
					name, spec.Provider, spec.MaxTokens,
					spec.CostPer1KInput, spec.CostPer1KOutput,
					spec.Quality, spec.Speed)
			}
			return w.Flush()
		},
	}
}
