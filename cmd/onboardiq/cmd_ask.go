package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/simiyu-dess/OnboardIQ/internal/service"
)

var askFlags struct {
	trace bool
}

var askCmd = &cobra.Command{
	Use:   "ask QUERY",
	Short: "Answer one question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askFlags.trace, "trace", false, "print every pipeline stage's output")
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, _, cleanup, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	ans, err := svc.Answer(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	printAnswer(cmd.OutOrStdout(), ans, askFlags.trace)
	return nil
}

func printAnswer(out io.Writer, ans service.Answer, trace bool) {
	fmt.Fprintln(out, ans.Text)
	if ans.OutOfContext {
		fmt.Fprintf(out, "\n(out of context: %s)\n", ans.Verdict.Explanation)
		return
	}
	if len(ans.References) > 0 {
		fmt.Fprintln(out, "\nReferences:")
		for i, r := range ans.References {
			loc := r.Source
			if r.Page != nil {
				loc += fmt.Sprintf(" p.%d", *r.Page)
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, loc)
		}
	}
	if trace {
		fmt.Fprintf(out, "\nRun %s, %s workflow\n", ans.RunID, ans.Workflow)
		for _, rec := range ans.Trace {
			fmt.Fprintf(out, "\n--- %s: %s (%s)\n%s\n", rec.StageID, rec.Persona, rec.Duration.Round(time.Millisecond), rec.Output)
		}
	}
}
