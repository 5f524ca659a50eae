package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/simiyu-dess/OnboardIQ/internal/generation/ollama"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of indexed fragments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, _, cleanup, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		n, err := svc.DocumentCount(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the indexed collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, _, cleanup, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		if err := svc.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Collection cleared.")
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available on the configured Ollama server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Generator.Type != "ollama" || cfg.Generator.Ollama == nil {
			return fmt.Errorf("generator type is %q; models lists Ollama models only", cfg.Generator.Type)
		}
		c := ollama.NewClient(cfg.Generator.Ollama.BaseURL, cfg.Generator.Ollama.Model, 10*time.Second)
		models, err := c.ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("ollama at %s: %w", cfg.Generator.Ollama.BaseURL, err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
		for _, m := range models {
			marker := ""
			if m.Name == c.Model() {
				marker = " *"
			}
			fmt.Fprintf(tw, "%s%s\t%d MB\t%s\n", m.Name, marker, m.Size>>20, m.ModifiedAt.Format(time.DateOnly))
		}
		return tw.Flush()
	},
}
