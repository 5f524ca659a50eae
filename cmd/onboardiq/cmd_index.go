package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexFlags struct {
	append bool
}

var indexCmd = &cobra.Command{
	Use:   "index FILE...",
	Short: "Load, split and index documents (.txt, .md, .pdf, .docx)",
	Long: "Index replaces the existing collection unless --append is given. Arguments\n" +
		"may be files, directories or glob patterns.",
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexFlags.append, "append", false, "add to the existing collection instead of replacing it")
}

func runIndex(cmd *cobra.Command, args []string) error {
	svc, _, cleanup, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := svc.IndexFiles(cmd.Context(), args, !indexFlags.append)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d files (%d documents, %d fragments)\n", report.Files, report.Documents, report.Fragments)
	if report.Summary != "" {
		fmt.Fprintf(out, "\nSummary:\n%s\n", report.Summary)
	}
	return nil
}
