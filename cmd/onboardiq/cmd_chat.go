package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simiyu-dess/OnboardIQ/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [FILE...]",
	Short: "Open the interactive chat, optionally indexing FILEs first",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, _, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	summary := "Using the existing collection."
	if len(args) > 0 {
		report, err := svc.IndexFiles(ctx, args, true)
		if err != nil {
			return err
		}
		summary = report.Summary
	}

	_, err = tea.NewProgram(tui.New(ctx, svc, summary), tea.WithAltScreen()).Run()
	return err
}
