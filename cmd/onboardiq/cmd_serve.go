package main

import (
	"github.com/spf13/cobra"

	"github.com/simiyu-dess/OnboardIQ/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: "Starts an MCP server over stdin/stdout exposing index_files, ask, retrieve,\n" +
		"count and clear_all. Logs go to stderr.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, log, cleanup, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()
	return mcpserver.NewServer(svc, version, log).Run(cmd.Context())
}
