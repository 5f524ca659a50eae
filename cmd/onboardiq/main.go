// onboardiq answers questions about a set of onboarding documents (CVs, job
// descriptions, handbooks) using only what those documents say.
//
// Usage:
//
//	onboardiq index FILE... [--append]
//	onboardiq ask QUERY [--trace]
//	onboardiq chat [FILE...]
//	onboardiq serve
//	onboardiq watch DIR
//	onboardiq count | clear | models
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config   string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "onboardiq",
	Short: "Grounded question answering over uploaded documents",
	Long: "OnboardIQ indexes documents and answers questions about them through a\n" +
		"multi-stage reasoning pipeline. Questions the documents cannot answer get\n" +
		"an explanatory reply instead of an invented one.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(*cobra.Command, []string) {
		_ = godotenv.Load()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.config, "config", "", "path to YAML config (default ./config.yaml or ~/.config/onboardiq/config.yaml)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
