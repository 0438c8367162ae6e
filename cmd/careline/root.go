package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "careline",
	Short: "Careline - resilient healthcare chat service",
	Long: `Careline is a customer-facing healthcare chat service that forwards user
messages to interchangeable LLM backends.

Every message passes through a resilience pipeline:
  - Multi-tier rate limiting with ban escalation for abusive callers
  - Response caching and in-flight request deduplication
  - Per-provider circuit breaking with fallback across backends
  - Curated answers for sensitive healthcare topics
  - A deterministic static fallback when every backend is down`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
