// Command tsumodp drives the offline precomputation pipeline and serves
// the resulting artifacts for local testing.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var logger = log.New(os.Stderr)

var rootCmd = &cobra.Command{
	Use:   "tsumodp",
	Short: "tsumo/metrics precomputation pipeline and query server",
	Long:  "tsumodp builds the tsumo and metrics DP artifacts and serves tsumo-probability and per-dimension-metrics queries over them.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}
