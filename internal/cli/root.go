// Package cli implements the HomeSolution command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "homesolution",
	Short: "HomeSolution tracks renovation projects, tasks and worker costs",
	Long: `HomeSolution keeps a registry of workers, clients and renovation projects.
Tasks are assigned to workers, delays are reported, and project costs are
estimated while work is open and settled when it finishes.

Replay a scenario file with 'homesolution simulate' or expose the registry
over HTTP with 'homesolution serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
