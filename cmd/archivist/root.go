package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Archivist - SDS archive lifecycle manager",
	Long: `Archivist walks an SDS waveform archive and evaluates an ordered set
of rules against every selected file: pruning, object store ingestion,
metadata publication, identifier assignment, replication, and verified
deletion.

Rules are declarative: each names an action, its options, and the
conditions that gate it. The rule maps and the evaluation sequence are
plain JSON or YAML files validated at load time.`,
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
}
