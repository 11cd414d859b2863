package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"waveform-hq/archivist/pkg/config"
	"waveform-hq/archivist/pkg/sds"
	"waveform-hq/archivist/pkg/telemetry/logging"
)

var collectFlags struct {
	dir     string
	pattern string
	output  string
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "List the archive files a selection pattern matches",
	Long: `Walk the SDS archive and print the files matching the 7-field
selection pattern, one path per line. Useful for checking what a
pattern selects before running the pipeline against it.

Examples:
  # Everything in the archive
  archivist collect

  # One station's vertical channel for 2023
  archivist collect --pattern "NL.HGN.*.BHZ.D.2023.*"

  # Write the selection to a file
  archivist collect --pattern "NL.*.*.*.D.2023.*" -o selection.txt`,
	RunE: collectFiles,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectFlags.dir, "dir", "", "override the archive root directory")
	collectCmd.Flags().StringVar(&collectFlags.pattern, "pattern", "", "7-field selection pattern")
	collectCmd.Flags().StringVarP(&collectFlags.output, "output", "o", "", "write the list to a file instead of stdout")
}

func collectFiles(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if collectFlags.dir != "" {
		cfg.Archive.RootPath = collectFlags.dir
	}
	if collectFlags.pattern != "" {
		cfg.Archive.Pattern = collectFlags.pattern
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return err
	}

	collector, err := sds.NewCollector(cfg.Archive.RootPath, logger)
	if err != nil {
		return err
	}
	files, err := collector.FromWildcards(cfg.Archive.Pattern)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if collectFlags.output != "" {
		f, err := os.Create(collectFlags.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	for _, file := range files {
		fmt.Fprintln(out, file.Path())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d files matched %q\n", len(files), cfg.Archive.Pattern)
	return nil
}
