package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"waveform-hq/archivist/pkg/config"
	"waveform-hq/archivist/pkg/ledger"
	"waveform-hq/archivist/pkg/telemetry/logging"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and edit the deletion ledger",
	Long: `The deletion ledger records which remote artifacts are still pending
removal for each file whose deletion began. It is advisory: the
pipeline always re-verifies absence against the live services before
finalizing a deletion.

These subcommands are for operators recovering from unusual states,
not part of normal operation.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(func(book ledger.Ledger) error {
			entries, err := book.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ledger is empty")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tPENDING ARTIFACTS\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					e.Key, strings.Join(e.Artifacts, ","), e.Updated.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		})
	},
}

var ledgerAddCmd = &cobra.Command{
	Use:   "add <file> <artifact>...",
	Short: "Track pending artifacts for a file",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(func(book ledger.Ledger) error {
			return book.Track(cmd.Context(), args[0], args[1:]...)
		})
	},
}

var ledgerResolveCmd = &cobra.Command{
	Use:   "resolve <file> <artifact>",
	Short: "Mark one pending artifact as removed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(func(book ledger.Ledger) error {
			return book.Resolve(cmd.Context(), args[0], args[1])
		})
	},
}

var ledgerDropCmd = &cobra.Command{
	Use:   "drop <file>",
	Short: "Remove a file's ledger entry entirely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(func(book ledger.Ledger) error {
			return book.Drop(cmd.Context(), args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd, ledgerAddCmd, ledgerResolveCmd, ledgerDropCmd)
}

func withLedger(fn func(ledger.Ledger) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Telemetry.Logging, nil)
	if err != nil {
		return err
	}

	book, err := ledger.NewSQLiteLedger(ledger.SQLiteConfig{
		Path:        cfg.Ledger.Path,
		BusyTimeout: cfg.Ledger.BusyTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer book.Close()

	return fn(book)
}
