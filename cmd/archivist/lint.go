package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"waveform-hq/archivist/pkg/config"
	"waveform-hq/archivist/pkg/rules"
	"waveform-hq/archivist/pkg/rules/actions"
	"waveform-hq/archivist/pkg/rules/conditions"
)

var lintFlags struct {
	ruleMaps []string
	ruleSeq  string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule maps and the sequence without running them",
	Long: `Load the rule maps and sequence through the same validation the
pipeline uses: schema checks on each document, unknown function names,
double negation, duplicate rule names, and sequence entries with no
definition. Nothing is executed.

Examples:
  # Validate the configured rule maps
  archivist lint

  # Validate specific files
  archivist lint --rulemap rules.json --ruleseq sequence.json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringArrayVar(&lintFlags.ruleMaps, "rulemap", nil, "rule map file, repeatable")
	lintCmd.Flags().StringVar(&lintFlags.ruleSeq, "ruleseq", "", "rule sequence file")
}

func lintRules(cmd *cobra.Command, args []string) error {
	mapPaths := lintFlags.ruleMaps
	seqPath := lintFlags.ruleSeq

	if len(mapPaths) == 0 || seqPath == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if len(mapPaths) == 0 {
			mapPaths = cfg.Engine.RuleMaps
		}
		if seqPath == "" {
			seqPath = cfg.Engine.Sequence
		}
	}
	if len(mapPaths) == 0 {
		return fmt.Errorf("no rule maps to validate")
	}

	// Registration needs no live collaborators; the catalogs are only
	// consulted when a rule actually runs.
	registry := rules.NewRegistry()
	if err := conditions.Register(registry, conditions.Deps{}); err != nil {
		return err
	}
	if err := actions.Register(registry, actions.Deps{}); err != nil {
		return err
	}

	ruleset, err := rules.Load(registry, mapPaths, seqPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d rules valid\n", len(ruleset.Rules()))
	for _, rule := range ruleset.Rules() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s (%d conditions)\n",
			rule.Name, rule.Description, len(rule.Conditions))
	}
	return nil
}
