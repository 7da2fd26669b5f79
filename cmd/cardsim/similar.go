package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cardsim/internal/domain"
)

var (
	similarLimit  int
	similarOffset int
	similarJSON   bool
)

var similarCmd = &cobra.Command{
	Use:   "similar [card name]",
	Short: "List cards similar to a card",
	Long: `Ranks every card with rules text by latent similarity to the named card.
The card itself and cards without rules text are never listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 0, "maximum number of results (default query.default_limit)")
	similarCmd.Flags().IntVar(&similarOffset, "offset", 0, "number of ranked results to skip")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	engine, closeEngine, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeEngine()

	n := similarLimit
	if n == 0 {
		n = cfg.Query.DefaultLimit
	}
	matches, err := engine.Similar(args[0], n, similarOffset)
	if err != nil {
		return err
	}

	if similarJSON {
		return outputSimilarJSON(cmd, matches)
	}
	outputSimilarTable(cmd, matches)
	return nil
}

func outputSimilarJSON(cmd *cobra.Command, matches []domain.Match) error {
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputSimilarTable(cmd *cobra.Command, matches []domain.Match) {
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No similar cards found.")
		return
	}
	for i, m := range matches {
		fmt.Fprintf(out, "  [%d] %s (%.3f)\n", max(similarOffset, 0)+i+1, m.Card.Name, m.Score)
		if m.Card.Text != "" {
			fmt.Fprintf(out, "      %s\n", m.Card.Text)
		}
	}
}
