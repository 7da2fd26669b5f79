package main

import (
	"github.com/spf13/cobra"
)

var cardCmd = &cobra.Command{
	Use:   "card [card name]",
	Short: "Show a card by name",
	Long:  `Looks a card up by name. Case, spacing and punctuation are ignored.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeEngine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		card, err := engine.GetCardByName(args[0])
		if err != nil {
			return err
		}
		printCard(cmd, card)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cardCmd)
}
