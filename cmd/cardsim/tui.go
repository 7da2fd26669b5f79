package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cardsim/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse similar cards interactively",
	Long: `Opens a terminal UI. Type a card name and press Enter; use up/down to
move between results and pgup/pgdown to page through the ranking.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine, closeEngine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		p := tea.NewProgram(tui.New(engine, cfg.Query.DefaultLimit), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
