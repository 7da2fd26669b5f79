package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardsim/internal/artifact/sqlite"
	"cardsim/internal/corpus"
	"cardsim/internal/embedding/lsi"
	"cardsim/internal/service"
)

var buildTopics int

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fit the similarity model over the card library",
	Long: `Normalizes every card, fits the vocabulary, tf-idf weights and latent
projection, indexes every card and stores the result in the artifact
database, replacing any previous build.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildTopics, "topics", 0, "latent topics (overrides model.topics)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cards, err := corpus.Load(cfg.Library)
	if err != nil {
		return err
	}
	norm, err := newNormalizer()
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(cfg.Artifacts.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := lsi.Options{
		Topics:          cfg.Model.Topics,
		Oversampling:    cfg.Model.Oversampling,
		PowerIterations: cfg.Model.PowerIterations,
		Seed:            cfg.Model.Seed,
	}
	if buildTopics > 0 {
		opts.Topics = buildTopics
	}

	set, err := service.NewIndexer(norm, store, opts, log).Build(cmd.Context(), cards)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Built %s: %d cards, %d terms, %d topics -> %s\n",
		set.BuildID, set.Cards, set.Encoder.Dictionary.Len(), set.Topics, cfg.Artifacts.Path)
	return nil
}
