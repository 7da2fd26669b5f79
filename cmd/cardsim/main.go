package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cardsim/internal/artifact/sqlite"
	"cardsim/internal/config"
	"cardsim/internal/corpus"
	"cardsim/internal/domain"
	"cardsim/internal/logger"
	"cardsim/internal/normalizer"
	"cardsim/internal/service"
)

var (
	cfgPath       string
	libraryPath   string
	artifactsPath string
	logLevel      string

	cfg *config.AppConfig
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cardsim",
	Short: "Find cards with similar rules text",
	Long: `cardsim fits a latent semantic model over a card library and answers
"which cards play like this one?" from the command line, a terminal UI or
an HTTP API.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./cardsim.yaml or ~/.config/cardsim/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&libraryPath, "library", "", "card library (JSON array, optionally gzipped)")
	rootCmd.PersistentFlags().StringVar(&artifactsPath, "artifacts", "", "artifact database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(*cobra.Command, []string) error {
	_ = godotenv.Load()

	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if libraryPath != "" {
		cfg.Library = libraryPath
	}
	if artifactsPath != "" {
		cfg.Artifacts.Path = artifactsPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err = logger.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

func newNormalizer() (*normalizer.Normalizer, error) {
	if cfg.Normalizer.StopwordsPath == "" {
		return normalizer.New(), nil
	}
	stop, err := normalizer.LoadStopwords(cfg.Normalizer.StopwordsPath)
	if err != nil {
		return nil, err
	}
	return normalizer.New(normalizer.WithStopwords(stop)), nil
}

// openEngine loads the library and the stored build. The returned closer
// releases the artifact store.
func openEngine(ctx context.Context) (*service.SimilarityService, func(), error) {
	cards, err := corpus.Load(cfg.Library)
	if err != nil {
		return nil, nil, err
	}
	norm, err := newNormalizer()
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.NewStore(cfg.Artifacts.Path)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.Open(ctx, cards, store, norm, log)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("%w (run `cardsim build` first)", err)
	}
	log.Debug("Similarity index loaded",
		zap.String("library", cfg.Library),
		zap.String("artifacts", cfg.Artifacts.Path),
		zap.String("build_id", svc.Stats().BuildID),
	)
	return svc, func() { _ = store.Close() }, nil
}

func printCard(cmd *cobra.Command, c domain.Card) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, c.Name)
	if c.ManaCost != "" || c.Type != "" {
		fmt.Fprintf(out, "  %s  %s\n", c.ManaCost, c.Type)
	}
	if len(c.Subtypes) > 0 {
		fmt.Fprintf(out, "  Subtypes: %v\n", c.Subtypes)
	}
	if c.Text != "" {
		fmt.Fprintf(out, "  %s\n", c.Text)
	}
}
